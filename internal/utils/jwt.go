package utils

import (
	"errors"
	"time"

	"giftledger/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "giftledger-api"

// GenerateIssuerToken signs an HS256 token for the named issuer.
func GenerateIssuerToken(secret, issuerName string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := models.IssuerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   issuerName,
		},
		IssuerName: issuerName,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseIssuerToken parses and validates a token string.
func ParseIssuerToken(secret, tokenStr string) (*models.IssuerClaims, error) {
	claims := &models.IssuerClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
