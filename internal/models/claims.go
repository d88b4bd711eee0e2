package models

import "github.com/golang-jwt/jwt/v5"

// IssuerClaims identifies a party allowed to issue gift cards.
type IssuerClaims struct {
	jwt.RegisteredClaims
	IssuerName string `json:"issuer_name"`
}
