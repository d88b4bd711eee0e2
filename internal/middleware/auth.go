// Package middleware provides HTTP middleware components for the application.
// It includes issuer authentication and idempotent replay of mutating requests
// for the fiber web framework.
package middleware

import (
	"strings"

	"giftledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// IssuerLocalKey holds the authenticated issuer name in fiber locals.
const IssuerLocalKey = "issuer"

// IssuerAuth requires a Bearer token signed with secret. An empty secret
// disables the check.
func IssuerAuth(secret string, logger *zap.Logger) fiber.Handler {
	if secret == "" {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return utils.Unauthorized(c, "Missing authorization header")
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return utils.Unauthorized(c, "Invalid authorization format")
		}

		claims, err := utils.ParseIssuerToken(secret, tokenString)
		if err != nil {
			logger.Warn("issuer token rejected", zap.Error(err), zap.String("ip", c.IP()))
			return utils.Unauthorized(c, "Invalid token")
		}

		c.Locals(IssuerLocalKey, claims.IssuerName)
		return c.Next()
	}
}
