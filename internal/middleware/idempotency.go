package middleware

import (
	"context"
	"time"

	"giftledger/internal/utils"
	"giftledger/internal/utils/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	DefaultIdempotencyTTL     = 24 * time.Hour
	DefaultIdempotencyLockTTL = 30 * time.Second
)

// IdempotencyStore is the subset of the cache service the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key on
// the same path. A key whose first request is still running is rejected with
// 409. Server errors are not stored so the client can retry them.
func Idempotency(store IdempotencyStore, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(IdempotencyKeyHeader)
		if key == "" {
			return c.Next()
		}

		ctx := c.UserContext()
		scoped := cache.ScopedValue(c.Path(), key)
		respKey := cache.GenerateKey(cache.EntityIdempotency, cache.KeyResponse, scoped)
		lockKey := cache.GenerateKey(cache.EntityIdempotency, cache.KeyRequest, scoped)

		var prev storedResponse
		found, err := store.Get(ctx, respKey, &prev)
		if err != nil {
			logger.Warn("idempotency lookup failed", zap.Error(err), zap.String("key", key))
			return c.Next()
		}
		if found {
			c.Set(IdempotentReplayedHeader, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			return c.Status(prev.Status).Send(prev.Body)
		}

		acquired, err := store.SetNX(ctx, lockKey, "processing", DefaultIdempotencyLockTTL)
		if err != nil {
			logger.Warn("idempotency lock failed", zap.Error(err), zap.String("key", key))
			return c.Next()
		}
		if !acquired {
			return utils.Error(c, fiber.StatusConflict, "A request with this Idempotency-Key is already in progress")
		}
		defer func() {
			if err := store.Delete(ctx, lockKey); err != nil {
				logger.Warn("idempotency unlock failed", zap.Error(err), zap.String("key", key))
			}
		}()

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		body := append([]byte(nil), c.Response().Body()...)
		if err := store.SetWithTTL(ctx, respKey, storedResponse{Status: status, Body: body}, DefaultIdempotencyTTL); err != nil {
			logger.Warn("idempotency store failed", zap.Error(err), zap.String("key", key))
		}
		return nil
	}
}
