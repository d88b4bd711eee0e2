// Package routes wires repositories, services and handlers onto the fiber
// app and applies per-route middleware.
package routes

import (
	"fmt"
	"time"

	"giftledger/internal/config"
	"giftledger/internal/handlers"
	"giftledger/internal/middleware"
	"giftledger/internal/repositories"
	"giftledger/internal/repositories/cache"
	"giftledger/internal/services/giftcard"
	"giftledger/internal/services/notification"
	qr "giftledger/internal/services/qr_code"
	"giftledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the shared resources the routes are built from. Cache is
// nil when Redis is not configured.
type Dependencies struct {
	DB      *gorm.DB
	Cache   *cache.CacheService
	Config  *config.Config
	Logger  *zap.Logger
	Metrics giftcard.MetricsCollector
	Now     func() time.Time
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	giftCardRepo := repositories.NewGiftCardRepository(deps.DB)
	giftCardService := giftcard.NewService(
		giftCardRepo,
		giftcard.Config{Now: deps.Now, Notifier: notification.NewService(logger)},
		logger,
		deps.Metrics,
	)
	qrService, err := qr.NewService(qr.Config{})
	if err != nil {
		return fmt.Errorf("failed to create QR service: %w", err)
	}

	giftCardHandler := handlers.NewGiftCardHandler(giftCardService, qrService, logger)

	var healthHandler *handlers.HealthHandler
	if deps.Cache != nil {
		healthHandler = handlers.NewHealthHandler(deps.DB, deps.Cache)
	} else {
		healthHandler = handlers.NewHealthHandler(deps.DB, nil)
	}
	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api")
	giftCards := api.Group("/gift-cards")

	giftCards.Post("/", middleware.IssuerAuth(deps.Config.JWTSecret, logger), giftCardHandler.IssueGiftCard)
	giftCards.Get("/by-recipient/:phone", giftCardHandler.ListByRecipient)
	giftCards.Get("/:id", giftCardHandler.GetGiftCard)
	giftCards.Post("/:id/accept", acceptLimiter(deps.Config.AcceptRateLimit), giftCardHandler.AcceptGiftCard)

	useHandlers := []fiber.Handler{}
	if deps.Cache != nil {
		useHandlers = append(useHandlers, middleware.Idempotency(deps.Cache, logger))
	}
	useHandlers = append(useHandlers, giftCardHandler.UseGiftCard)
	giftCards.Post("/:id/use", useHandlers...)

	giftCards.Get("/:id/qr-code", giftCardHandler.GetQRCode)
	giftCards.Get("/:id/verify", giftCardHandler.VerifyGiftCard)
	giftCards.Get("/:id/transactions", giftCardHandler.GetTransactions)

	return nil
}

// acceptLimiter throttles acceptance attempts per client to slow down phone
// number guessing.
func acceptLimiter(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Error(c, fiber.StatusTooManyRequests, "Too many requests. Please try again later.")
		},
	})
}
