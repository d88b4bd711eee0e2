package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Pinger is satisfied by the cache service.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db    *gorm.DB
	cache Pinger
}

// NewHealthHandler creates a health handler. cache may be nil when Redis is
// not configured.
func NewHealthHandler(db *gorm.DB, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{"database": "connected", "redis": "disabled"}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status = fiber.StatusServiceUnavailable
		services["database"] = "unavailable"
	}

	if h.cache != nil {
		if err := h.cache.HealthCheck(ctx); err != nil {
			status = fiber.StatusServiceUnavailable
			services["redis"] = "unavailable"
		} else {
			services["redis"] = "connected"
		}
	}

	state := "ok"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   state,
		"version":  "1.0.0",
		"services": services,
	})
}
