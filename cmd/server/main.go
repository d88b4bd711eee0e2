// Package main is the entry point for the gift card ledger API.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"giftledger/internal/config"
	"giftledger/internal/repositories"
	"giftledger/internal/repositories/cache"
	"giftledger/internal/routes"
	"giftledger/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnv()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repositories.OpenDatabase(cfg.DatabaseURL, cfg.DB)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	if err := repositories.Migrate(db); err != nil {
		return err
	}
	zlog.Info("connected to database",
		zap.Int("max_open_conns", cfg.DB.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.DB.MaxIdleConns),
	)

	var cacheService *cache.CacheService
	if cfg.Redis.Enabled() {
		client := cache.NewRedisClient(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		cacheService = cache.NewCacheService(client, time.Hour)
		defer cacheService.Close()

		if err := cacheService.HealthCheck(ctx); err != nil {
			return err
		}
		zlog.Info("connected to redis", zap.String("host", cfg.Redis.Host))
	} else {
		zlog.Info("redis not configured, idempotent replay disabled")
	}

	app := fiber.New(fiber.Config{
		AppName:      "giftledger",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		ErrorHandler: errorHandler(zlog),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSAllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	if err := routes.SetupRoutes(app, routes.Dependencies{
		DB:     db,
		Cache:  cacheService,
		Config: cfg,
		Logger: zlog,
	}); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("server listening", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		return app.Listen(cfg.Addr())
	})
	g.Go(func() error {
		reportPoolStats(gctx, db, cacheService, zlog)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zlog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// reportPoolStats logs database and Redis pool usage every minute until ctx
// is done. cacheService may be nil.
func reportPoolStats(ctx context.Context, db *gorm.DB, cacheService *cache.CacheService, zlog *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := sqlDB.Stats()
			zlog.Debug("db pool stats",
				zap.Int("open", stats.OpenConnections),
				zap.Int("idle", stats.Idle),
				zap.Int("in_use", stats.InUse),
				zap.Int64("wait_count", stats.WaitCount),
				zap.Duration("wait_duration", stats.WaitDuration),
			)
			if cacheService != nil {
				rs := cacheService.GetStats()
				zlog.Debug("redis pool stats",
					zap.Uint32("hits", rs.Hits),
					zap.Uint32("misses", rs.Misses),
					zap.Uint32("timeouts", rs.Timeouts),
					zap.Uint32("total_conns", rs.TotalConns),
					zap.Uint32("idle_conns", rs.IdleConns),
				)
			}
		}
	}
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// in the standard envelope.
func errorHandler(zlog *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		msg := "Internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			msg = fe.Message
		}
		if status >= fiber.StatusInternalServerError {
			zlog.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return utils.Error(c, status, msg)
	}
}
