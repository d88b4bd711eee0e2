// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"fmt"
	"giftledger/internal/config"
	"giftledger/internal/models"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// OpenDatabase connects to the store named by url and applies the pool settings.
// Postgres URLs are the production path; sqlite:// URLs open an embedded
// database restricted to a single connection, which serializes transactions.
func OpenDatabase(url string, pool config.DBConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Configure GORM logger to ignore "record not found" errors
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(url, sqliteScheme) {
		dialector = sqlite.Open(strings.TrimPrefix(url, sqliteScheme))
		pool.MaxOpenConns = 1
		pool.MaxIdleConns = 1
		pool.ConnMaxLifetime = 0
		pool.ConnMaxIdleTime = 0
	} else {
		dialector = postgres.Open(url)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	return db, nil
}

// Migrate creates or updates the gift card schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.GiftCard{}, &models.GiftCardTransaction{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// NewTestDB opens a migrated SQLite database stored under dir.
func NewTestDB(dir string) (*gorm.DB, error) {
	dsn := filepath.Join(dir, "giftcards.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := OpenDatabase(sqliteScheme+dsn, config.DBConfig{})
	if err != nil {
		return nil, err
	}
	db.Logger = db.Logger.LogMode(logger.Silent)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
