// Package database opens gorm connections for the configured driver.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/festy23/datajpa/internal/database/config"
	"github.com/festy23/datajpa/internal/database/gormzap"
	"github.com/festy23/datajpa/internal/database/pool"
	"github.com/festy23/datajpa/pkg/retry"
)

// Options tunes how a connection is opened.
type Options struct {
	// SQLLevel is the gorm statement log level.
	SQLLevel gormlogger.LogLevel
	// SlowQueryThreshold marks slow statements. Zero disables it.
	SlowQueryThreshold time.Duration
	// Pool overrides the default pool settings.
	Pool *pool.Config
}

// New creates a new database connection using environment variables.
func New(logger *zap.SugaredLogger) (*gorm.DB, error) {
	return NewWithConfig(config.LoadConfigFromEnv(), logger, Options{SQLLevel: gormlogger.Warn})
}

// NewWithConfig creates a new database connection with custom configuration.
func NewWithConfig(cfg config.Config, logger *zap.SugaredLogger, opts Options) (*gorm.DB, error) {
	dialector, err := config.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	retryCfg := config.LoadRetryConfigFromEnv(cfg.Driver)
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warnw("database connection failed, retrying",
			"driver", cfg.Driver,
			"attempt", attempt,
			"delay", delay,
			"error", config.SanitizeError(err, cfg),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormzap.New(logger, opts.SQLLevel, opts.SlowQueryThreshold),
	}

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*gorm.DB, error) {
		db, err := gorm.Open(dialector, gormCfg)
		return db, permanentOpenError(err)
	})
	if err != nil {
		return nil, config.SanitizeError(err, cfg)
	}

	poolCfg := pool.LoadConfigFromEnv(cfg.Driver)
	if opts.Pool != nil {
		poolCfg = *opts.Pool
	}
	if err := pool.SetupConnectionPool(db, poolCfg); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to setup connection pool: %w", err)
	}

	logger.Infow("database connected",
		"driver", dialector.Name(),
		"max_open_conns", poolCfg.MaxOpenConns,
	)
	return db, nil
}

// permanentOpenError marks connect failures that another attempt cannot fix:
// rejected credentials, a missing database, or a sqlite file that cannot be opened.
func permanentOpenError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		(strings.HasPrefix(pgErr.Code, "28") || pgErr.Code == "3D000") {
		return retry.Permanent(err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrCantOpen {
		return retry.Permanent(err)
	}
	return err
}

// HealthCheck verifies database connection availability.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// GetStats returns database connection pool statistics.
func GetStats(db *gorm.DB) (*sql.DBStats, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return &stats, nil
}
