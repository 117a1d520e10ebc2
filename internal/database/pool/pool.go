// Package pool sizes the connection pool behind a gorm handle.
package pool

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	appConfig "github.com/festy23/datajpa/internal/config"
	dbConfig "github.com/festy23/datajpa/internal/database/config"
)

// Config holds database connection pool configuration.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ForDriver returns the default pool for driver.
// sqlite serialises writers and an in-memory database lives only as long as its single
// connection, so it gets one connection that never expires.
func ForDriver(driver string) Config {
	if driver == dbConfig.DriverSQLite {
		return Config{
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		}
	}
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// LoadConfigFromEnv returns the pool for driver with DB_POOL_* overrides applied.
func LoadConfigFromEnv(driver string) Config {
	cfg := ForDriver(driver)
	cfg.MaxOpenConns = appConfig.GetEnvInt("DB_POOL_MAX_OPEN", cfg.MaxOpenConns)
	cfg.MaxIdleConns = appConfig.GetEnvInt("DB_POOL_MAX_IDLE", cfg.MaxIdleConns)
	cfg.ConnMaxLifetime = appConfig.GetEnvDuration("DB_POOL_MAX_LIFETIME", cfg.ConnMaxLifetime)
	cfg.ConnMaxIdleTime = appConfig.GetEnvDuration("DB_POOL_MAX_IDLE_TIME", cfg.ConnMaxIdleTime)
	return cfg
}

// Validate checks the connection limits.
func (c Config) Validate() error {
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be greater than 0")
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns must be non-negative")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf(
			"MaxIdleConns (%d) cannot be greater than MaxOpenConns (%d)",
			c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.ConnMaxLifetime < 0 || c.ConnMaxIdleTime < 0 {
		return fmt.Errorf("connection lifetimes must be non-negative")
	}
	return nil
}

// SetupConnectionPool applies poolCfg to the sql.DB behind db.
func SetupConnectionPool(db *gorm.DB, poolCfg Config) error {
	if err := poolCfg.Validate(); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(poolCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(poolCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(poolCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

	return nil
}
