// Package config provides database configuration management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/festy23/datajpa/pkg/retry"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database connection configuration.
type Config struct {
	// Driver selects the dialect: postgres or sqlite.
	Driver   string
	Host     string
	User     string
	Password string
	DBName   string
	Port     string
	SSLMode  string
	TimeZone string
	// SQLitePath is the database file (or a file: URI) used by the sqlite driver.
	SQLitePath string
}

// GetEnv reads an environment variable with a default fallback.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// BuildDSN constructs the PostgreSQL DSN string from configuration.
func BuildDSN(cfg Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode, cfg.TimeZone)
}

// BuildSQLiteDSN returns the sqlite DSN with foreign key enforcement switched on.
func BuildSQLiteDSN(cfg Config) string {
	path := cfg.SQLitePath
	if path == "" {
		path = "datajpa.db"
	}
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return postgres.Open(BuildDSN(cfg)), nil
	case DriverSQLite:
		return sqlite.Open(BuildSQLiteDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s (must be: postgres, sqlite)", cfg.Driver)
	}
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() Config {
	return Config{
		Driver:     GetEnv("DB_DRIVER", DriverPostgres),
		Host:       GetEnv("DB_HOST", "localhost"),
		User:       GetEnv("DB_USER", "postgres"),
		Password:   GetEnv("DB_PASSWORD", "postgres"),
		DBName:     GetEnv("DB_NAME", "datajpa"),
		Port:       GetEnv("DB_PORT", "5432"),
		SSLMode:    GetEnv("DB_SSLMODE", "disable"),
		TimeZone:   GetEnv("DB_TIMEZONE", "UTC"),
		SQLitePath: GetEnv("DB_SQLITE_PATH", "datajpa.db"),
	}
}

// SanitizeError removes the password from connection error messages.
func SanitizeError(err error, cfg Config) error {
	if err == nil {
		return nil
	}
	errMsg := err.Error()
	if cfg.Password != "" {
		safeDSN := BuildDSN(Config{
			Host: cfg.Host, User: cfg.User, Password: "***", DBName: cfg.DBName,
			Port: cfg.Port, SSLMode: cfg.SSLMode, TimeZone: cfg.TimeZone,
		})
		errMsg = strings.ReplaceAll(errMsg, BuildDSN(cfg), safeDSN)
		errMsg = strings.ReplaceAll(errMsg, cfg.Password, "***")
	}
	return fmt.Errorf("failed to connect to database: %s", errMsg)
}

// getEnvInt reads an integer environment variable with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration reads a duration environment variable with a default fallback.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat reads a float environment variable with a default fallback.
func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// LoadRetryConfigFromEnv loads the connect retry policy for driver from environment variables.
func LoadRetryConfigFromEnv(driver string) retry.Config {
	cfg := retry.PostgresConfig()
	if driver == DriverSQLite {
		cfg = retry.SQLiteConfig()
	}
	cfg.MaxAttempts = getEnvInt("DB_RETRY_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.InitialDelay = getEnvDuration("DB_RETRY_INITIAL_DELAY", cfg.InitialDelay)
	cfg.MaxDelay = getEnvDuration("DB_RETRY_MAX_DELAY", cfg.MaxDelay)
	cfg.Multiplier = getEnvFloat("DB_RETRY_MULTIPLIER", cfg.Multiplier)
	return cfg
}
