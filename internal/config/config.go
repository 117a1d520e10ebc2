// Package config loads application configuration from the environment.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
// Database connection settings live in internal/database/config.
type Config struct {
	// Logger holds application and SQL logger configuration.
	Logger LoggerConfig
	// FixturePath is a YAML seed file applied at startup. Empty disables seeding.
	FixturePath string
	// Migrate applies schema migrations at startup.
	Migrate bool
	// PageSize is the page size used by the member report.
	PageSize int
}

// Load reads an optional .env file and then loads configuration from the environment.
// Variables already set in the environment take precedence over the file.
func Load(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)
	return LoadFromEnv()
}

// LoadFromEnv loads all configuration from environment variables.
func LoadFromEnv() Config {
	return Config{
		Logger:      LoadLoggerConfigFromEnv(),
		FixturePath: GetEnv("FIXTURE_PATH", ""),
		Migrate:     GetEnvBool("DB_MIGRATE", true),
		PageSize:    GetEnvInt("REPORT_PAGE_SIZE", 3),
	}
}

// Validate validates all configuration.
func (c Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("invalid REPORT_PAGE_SIZE: %d (must be greater than 0)", c.PageSize)
	}
	return nil
}
