package config

import (
	"fmt"
	"time"
)

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string
	// Format is the logging format (json, console).
	Format string
	// Output is stdout, stderr, or a file path.
	Output string
	// SQLLevel is the gorm statement logging level (silent, error, warn, info).
	SQLLevel string
	// SlowQueryThreshold marks statements slower than this as slow. Zero disables it.
	SlowQueryThreshold time.Duration
}

// LoadLoggerConfigFromEnv loads logger configuration from environment variables.
func LoadLoggerConfigFromEnv() LoggerConfig {
	return LoggerConfig{
		Level:              GetEnv("LOG_LEVEL", "info"),
		Format:             GetEnv("LOG_FORMAT", "json"),
		Output:             GetEnv("LOG_OUTPUT", "stdout"),
		SQLLevel:           GetEnv("LOG_SQL_LEVEL", "warn"),
		SlowQueryThreshold: GetEnvDuration("LOG_SQL_SLOW_THRESHOLD", 200*time.Millisecond),
	}
}

// Validate validates logger configuration.
func (c LoggerConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be: json, console)", c.Format)
	}

	validSQLLevels := map[string]bool{
		"silent": true,
		"error":  true,
		"warn":   true,
		"info":   true,
	}
	if !validSQLLevels[c.SQLLevel] {
		return fmt.Errorf("invalid SQL log level: %s (must be: silent, error, warn, info)", c.SQLLevel)
	}

	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("slow query threshold must not be negative")
	}

	return nil
}

// IsProduction returns true if logger is configured for production.
func (c LoggerConfig) IsProduction() bool {
	return c.Format == "json" && c.Level != "debug"
}
