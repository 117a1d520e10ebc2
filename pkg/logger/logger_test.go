package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appConfig "github.com/festy23/datajpa/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("creates logger from environment", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "info")
		t.Setenv("LOG_FORMAT", "json")
		t.Setenv("LOG_OUTPUT", "stdout")

		logger, err := New()
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("creates development logger", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_FORMAT", "console")

		logger, err := New()
		require.NoError(t, err)
		require.NotNil(t, logger)
	})
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  appConfig.LoggerConfig
	}{
		{
			name: "production logger with info level",
			cfg:  appConfig.LoggerConfig{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name: "development logger with debug level",
			cfg:  appConfig.LoggerConfig{Level: "debug", Format: "console", Output: "stdout"},
		},
		{
			name: "stderr output",
			cfg:  appConfig.LoggerConfig{Level: "warn", Format: "json", Output: "stderr"},
		},
		{
			name: "empty output defaults to stdout",
			cfg:  appConfig.LoggerConfig{Level: "error", Format: "json"},
		},
		{
			name: "invalid level defaults to info",
			cfg:  appConfig.LoggerConfig{Level: "invalid-level", Format: "json", Output: "stdout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewWithConfig(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)

			logger.Infow("test with fields", "key", "value")
		})
	}
}

func TestNewWithConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewWithConfig(appConfig.LoggerConfig{
		Level:  "info",
		Format: "json",
		Output: path,
	})
	require.NoError(t, err)

	logger.Infow("member saved", "member_id", 1)
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"member saved"`)
	assert.Contains(t, string(data), `"member_id":1`)
}

func TestResolveOutput(t *testing.T) {
	out, err := resolveOutput("")
	require.NoError(t, err)
	assert.Equal(t, "stdout", out)

	out, err = resolveOutput("stderr")
	require.NoError(t, err)
	assert.Equal(t, "stderr", out)
}
