package gormzap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newObserved(level gormlogger.LogLevel, slow time.Duration) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New(zap.New(core).Sugar(), level, slow), logs
}

func statement() (string, int64) {
	return "SELECT * FROM members", 2
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    gormlogger.LogLevel
		wantErr bool
	}{
		{input: "silent", want: gormlogger.Silent},
		{input: "error", want: gormlogger.Error},
		{input: "warn", want: gormlogger.Warn},
		{input: "", want: gormlogger.Warn},
		{input: "info", want: gormlogger.Info},
		{input: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrace(t *testing.T) {
	ctx := context.Background()

	t.Run("failed statement logged as error", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Warn, 0)
		l.Trace(ctx, time.Now(), statement, errors.New("boom"))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "SQL failed", entry.Message)
		assert.Equal(t, "SELECT * FROM members", entry.ContextMap()["sql"])
		assert.Equal(t, "gorm", entry.LoggerName)
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Warn, 0)
		l.Trace(ctx, time.Now(), statement, gorm.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("slow statement logged as warning", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Warn, time.Millisecond)
		l.Trace(ctx, time.Now().Add(-time.Second), statement, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
		assert.Equal(t, "slow SQL", logs.All()[0].Message)
	})

	t.Run("info level logs every statement at debug", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Info, 0)
		l.Trace(ctx, time.Now(), statement, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
		assert.EqualValues(t, 2, logs.All()[0].ContextMap()["rows"])
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		l, logs := newObserved(gormlogger.Silent, time.Millisecond)
		l.Trace(ctx, time.Now().Add(-time.Second), statement, errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})
}

func TestLogMode(t *testing.T) {
	l, logs := newObserved(gormlogger.Silent, 0)
	louder := l.LogMode(gormlogger.Info)

	louder.Info(context.Background(), "migrated %d tables", 2)
	l.Info(context.Background(), "dropped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "migrated 2 tables", logs.All()[0].Message)
}
