package logger

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
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level), logs
}

func TestGormLogger_Trace(t *testing.T) {
	selectOrders := func() (string, int64) {
		return "SELECT * FROM orders WHERE external_reference = $1 FOR UPDATE", 1
	}

	t.Run("failed statement logs the sql and the error", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn)

		gl.Trace(context.Background(), time.Now(), selectOrders, errors.New("lock timeout"))

		entries := logs.FilterMessage("Query failed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Contains(t, fields["sql"], "FOR UPDATE")
		assert.Equal(t, "lock timeout", fields["error"])
	})

	t.Run("record not found stays quiet", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn)

		gl.Trace(context.Background(), time.Now(), selectOrders, gormlogger.ErrRecordNotFound)

		assert.Zero(t, logs.Len())
	})

	t.Run("slow statement logs at warn", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn)

		begin := time.Now().Add(-2 * slowQueryThreshold)
		gl.Trace(context.Background(), begin, selectOrders, nil)

		entries := logs.FilterMessage("Slow query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("statements carry the originating request id", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)

		ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-7")
		gl.Trace(ctx, time.Now(), selectOrders, nil)

		entries := logs.FilterMessage("Query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	})

	t.Run("silent level suppresses everything", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), selectOrders, errors.New("lock timeout"))

		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Silent)

	verbose, ok := gl.LogMode(gormlogger.Info).(*GormLogger)
	require.True(t, ok)
	verbose.Info(context.Background(), "migrating %s", "orders")

	assert.Equal(t, gormlogger.Silent, gl.level, "original logger keeps its level")
	assert.Equal(t, 1, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
