package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func query(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("logs errors", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, 200*time.Millisecond)

		gl.Trace(ctx, time.Now(), query("SELECT 1"), errors.New("boom"))
		entries := recorded.FilterMessage("SQL error").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	})

	t.Run("skips record not found", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, 200*time.Millisecond)

		gl.Trace(ctx, time.Now(), query("SELECT 1"), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, recorded.Len())
	})

	t.Run("warns on slow query", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, time.Millisecond)

		gl.Trace(ctx, time.Now().Add(-time.Second), query("SELECT pg_sleep(1)"), nil)
		assert.Equal(t, 1, recorded.FilterMessage("Slow SQL").Len())
	})

	t.Run("query logged only at info", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Warn, 0)

		gl.Trace(ctx, time.Now(), query("SELECT 1"), nil)
		assert.Equal(t, 0, recorded.Len())

		gl.LogMode(gormlogger.Info).Trace(ctx, time.Now(), query("SELECT 1"), nil)
		assert.Equal(t, 1, recorded.FilterMessage("SQL query").Len())
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Silent, 0)

		gl.Trace(ctx, time.Now(), query("SELECT 1"), errors.New("boom"))
		assert.Equal(t, 0, recorded.Len())
	})

	t.Run("carries request id", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Error, 0)

		gl.Trace(WithRequestID(ctx, "req-9"), time.Now(), query("SELECT 1"), errors.New("boom"))
		assert.Equal(t, "req-9", recorded.All()[0].ContextMap()["request_id"])
	})
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, GormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, GormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, GormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, GormLogLevel("info"))
}
