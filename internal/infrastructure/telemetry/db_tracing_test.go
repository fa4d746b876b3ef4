package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRegisterDBTracing(t *testing.T) {
	t.Run("disabled registers nothing", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}))
		_, ok := db.Config.Plugins["otelgorm"]
		assert.False(t, ok)
	})

	t.Run("enabled records a span per statement", func(t *testing.T) {
		rec := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
		t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

		db := openTestDB(t)
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
			Enabled:  true,
			DBSystem: "sqlite",
			Provider: tp,
		}))

		var n int
		require.NoError(t, db.WithContext(context.Background()).Raw("SELECT 1").Scan(&n).Error)
		assert.Equal(t, 1, n)
		assert.NotEmpty(t, rec.Ended())
	})
}
