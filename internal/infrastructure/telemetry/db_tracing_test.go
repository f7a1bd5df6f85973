package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedSetting struct {
	Key   string `gorm:"primaryKey;size:100"`
	Value string `gorm:"size:500"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&tracedSetting{}))
	return db
}

func setupRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, recorder
}

func spanAttrs(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgres", cfg.DBSystem)
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, nil)

	assert.NotNil(t, plugin.logger)
	assert.Equal(t, 200*time.Millisecond, plugin.config.SlowQueryThresh)
}

func TestDBTracingPlugin_Register_Disabled(t *testing.T) {
	db := setupTestDB(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	require.NoError(t, plugin.Register(db))
	assert.Nil(t, db.Callback().Query().Get("qclens_slow_query:query"))
}

func TestDBTracingPlugin_Register_Enabled(t *testing.T) {
	db := setupTestDB(t)
	tp, recorder := setupRecorder(t)

	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:        true,
		DBSystem:       "sqlite",
		TracerProvider: tp,
	}, zap.NewNop())
	require.NoError(t, plugin.Register(db))
	assert.NotNil(t, db.Callback().Query().Get("qclens_slow_query:query"))

	ctx, span := tp.Tracer("test").Start(context.Background(), "settings-load")
	require.NoError(t, db.WithContext(ctx).Create(&tracedSetting{Key: "rapidapi_key", Value: "k"}).Error)
	var rows []tracedSetting
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	span.End()

	assert.Len(t, rows, 1)
	// parent span plus one span per statement
	assert.GreaterOrEqual(t, len(recorder.Ended()), 3)
}

func TestDBTracingPlugin_Register_Twice(t *testing.T) {
	db := setupTestDB(t)
	tp, _ := setupRecorder(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, TracerProvider: tp}, zap.NewNop())

	require.NoError(t, plugin.Register(db))
	assert.Error(t, plugin.Register(db))
}

func TestDBTracingPlugin_AfterQuery(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		dbErr     error
		slow      bool
		errStatus bool
	}{
		{name: "fast query", threshold: time.Hour},
		{name: "slow query", threshold: time.Nanosecond, slow: true},
		{name: "failed query", threshold: time.Hour, dbErr: errors.New("disk I/O error"), errStatus: true},
		{name: "record not found is not an error", threshold: time.Hour, dbErr: gorm.ErrRecordNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, recorder := setupRecorder(t)
			plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: tt.threshold}, zap.NewNop())

			ctx, span := tp.Tracer("test").Start(context.Background(), "query")
			ctx = WithQueryStartTime(ctx)
			time.Sleep(time.Millisecond)

			db := setupTestDB(t).WithContext(ctx)
			db.Statement.Table = "settings"
			db.Statement.RowsAffected = 2
			db.Error = tt.dbErr

			plugin.afterQuery(db)
			span.End()

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			attrs := spanAttrs(spans[0].Attributes())

			assert.Equal(t, "settings", attrs["db.sql.table"].AsString())
			assert.Equal(t, int64(2), attrs["db.rows_affected"].AsInt64())

			_, slow := attrs["db.slow_query"]
			assert.Equal(t, tt.slow, slow)

			if tt.errStatus {
				assert.Equal(t, codes.Error, spans[0].Status().Code)
			} else {
				assert.NotEqual(t, codes.Error, spans[0].Status().Code)
			}
		})
	}
}

func TestDBTracingPlugin_AfterQuery_NotRecording(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	db := setupTestDB(t).WithContext(context.Background())

	assert.NotPanics(t, func() { plugin.afterQuery(db) })
}
