package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func settingsQuery() (string, int64) {
	return `SELECT * FROM "settings"`, 3
}

func fieldMap(entry observer.LoggedEntry) map[string]any {
	return entry.ContextMap()
}

func TestNewGormLogger_Options(t *testing.T) {
	gormLog := NewGormLogger(zap.NewNop(), gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithDriver("sqlite"),
	)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.Equal(t, "sqlite", gormLog.driver)
	assert.False(t, gormLog.logValues)

	var _ gormlogger.Interface = gormLog
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog := NewGormLogger(zap.NewNop(), gormlogger.Info)
	changed, ok := gormLog.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Warn)

	gormLog.Info(context.Background(), "suppressed %d", 1)
	gormLog.Warn(context.Background(), "warn %s", "x")
	gormLog.Error(context.Background(), "error %s", "y")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warn x", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "error y", logs[1].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		elapsed   time.Duration
		err       error
		wantLevel zapcore.Level
		wantMsg   string
		wantNone  bool
	}{
		{name: "error", level: gormlogger.Error, err: errors.New("boom"), wantLevel: zapcore.ErrorLevel, wantMsg: "Settings query failed"},
		{name: "record not found ignored", level: gormlogger.Error, err: gormlogger.ErrRecordNotFound, wantNone: true},
		{name: "slow query", level: gormlogger.Warn, elapsed: time.Second, wantLevel: zapcore.WarnLevel, wantMsg: "Slow settings query"},
		{name: "normal query at info", level: gormlogger.Info, wantLevel: zapcore.DebugLevel, wantMsg: "Settings query"},
		{name: "normal query at warn", level: gormlogger.Warn, wantNone: true},
		{name: "silent", level: gormlogger.Silent, err: errors.New("boom"), wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			gormLog := NewGormLogger(zap.New(core), tt.level)

			gormLog.Trace(context.Background(), time.Now().Add(-tt.elapsed), settingsQuery, tt.err)

			if tt.wantNone {
				assert.Empty(t, recorded.All())
				return
			}
			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantLevel, logs[0].Level)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, `SELECT * FROM "settings"`, fieldMap(logs[0])["sql"])
			assert.Equal(t, int64(3), fieldMap(logs[0])["rows"])
		})
	}
}

func TestGormLogger_Trace_CorrelationFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Info)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-7")
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	gormLog.Trace(ctx, time.Now(), settingsQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := fieldMap(logs[0])
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", fields["trace_id"])
}

func TestGormLogger_Trace_SettingKeyAndDriver(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gormLog := NewGormLogger(zap.New(core), gormlogger.Info, WithDriver("postgres"))

	gormLog.Trace(WithSettingKey(context.Background(), "rapidapi_key"), time.Now(), settingsQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := fieldMap(logs[0])
	assert.Equal(t, "postgres", fields["db_driver"])
	assert.Equal(t, "rapidapi_key", fields["setting_key"])
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	const sql = `INSERT INTO "settings" ("key","value") VALUES ($1,$2)`

	t.Run("values withheld by default", func(t *testing.T) {
		gormLog := NewGormLogger(zap.NewNop(), gormlogger.Info)
		gotSQL, params := gormLog.ParamsFilter(context.Background(), sql, "secret_key", "s3cr3t")
		assert.Equal(t, sql, gotSQL)
		assert.Empty(t, params)
	})

	t.Run("values kept when enabled", func(t *testing.T) {
		gormLog := NewGormLogger(zap.NewNop(), gormlogger.Info, WithQueryValues(true))
		_, params := gormLog.ParamsFilter(context.Background(), sql, "secret_key", "s3cr3t")
		assert.Equal(t, []any{"secret_key", "s3cr3t"}, params)
	})
}

func TestGetSettingKey(t *testing.T) {
	assert.Empty(t, GetSettingKey(context.Background()))
	assert.Equal(t, "ref_code_cnfans", GetSettingKey(WithSettingKey(context.Background(), "ref_code_cnfans")))
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Warn},
		{"DEBUG", gormlogger.Info},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
