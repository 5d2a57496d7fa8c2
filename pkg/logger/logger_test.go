package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetLogger(t *testing.T) {
	t.Helper()
	log = zap.NewNop()
	once = sync.Once{}
	t.Cleanup(func() {
		log = zap.NewNop()
		once = sync.Once{}
	})
}

func TestCallsBeforeInitAreNoops(t *testing.T) {
	resetLogger(t)
	Info(context.Background(), "nothing")
	Error(nil, "nothing") //nolint:staticcheck
	require.NotNil(t, GetLogger())
}

func TestInitAndContextLogging(t *testing.T) {
	resetLogger(t)
	Init("development")
	require.NotNil(t, GetLogger())

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	Info(ctx, "info")
	Debug(ctx, "debug")
	Warn(ctx, "warn")
	Error(ctx, "error")
	LogRequest(ctx, "GET", "/health", 200, 10*time.Millisecond, "127.0.0.1")
	Sync()
}

func TestWithContext_AddsRequestID(t *testing.T) {
	resetLogger(t)
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))

	ctx := context.WithValue(context.Background(), RequestIDKey, "typed-req-id")
	Info(ctx, "hello")
	Info(context.Background(), "bare")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "typed-req-id", entries[0].ContextMap()["request_id"])
	_, ok := entries[1].ContextMap()["request_id"]
	assert.False(t, ok)
}

func TestRequestID_StringKey(t *testing.T) {
	//nolint:staticcheck
	ctx := context.WithValue(context.Background(), "request_id", "gin-req")
	assert.Equal(t, "gin-req", RequestID(ctx))
	assert.Equal(t, "", RequestID(nil)) //nolint:staticcheck
}

func TestSetLogger_NilFallsBackToNop(t *testing.T) {
	resetLogger(t)
	SetLogger(nil)
	require.NotNil(t, GetLogger())
}

func TestInit_PanicWhenLoggerBuildFails(t *testing.T) {
	resetLogger(t)
	origBuild := buildLogger
	t.Cleanup(func() { buildLogger = origBuild })

	buildLogger = func(zap.Config) (*zap.Logger, error) {
		return nil, errors.New("build failed")
	}

	assert.Panics(t, func() { Init("production") })
}
