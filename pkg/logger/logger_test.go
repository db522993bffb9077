package logger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel(" warning "))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew_WithoutSentry(t *testing.T) {
	log, err := New(Options{Service: "checkout-gateway", Env: "prod", Level: "info"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidSentryDSN(t *testing.T) {
	_, err := New(Options{Env: "prod", SentryDSN: "not a dsn"})
	assert.Error(t, err)
}

func TestWithTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	WithTrace(context.Background(), log).Info("no span")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	WithTrace(ctx, log).Info("with span")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0].ContextMap(), "trace_id")
	assert.Equal(t, sc.TraceID().String(), entries[1].ContextMap()["trace_id"])
	assert.Equal(t, sc.SpanID().String(), entries[1].ContextMap()["span_id"])
}

func TestSentryCore_SendsErrorsOnly(t *testing.T) {
	var mu sync.Mutex
	var sent []*sentry.Event
	core, err := newSentryCore(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			sent = append(sent, event)
			mu.Unlock()
			return nil
		},
	}, zapcore.ErrorLevel)
	require.NoError(t, err)

	log := zap.New(core).With(zap.String("request_id", "req-1"))
	log.Info("ignored")
	log.Error("checkout failed", zap.Error(errors.New("stripe down")))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Equal(t, "checkout failed", sent[0].Message)
	assert.Equal(t, sentry.LevelError, sent[0].Level)
	assert.Equal(t, "req-1", sent[0].Tags["request_id"])
	require.Len(t, sent[0].Exception, 1)
	assert.Equal(t, "stripe down", sent[0].Exception[0].Value)
}
