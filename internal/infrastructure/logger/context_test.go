package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	l, _ := observed()

	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	assert.NotNil(t, FromContext(context.Background()), "missing logger falls back to nop")

	assert.NotNil(t, FromContext(WithContext(context.Background(), nil)), "nil logger falls back to nop")
}

func TestWithRequestIDAndOwnerID(t *testing.T) {
	base, recorded := observed()

	ctx, reqLogger := WithRequestID(context.Background(), base, "req-123")
	ctx, ownerLogger := WithOwnerID(ctx, base, "7d0c1d1e-0000-4000-8000-000000000001")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, "7d0c1d1e-0000-4000-8000-000000000001", GetOwnerID(ctx))

	reqLogger.Info("a")
	ownerLogger.Info("b")
	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "7d0c1d1e-0000-4000-8000-000000000001", entries[1].ContextMap()["owner_id"])
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetOwnerID(ctx))
	assert.Empty(t, Fields(ctx))
}

func TestFields(t *testing.T) {
	ctx := spanContext(t)
	ctx, _ = WithOwnerID(ctx, zap.NewNop(), "owner-3")

	fields := Fields(ctx)
	require.Len(t, fields, 3)
	assert.Equal(t, "trace_id", fields[0].Key)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields[0].String)
	assert.Equal(t, "span_id", fields[1].Key)
	assert.Equal(t, "00f067aa0ba902b7", fields[1].String)
	assert.Equal(t, "owner_id", fields[2].Key)
}

func TestL_EnrichesEachEntry(t *testing.T) {
	base, recorded := observed()

	ctx := WithContext(spanContext(t), base)
	ctx, _ = WithRequestID(ctx, base, "req-9")
	ctx, _ = WithOwnerID(ctx, base, "owner-1")

	L(ctx).Warn("total mismatch", zap.String("document_id", "inv-1"))

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "owner-1", fields["owner_id"])
	assert.Equal(t, "inv-1", fields["document_id"])
	assert.NotEmpty(t, fields["trace_id"])

	keys := 0
	for _, f := range entries[0].Context {
		if f.Key == "request_id" {
			keys++
		}
	}
	assert.Equal(t, 1, keys, "request_id is written once")
}

func TestContextLogger_Levels(t *testing.T) {
	base, recorded := observed()
	cl := WithLogger(context.Background(), base).With(zap.String("component", "conversion"))

	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")
	cl.Zap().Info("z")

	entries := recorded.All()
	require.Len(t, entries, 5)
	for _, e := range entries {
		assert.Equal(t, "conversion", e.ContextMap()["component"])
	}
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() { cl.Info("nothing") })
}
