package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartServiceSpan(t *testing.T) {
	recorder := withRecorder(t)
	ownerID := uuid.New()

	ctx, span := StartServiceSpan(context.Background(), "estimate", "convert",
		SpanAttrOwnerID, ownerID,
		SpanAttrBillingType, "progress",
		42, "ignored key",
	)
	assert.NotEmpty(t, TraceID(ctx))
	AddEvent(span, "idempotent_replay", SpanAttrNumber, "INV-202503-001")
	RecordError(span, errors.New("boom"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "estimate.convert", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)

	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, ownerID.String(), attrs[SpanAttrOwnerID])
	assert.Equal(t, "progress", attrs[SpanAttrBillingType])
	assert.Len(t, attrs, 2)

	require.Len(t, s.Events(), 2) // the event plus the recorded error
	assert.Equal(t, "idempotent_replay", s.Events()[0].Name)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
	RecordError(nil, errors.New("ignored"))
	SetAttributes(nil, "k", "v")
}
