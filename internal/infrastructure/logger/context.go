package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	loggerCtxKey    struct{}
	requestIDCtxKey struct{}
	ownerIDCtxKey   struct{}
)

// WithContext stores logger in ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a nop logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID records the request ID in ctx and also returns logger
// tagged with it. The logger stored in ctx stays untagged; L(ctx) adds the
// field at write time.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDCtxKey{}, requestID)
	return WithContext(ctx, logger), logger.With(zap.String("request_id", requestID))
}

// WithOwnerID records the authenticated contractor account in ctx
func WithOwnerID(ctx context.Context, logger *zap.Logger, ownerID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, ownerIDCtxKey{}, ownerID)
	return WithContext(ctx, logger), logger.With(zap.String("owner_id", ownerID))
}

// GetRequestID returns the request ID in ctx, if any
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

// GetOwnerID returns the owner ID in ctx, if any
func GetOwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerIDCtxKey{}).(string)
	return id
}

// Fields returns the correlation fields carried by ctx: trace_id and span_id
// from the active span, then request_id and owner_id. Absent values are
// skipped.
func Fields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetOwnerID(ctx); id != "" {
		fields = append(fields, zap.String("owner_id", id))
	}
	return fields
}

// ContextLogger writes through a zap logger and stamps every entry with
// the correlation fields of its context.
//
//	logger.L(ctx).Info("invoice created", zap.String("number", n))
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger over the logger stored in ctx
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger returns a ContextLogger over a logger the caller already holds,
// typically a service's injected logger
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: logger}
}

func (cl *ContextLogger) base() *zap.Logger {
	if cl.logger == nil {
		return zap.NewNop()
	}
	return cl.logger
}

// With returns a child ContextLogger carrying extra fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, logger: cl.base().With(fields...)}
}

// Zap returns a plain zap logger with the correlation fields attached
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.base().With(Fields(cl.ctx)...)
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }
