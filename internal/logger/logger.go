// Package logger provides the process-wide structured logger. Loggers
// travel in contexts so request-scoped fields (request ID, ticker) follow
// the call chain, and trace/span IDs are attached when a span is active.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seenimoa/ratiobench/internal/telemetry"
)

// Config holds logging configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

type ctxKey struct{}

// New builds a zap logger writing to stderr.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "", "text", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller()), nil
}

// Init builds a logger from cfg and installs it as the global logger.
func Init(cfg Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	SetGlobal(l)
	return nil
}

// SetGlobal replaces the global logger.
func SetGlobal(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

// L returns the global logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns a copy of ctx whose logger carries the extra fields.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return WithContext(ctx, FromContext(ctx).With(fields...))
}

// FromContext returns the logger stored in ctx, falling back to the global
// logger, with trace and span IDs attached when ctx holds a valid span.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	if !ok || l == nil {
		l = L()
	}
	if traceID, spanID, ok := telemetry.TraceFields(ctx); ok {
		l = l.With(zap.String("trace_id", traceID), zap.String("span_id", spanID))
	}
	return l
}

// OperationTimer measures one operation and closes its span.
type OperationTimer struct {
	ctx   context.Context
	span  trace.Span
	name  string
	start time.Time
}

// StartOperation opens a span for name and returns a timer whose context
// carries it.
func StartOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) *OperationTimer {
	ctx, span := telemetry.StartSpan(ctx, name, attrs...)
	FromContext(ctx).Debug("operation started", zap.String("operation", name))
	return &OperationTimer{ctx: ctx, span: span, name: name, start: time.Now()}
}

// Context returns the context carrying the operation span.
func (ot *OperationTimer) Context() context.Context { return ot.ctx }

// End closes the span and logs the duration. A non-nil err is recorded on
// the span and logged at warn level.
func (ot *OperationTimer) End(err error, fields ...zap.Field) {
	d := time.Since(ot.start)
	ot.span.SetAttributes(attribute.Int64("duration_ms", d.Milliseconds()))
	telemetry.EndSpan(ot.span, err)

	fields = append(fields, zap.String("operation", ot.name), zap.Duration("duration", d))
	l := FromContext(ot.ctx)
	if err != nil {
		l.Warn("operation failed", append(fields, zap.Error(err))...)
		return
	}
	l.Debug("operation completed", fields...)
}
