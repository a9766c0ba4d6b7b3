// Package logger provides structured logging with context support.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appctx "tradedesk/internal/core/context"
)

// Logger is a sugared zap logger. Request-scoped fields are attached with For.
type Logger struct {
	*zap.SugaredLogger
}

// Config holds logger configuration.
type Config struct {
	// Level is debug, info, warn or error; anything else means info
	Level string
	// Development switches to a colored console encoder
	Development bool
	// Output defaults to stdout
	Output io.Writer
}

// New builds a logger writing one entry per line to cfg.Output.
func New(cfg Config) (*Logger, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	core := zapcore.NewCore(encoder(cfg.Development), zapcore.Lock(zapcore.AddSync(out)), parseLevel(cfg.Level))
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}
	return &Logger{zap.New(core, opts...).Sugar()}, nil
}

func parseLevel(s string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoder(development bool) zapcore.Encoder {
	if development {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return zapcore.NewJSONEncoder(ec)
}

// NewFromZap wraps an existing zap logger, such as an observer core in tests.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{z.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewFromZap(zap.NewNop())
}

var fallback = sync.OnceValue(func() *Logger {
	l, err := New(Config{Level: "info"})
	if err != nil {
		return Nop()
	}
	return l
})

// Default is the process-wide JSON logger used when a context carries none.
func Default() *Logger {
	return fallback()
}

// For returns l annotated with the trace and client of ctx.
func (l *Logger) For(ctx context.Context) *Logger {
	fields := requestFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return &Logger{l.SugaredLogger.With(fields...)}
}

func requestFields(ctx context.Context) []any {
	var fields []any
	if trace := appctx.GetTrace(ctx); trace != nil {
		fields = append(fields, "trace_id", trace.TraceID, "request_id", trace.RequestID)
	}
	if client := appctx.GetClientID(ctx); client != "" {
		fields = append(fields, "client_id", client)
	}
	return fields
}

// --- Context-bound logging ---

type ctxKey struct{}

// WithLogger stores l in ctx for the package-level functions.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or Default, annotated with
// the request fields of ctx.
func FromContext(ctx context.Context) *Logger {
	l, ok := ctx.Value(ctxKey{}).(*Logger)
	if !ok {
		l = Default()
	}
	return l.For(ctx)
}

// Info logs msg with key-value pairs through the logger of ctx.
func Info(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Infow(msg, kv...) }

// Warn logs at warn level through the logger of ctx.
func Warn(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Warnw(msg, kv...) }

// Error logs at error level through the logger of ctx.
func Error(ctx context.Context, msg string, kv ...any) { FromContext(ctx).Errorw(msg, kv...) }
