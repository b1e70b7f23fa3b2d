// Package log carries a slog.Logger through contexts so request and run
// attributes follow every record.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/levenlabs/go-llog"
)

type contextKey struct{}

var loggerKey = contextKey{}

// Ctx returns the logger from the context. If no logger is found, it
// returns slog.Default().
func Ctx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// With returns a new context with the given logger.
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithAttrs returns a new context whose logger carries attrs on every
// record.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return With(ctx, Ctx(ctx).With(args...))
}

// FromLLog maps the level lflag parsed into llog onto slog.
func FromLLog(l llog.Level) (slog.Level, error) {
	switch l {
	case llog.DebugLevel:
		return slog.LevelDebug, nil
	case llog.InfoLevel:
		return slog.LevelInfo, nil
	case llog.WarnLevel:
		return slog.LevelWarn, nil
	case llog.ErrorLevel:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", l.String())
	}
}

// Setup installs the default slog logger at the llog level. It must run
// after lflag.Configure. The server logs JSON; the CLI logs text so its
// tables stay readable.
func Setup(w io.Writer, json bool) {
	level, err := FromLLog(llog.GetLevel())
	if err != nil {
		panic(err)
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(w, opts)
	if json {
		opts.AddSource = true
		h = slog.NewJSONHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
	slog.Debug("logger configured", slog.String("level", level.String()))
}
