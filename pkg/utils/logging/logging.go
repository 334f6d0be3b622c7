// Package logging provides the process-wide structured logger and
// context helpers for propagating request-scoped loggers.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
)

// Format is the output format of the logger
type Format string

const (
	// FormatConsole renders human-readable colored output
	FormatConsole Format = "console"
	// FormatJSON renders one JSON object per line
	FormatJSON Format = "json"
)

var (
	mu            sync.RWMutex
	defaultLogger = newLogger(os.Stdout, slog.LevelInfo, FormatConsole)
)

// Default returns the process-wide logger
func Default() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// New builds a logger writing to w. Fields tagged `masq:"secret"` (e.g.
// credential tokens) are redacted in both formats.
func New(w io.Writer, level slog.Level, format Format) (*slog.Logger, error) {
	switch format {
	case FormatConsole, FormatJSON:
		return newLogger(w, level, format), nil
	default:
		return nil, goerr.New("unknown log format", goerr.V("format", format))
	}
}

func newLogger(w io.Writer, level slog.Level, format Format) *slog.Logger {
	redact := masq.New(masq.WithTag("secret"))

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: redact,
		})
	} else {
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithSource(true),
			clog.WithReplaceAttr(redact),
		)
	}

	return slog.New(handler)
}

type ctxKey struct{}

// With stores a logger in the context
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From retrieves the logger from the context, falling back to Default
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}
