// Package logger wraps zerolog.Logger with the constructors and context
// helpers used by the CLI, the override pipeline and the HTTP layer.
package logger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger embeds zerolog.Logger so the full zerolog API is available directly.
type Logger struct {
	zerolog.Logger
}

// New builds a JSON logger writing to w. Every entry carries a "role" field,
// a timestamp and a "func" caller field holding the function name.
//
// level accepts zerolog level names ("debug", "info", "warn"...). An empty
// level means "info".
func New(role string, w io.Writer, level string) (*Logger, error) {
	lvl := zerolog.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"

	l := zerolog.New(w).Level(lvl).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{l}, nil
}

// Nop returns a logger that discards everything. Used by tests and as the
// default when a component is built without a logger.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a copy that can be enriched without touching the
// receiver.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// FromContext returns the logger attached with zerolog's WithContext. When
// none is attached zerolog falls back to its default logger (disabled unless
// configured), so the result is never nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}

func FromRequest(r *http.Request) *Logger {
	return FromContext(r.Context())
}
