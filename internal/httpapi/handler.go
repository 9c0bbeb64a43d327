package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/override-go/internal/logger"
)

const traceIDHeader = "X-Trace-ID"

// NewHandler returns the production handler (mux + trace id + observability
// middleware) with default options.
//
// Tests can still use NewMux directly to avoid the middleware.
func NewHandler() http.Handler {
	h, err := NewHandlerWithOptions(Options{})
	if err != nil {
		panic(err)
	}
	return h
}

func NewHandlerWithOptions(opt Options) (http.Handler, error) {
	opt = opt.withDefaults()
	mux, err := NewMuxWithOptions(opt)
	if err != nil {
		return nil, err
	}
	return withTraceID(opt.Logger, withObservability(mux)), nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// withTraceID reuses the caller's X-Trace-ID or generates one, echoes it and
// attaches a child logger carrying it to the request context.
func withTraceID(base *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		l := base.GetChildLogger()
		l.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("trace_id", traceID)
		})
		r = r.WithContext(l.WithContext(r.Context()))

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r)
	})
}

func withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		pattern := r.Pattern
		if pattern == "" {
			// Keep it low-cardinality; avoid logging/querying RawQuery because it may contain secrets.
			pattern = r.Method + " " + r.URL.Path
		}

		metricsIncRequest(pattern, status)

		// Never log the query string.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" {
			logger.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("pattern", pattern).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Int("size", sw.bytes).
				Send()
		}
	})
}
