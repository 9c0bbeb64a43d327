package httpapi

import (
	"net/http"

	"github.com/John-Robertt/override-go/internal/fetch"
	"github.com/John-Robertt/override-go/internal/service"
)

func NewMux() *http.ServeMux {
	mux, err := NewMuxWithOptions(Options{})
	if err != nil {
		// The built-in profile always validates.
		panic(err)
	}
	return mux
}

func NewMuxWithOptions(opt Options) (*http.ServeMux, error) {
	opt = opt.withDefaults()
	svc, err := service.New(*opt.Profile, fetch.Options{
		Timeout: opt.FetchTimeout,
		Retries: opt.FetchRetries,
	})
	if err != nil {
		return nil, err
	}
	h := overrideHandler{opt: opt, svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /metrics", handleMetrics)
	mux.HandleFunc("GET /override", h.handleGet)
	mux.HandleFunc("POST /api/override", h.handlePost)
	return mux, nil
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteText(w, http.StatusOK, "ok\n")
}
