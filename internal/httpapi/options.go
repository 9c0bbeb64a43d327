package httpapi

import (
	"time"

	"github.com/John-Robertt/override-go/internal/logger"
	"github.com/John-Robertt/override-go/internal/profile"
)

// Options controls HTTP API runtime behavior.
type Options struct {
	// OverrideTimeout is the hard upper bound for a single request
	// (fetch + parse + transform + render).
	OverrideTimeout time.Duration

	// FetchTimeout is the per-HTTP-request timeout used when fetching remote
	// resources (base config/profile).
	FetchTimeout time.Duration
	FetchRetries int

	// MaxBodyBytes caps the POST /api/override body. Default 5 MiB.
	MaxBodyBytes int64

	// Profile is used when a request names no profile. Nil means
	// profile.Default().
	Profile *profile.Spec

	// Logger is the base logger; request loggers are derived from it.
	Logger *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.OverrideTimeout <= 0 {
		o.OverrideTimeout = 60 * time.Second
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 5 * 1024 * 1024
	}
	if o.Profile == nil {
		p := profile.Default()
		o.Profile = &p
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	return o
}
