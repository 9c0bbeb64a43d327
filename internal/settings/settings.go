package settings

import "time"

const (
	ModeOnce        = "once"
	ModeServe       = "serve"
	ModeHealthcheck = "healthcheck"
)

type Settings struct {
	// One-shot mode. Input is a path, an http(s) URL or "-" for stdin.
	Input   string `env:"INPUT"`
	Output  string `env:"OUTPUT"`
	Profile string `env:"PROFILE"`
	Strict  bool   `env:"STRICT"`

	Serve             bool          `env:"SERVE"`
	Listen            string        `env:"LISTEN"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT"`
	OverrideTimeout   time.Duration `env:"OVERRIDE_TIMEOUT"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES"`

	FetchTimeout time.Duration `env:"FETCH_TIMEOUT"`
	FetchRetries int           `env:"FETCH_RETRIES"`

	Healthcheck        bool          `env:"HEALTHCHECK"`
	HealthcheckURL     string        `env:"HEALTHCHECK_URL"`
	HealthcheckTimeout time.Duration `env:"HEALTHCHECK_TIMEOUT"`

	LogLevel string `env:"LOG_LEVEL"`
}

// Defaults is the lowest settings layer.
func Defaults() Settings {
	return Settings{
		Output:             "-",
		Listen:             "127.0.0.1:25500",
		ReadHeaderTimeout:  5 * time.Second,
		OverrideTimeout:    60 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxBodyBytes:       5 << 20,
		FetchTimeout:       15 * time.Second,
		HealthcheckTimeout: 2 * time.Second,
		LogLevel:           "info",
	}
}

// Mode reports which of the three entry points the settings select.
func (s Settings) Mode() string {
	switch {
	case s.Healthcheck:
		return ModeHealthcheck
	case s.Serve:
		return ModeServe
	default:
		return ModeOnce
	}
}
