package settings

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

func (s *Settings) validate() error {
	if s.Serve && s.Healthcheck {
		return ErrConflictingModes
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s.LogLevel))); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogSettings, err)
	}
	if s.FetchTimeout <= 0 || s.FetchRetries < 0 {
		return ErrInvalidFetchSettings
	}

	switch s.Mode() {
	case ModeServe:
		if strings.TrimSpace(s.Listen) == "" || s.ReadHeaderTimeout <= 0 || s.OverrideTimeout <= 0 ||
			s.ShutdownTimeout <= 0 || s.MaxBodyBytes <= 0 {
			return ErrInvalidServerSettings
		}
	case ModeHealthcheck:
		if s.HealthcheckTimeout <= 0 {
			return ErrInvalidServerSettings
		}
		if s.HealthcheckURL == "" && strings.TrimSpace(s.Listen) == "" {
			return ErrInvalidServerSettings
		}
	default:
		if strings.TrimSpace(s.Input) == "" {
			return fmt.Errorf("%w: -in is required", ErrInvalidInputSettings)
		}
	}
	return nil
}
