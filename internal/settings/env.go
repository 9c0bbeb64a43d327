package settings

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "OVERRIDE_"

// parseEnv reads OVERRIDE_* variables from environ. Unset variables leave
// the field at its zero value so the defaults layer shows through.
func parseEnv(environ map[string]string) (*Settings, error) {
	s := &Settings{}
	err := env.ParseWithOptions(s, env.Options{
		Environment: environ,
		Prefix:      envPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting env settings: %w", err)
	}
	return s, nil
}
