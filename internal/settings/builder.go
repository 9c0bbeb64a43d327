package settings

import (
	"errors"
	"fmt"
	"io"

	"dario.cat/mergo"
)

type builder struct {
	layers []*Settings
	err    error
}

func newBuilder() *builder {
	return &builder{layers: make([]*Settings, 0, 3)}
}

// build merges the layers in the order they were added; earlier layers win.
func (b *builder) build() (*Settings, error) {
	if b.err != nil {
		return nil, fmt.Errorf("error occurred during building settings: %w", b.err)
	}

	out := new(Settings)
	for _, l := range b.layers {
		if err := mergo.Merge(out, l); err != nil {
			return nil, fmt.Errorf("error merging settings: %w", err)
		}
	}
	return out, out.validate()
}

func (b *builder) withFlags(args []string, output io.Writer) *builder {
	s, err := parseFlags(args, output)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.layers = append(b.layers, s)
	return b
}

func (b *builder) withEnv(environ map[string]string) *builder {
	s, err := parseEnv(environ)
	if err != nil {
		b.err = errors.Join(b.err, err)
		return b
	}
	b.layers = append(b.layers, s)
	return b
}

func (b *builder) withDefaults() *builder {
	d := Defaults()
	b.layers = append(b.layers, &d)
	return b
}

// Load builds the settings for one process run. Usage and flag errors are
// written to output; flag.ErrHelp is returned wrapped when -h is given.
func Load(args []string, environ map[string]string, output io.Writer) (*Settings, error) {
	return newBuilder().
		withFlags(args, output).
		withEnv(environ).
		withDefaults().
		build()
}
