// Package service runs one override request end to end: obtain the base
// config and profile, transform, render.
package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/override-go/internal/document"
	"github.com/John-Robertt/override-go/internal/fetch"
	"github.com/John-Robertt/override-go/internal/logger"
	"github.com/John-Robertt/override-go/internal/override"
	"github.com/John-Robertt/override-go/internal/profile"
)

// Request names the inputs of one run. Inline text wins over the URL; the
// URL is then only used to label errors.
type Request struct {
	ConfigURL  string
	ConfigText string

	ProfileURL  string
	ProfileText string

	// Strict forces strict mode even when the profile does not ask for it.
	Strict bool
}

type Result struct {
	YAML   []byte
	Report *override.Report
}

type Service struct {
	defaults profile.Spec
	fetchOpt fetch.Options
}

// New returns a Service that falls back to defaults when a request carries no
// profile.
func New(defaults profile.Spec, fetchOpt fetch.Options) (*Service, error) {
	if err := profile.Validate(defaults); err != nil {
		return nil, err
	}
	return &Service{defaults: defaults, fetchOpt: fetchOpt}, nil
}

// Override fetches whatever the request references (config and profile in
// parallel), applies the pipeline and renders the result into the original
// document.
func (s *Service) Override(ctx context.Context, req Request) (*Result, error) {
	log := logger.FromContext(ctx)

	var (
		doc  *document.Document
		spec profile.Spec
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.text(gctx, fetch.KindConfig, req.ConfigURL, req.ConfigText)
		if err != nil {
			return err
		}
		doc, err = document.Decode(req.ConfigURL, text)
		return err
	})
	g.Go(func() error {
		var err error
		spec, err = s.profile(gctx, req)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if req.Strict {
		spec.Strict = true
	}

	cfg, report, err := override.Apply(doc.Config, spec, override.WithLogger(log))
	if err != nil {
		return nil, err
	}
	out, err := doc.Render(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("proxies", len(cfg.Proxies)).
		Int("groups", len(cfg.ProxyGroups)).
		Strs("created", report.CreatedGroups).
		Int("conflicts", len(report.Conflicts)).
		Msg("override done")
	return &Result{YAML: out, Report: report}, nil
}

func (s *Service) text(ctx context.Context, kind fetch.Kind, rawURL, inline string) (string, error) {
	if inline != "" || strings.TrimSpace(rawURL) == "" {
		return inline, nil
	}
	return fetch.FetchTextWithOptions(ctx, kind, strings.TrimSpace(rawURL), s.fetchOpt)
}

func (s *Service) profile(ctx context.Context, req Request) (profile.Spec, error) {
	if req.ProfileText == "" && strings.TrimSpace(req.ProfileURL) == "" {
		return s.defaults, nil
	}
	text, err := s.text(ctx, fetch.KindProfile, req.ProfileURL, req.ProfileText)
	if err != nil {
		return profile.Spec{}, err
	}
	spec, err := profile.ParseProfileYAML(req.ProfileURL, text)
	if err != nil {
		return profile.Spec{}, err
	}
	return *spec, nil
}
