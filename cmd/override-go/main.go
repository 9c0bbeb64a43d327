package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/John-Robertt/override-go/internal/fetch"
	"github.com/John-Robertt/override-go/internal/httpapi"
	"github.com/John-Robertt/override-go/internal/logger"
	"github.com/John-Robertt/override-go/internal/profile"
	"github.com/John-Robertt/override-go/internal/service"
	"github.com/John-Robertt/override-go/internal/settings"
)

func main() {
	s, err := settings.Load(os.Args[1:], env.ToMap(os.Environ()), os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New("override-go", os.Stderr, s.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch s.Mode() {
	case settings.ModeHealthcheck:
		target := s.HealthcheckURL
		if target == "" {
			target, err = deriveHealthzURL(s.Listen)
		}
		if err == nil {
			err = runHealthcheck(target, s.HealthcheckTimeout)
		}
	case settings.ModeServe:
		err = serve(*s, log)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = runOnce(log.WithContext(ctx), *s, os.Stdin, os.Stdout)
		stop()
	}
	if err != nil {
		log.Error().Err(err).Str("mode", s.Mode()).Msg("exit with error")
		os.Exit(1)
	}
}

// runOnce transforms a single config and writes the result to s.Output.
func runOnce(ctx context.Context, s settings.Settings, stdin io.Reader, stdout io.Writer) error {
	req := service.Request{Strict: s.Strict}

	var err error
	req.ConfigURL, req.ConfigText, err = readSource(s.Input, stdin)
	if err != nil {
		return err
	}
	if s.Profile != "" {
		req.ProfileURL, req.ProfileText, err = readSource(s.Profile, nil)
		if err != nil {
			return err
		}
	}

	svc, err := service.New(profile.Default(), fetch.Options{
		Timeout: s.FetchTimeout,
		Retries: s.FetchRetries,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.OverrideTimeout)
	defer cancel()
	res, err := svc.Override(ctx, req)
	if err != nil {
		return err
	}

	l := logger.FromContext(ctx)
	for _, c := range res.Report.Conflicts {
		l.Warn().Str("name", c.Name).Str("stage", c.AppError.Stage).Msg(c.AppError.Message)
	}

	if s.Output == "" || s.Output == "-" {
		_, err = stdout.Write(res.YAML)
		return err
	}
	return os.WriteFile(s.Output, res.YAML, 0o644)
}

// readSource returns (label, text). Remote sources come back with an empty
// text so that the service fetches them.
func readSource(src string, stdin io.Reader) (string, string, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "-":
		if stdin == nil {
			return "", "", errors.New("stdin is already used for the base config")
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "", string(b), nil
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		return src, "", nil
	default:
		b, err := os.ReadFile(src)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", src, err)
		}
		return src, string(b), nil
	}
}

// loadServerProfile reads -profile once at startup. The result is the
// profile used by requests that name none; nil means the built-in one.
func loadServerProfile(ctx context.Context, s settings.Settings) (*profile.Spec, error) {
	if strings.TrimSpace(s.Profile) == "" {
		return nil, nil
	}
	label, text, err := readSource(s.Profile, nil)
	if err != nil {
		return nil, err
	}
	if text == "" {
		text, err = fetch.FetchTextWithOptions(ctx, fetch.KindProfile, label, fetch.Options{
			Timeout: s.FetchTimeout,
			Retries: s.FetchRetries,
		})
		if err != nil {
			return nil, err
		}
	}
	return profile.ParseProfileYAML(label, text)
}

func serve(s settings.Settings, log *logger.Logger) error {
	spec, err := loadServerProfile(log.WithContext(context.Background()), s)
	if err != nil {
		return err
	}
	if spec != nil {
		log.Info().Str("profile", s.Profile).Strs("regions", spec.RegionNames()).Msg("default profile loaded")
	}

	handler, err := httpapi.NewHandlerWithOptions(httpapi.Options{
		OverrideTimeout: s.OverrideTimeout,
		FetchTimeout:    s.FetchTimeout,
		FetchRetries:    s.FetchRetries,
		MaxBodyBytes:    s.MaxBodyBytes,
		Profile:         spec,
		Logger:          log,
	})
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              s.Listen,
		Handler:           handler,
		ReadHeaderTimeout: s.ReadHeaderTimeout,
	}

	log.Info().Str("listen", s.Listen).Msg("listening")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown failed")
			_ = srv.Close()
		}

		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// deriveHealthzURL turns a listen address into a probe URL. Wildcard hosts
// are probed on loopback.
func deriveHealthzURL(listen string) (string, error) {
	listen = strings.TrimSpace(listen)
	listen = strings.TrimPrefix(listen, "http://")
	listen = strings.TrimSuffix(listen, "/")
	if listen == "" {
		return "", errors.New("empty listen address")
	}
	if !strings.Contains(listen, ":") {
		listen = ":" + listen
	}

	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", listen, err)
	}
	if port == "" {
		return "", fmt.Errorf("invalid listen address %q: missing port", listen)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz", nil
}

func runHealthcheck(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("healthcheck %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck %s: unexpected status %d", url, resp.StatusCode)
	}
	return nil
}
