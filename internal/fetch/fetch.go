// Package fetch downloads the remote inputs of an override run: base
// configurations and override profiles.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"

	"github.com/John-Robertt/override-go/internal/logger"
	"github.com/John-Robertt/override-go/internal/model"
)

type Kind int

const (
	KindConfig Kind = iota
	KindProfile
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindProfile:
		return "profile"
	default:
		return "unknown"
	}
}

func (k Kind) stage() string {
	switch k {
	case KindConfig:
		return "fetch_config"
	case KindProfile:
		return "fetch_profile"
	default:
		return "fetch"
	}
}

func (k Kind) defaultMaxBytes() int64 {
	switch k {
	case KindConfig:
		return 5 * 1024 * 1024
	default:
		return 1 * 1024 * 1024
	}
}

// DefaultUserAgent makes subscription servers answer with a Clash/mihomo
// YAML document instead of a plain node list.
const DefaultUserAgent = "clash.meta"

type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default per kind
	MaxRedirects int           // default 5
	UserAgent    string        // default DefaultUserAgent

	// Retries is the number of extra attempts after a temporary failure
	// (connection error or upstream 5xx). Zero disables retrying.
	Retries   int
	RetryBase time.Duration // first backoff step, default 200ms

	// Transport replaces http.DefaultTransport.
	Transport http.RoundTripper
}

type FetchError struct {
	Status   int
	AppError model.AppError
	Cause    error

	temporary bool
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

func FetchText(ctx context.Context, kind Kind, rawURL string) (string, error) {
	return FetchTextWithOptions(ctx, kind, rawURL, Options{})
}

// FetchTextWithOptions GETs rawURL and returns the body as text. The body must
// be valid UTF-8 and no larger than the size cap. Upstream 5xx answers and
// connection failures are retried when opt.Retries > 0.
func FetchTextWithOptions(ctx context.Context, kind Kind, rawURL string, opt Options) (string, error) {
	f := fetcher{kind: kind, rawURL: rawURL}

	timeout := opt.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxRedirects := opt.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = 5
	}
	f.maxRedirects = maxRedirects
	f.maxBytes = opt.MaxBytes
	if f.maxBytes == 0 {
		f.maxBytes = kind.defaultMaxBytes()
	}
	if f.maxBytes <= 0 {
		return "", f.fail(http.StatusBadRequest, "INVALID_ARGUMENT", "响应大小上限必须大于 0", nil)
	}
	f.userAgent = opt.UserAgent
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	transport := opt.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", f.fail(http.StatusBadRequest, "INVALID_ARGUMENT", "仅允许 http/https URL", errors.Join(errInvalidURLOrScheme, err))
	}

	f.client = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// 1st redirect => len(via)==1.
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			return nil
		},
	}

	if opt.Retries <= 0 {
		return f.once(ctx)
	}

	base := opt.RetryBase
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	var (
		body string
		last error
	)
	backoff := retry.WithMaxRetries(uint64(opt.Retries), retry.NewExponential(base))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		text, err := f.once(ctx)
		if err == nil {
			body = text
			return nil
		}
		last = err
		var fe *FetchError
		if errors.As(err, &fe) && fe.temporary {
			logger.FromContext(ctx).Debug().Err(err).Str("url", rawURL).Msg("retrying fetch")
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		// Cancellation while waiting for the next attempt: report the last
		// real failure.
		if last != nil {
			return "", last
		}
		return "", err
	}
	return body, nil
}

type fetcher struct {
	kind         Kind
	rawURL       string
	client       *http.Client
	userAgent    string
	maxBytes     int64
	maxRedirects int
}

func (f fetcher) fail(status int, code, msg string, cause error) *FetchError {
	return &FetchError{
		Status: status,
		AppError: model.AppError{
			Code:    code,
			Message: msg,
			Stage:   f.kind.stage(),
			URL:     f.rawURL,
		},
		Cause: cause,
	}
}

func (f fetcher) temporary(status int, code, msg string, cause error) *FetchError {
	fe := f.fail(status, code, msg, cause)
	fe.temporary = true
	return fe
}

func (f fetcher) once(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.rawURL, nil)
	if err != nil {
		return "", f.fail(http.StatusBadRequest, "INVALID_ARGUMENT", "请求 URL 不合法", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	log := logger.FromContext(ctx)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		log.Debug().Err(err).Str("kind", f.kind.String()).Str("url", f.rawURL).Msg("fetch failed")

		switch {
		case errors.Is(err, errTooManyRedirects):
			return "", f.fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("重定向次数超过上限（>%d）", f.maxRedirects), err)
		case errors.Is(err, errRedirectBadScheme):
			return "", f.fail(http.StatusBadRequest, "INVALID_ARGUMENT", "重定向目标仅允许 http/https", err)
		case isTimeout(err):
			return "", f.fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", err)
		case errors.Is(err, context.Canceled):
			return "", f.fail(http.StatusBadGateway, "FETCH_FAILED", "拉取远程资源已取消", err)
		default:
			return "", f.temporary(http.StatusBadGateway, "FETCH_FAILED", "拉取远程资源失败", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("上游返回非 2xx 状态码：%d", resp.StatusCode)
		if resp.StatusCode >= 500 {
			return "", f.temporary(http.StatusBadGateway, "FETCH_FAILED", msg, nil)
		}
		return "", f.fail(http.StatusBadGateway, "FETCH_FAILED", msg, nil)
	}

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return "", f.fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "拉取远程资源超时", err)
		}
		return "", f.temporary(http.StatusBadGateway, "FETCH_FAILED", "读取上游响应失败", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", f.fail(http.StatusUnprocessableEntity, "TOO_LARGE", fmt.Sprintf("远程资源过大（>%d bytes）", f.maxBytes), nil)
	}
	if !utf8.Valid(body) {
		return "", f.fail(http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "远程资源不是合法 UTF-8 文本", nil)
	}

	log.Debug().
		Str("kind", f.kind.String()).
		Str("url", f.rawURL).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")
	return string(body), nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
