package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/John-Robertt/override-go/internal/logger"
	"github.com/John-Robertt/override-go/internal/model"
	"github.com/John-Robertt/override-go/internal/service"
)

// conflictsHeader lists the names skipped because they were already taken,
// comma separated and percent-encoded.
const conflictsHeader = "X-Override-Conflicts"

type overrideRequest struct {
	ConfigURL  string
	ConfigText string
	Profile    string
	Strict     bool
	FileName   string
}

type overrideHandler struct {
	opt Options
	svc *service.Service
}

func (h overrideHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := parseOverrideGET(r)
	if err != nil {
		writeErrorFromErr(w, r, err)
		return
	}
	h.serve(w, r, req)
}

func (h overrideHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	req, err := parseOverridePOST(w, r, h.opt.MaxBodyBytes)
	if err != nil {
		writeErrorFromErr(w, r, err)
		return
	}
	h.serve(w, r, req)
}

func (h overrideHandler) serve(w http.ResponseWriter, r *http.Request, req overrideRequest) {
	filename, err := outputFileName(req.FileName)
	if err != nil {
		writeErrorFromErr(w, r, err)
		return
	}

	// Keep a hard upper bound so handlers don't hang forever if upstream misbehaves.
	ctx, cancel := context.WithTimeout(r.Context(), h.opt.OverrideTimeout)
	defer cancel()

	res, err := h.svc.Override(ctx, service.Request{
		ConfigURL:  req.ConfigURL,
		ConfigText: req.ConfigText,
		ProfileURL: req.Profile,
		Strict:     req.Strict,
	})
	if err != nil {
		writeErrorFromErr(w, r, err)
		return
	}

	if names := res.Report.ConflictNames(); len(names) > 0 {
		metricsAddConflicts(len(names))
		escaped := make([]string, 0, len(names))
		for _, n := range names {
			escaped = append(escaped, pctEncode(n))
		}
		w.Header().Set(conflictsHeader, strings.Join(escaped, ","))
	}
	w.Header().Set("Content-Disposition", contentDispositionAttachment(filename))
	WriteYAML(w, http.StatusOK, res.YAML)
}

func parseOverrideGET(r *http.Request) (overrideRequest, error) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, "config", "profile", "strict", "fileName"); err != nil {
		return overrideRequest{}, err
	}

	configURL, err := singleQuery(q, "config", true)
	if err != nil {
		return overrideRequest{}, err
	}
	configURL = strings.TrimSpace(configURL)
	if configURL == "" {
		return overrideRequest{}, requestError("INVALID_ARGUMENT", "config 不能为空", "expected: config=<url>")
	}

	req, err := parseCommonQuery(q)
	if err != nil {
		return overrideRequest{}, err
	}
	req.ConfigURL = configURL
	return req, nil
}

// parseOverridePOST reads the base config from the body. The query may carry
// profile, strict and fileName.
func parseOverridePOST(w http.ResponseWriter, r *http.Request, maxBytes int64) (overrideRequest, error) {
	q := r.URL.Query()
	if err := checkQueryKeys(q, "profile", "strict", "fileName"); err != nil {
		return overrideRequest{}, err
	}
	req, err := parseCommonQuery(q)
	if err != nil {
		return overrideRequest{}, err
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return overrideRequest{}, apiError(http.StatusRequestEntityTooLarge, model.AppError{
				Code:    "TOO_LARGE",
				Message: fmt.Sprintf("请求体过大（>%d bytes）", maxBytes),
				Stage:   "validate_request",
			}, err)
		}
		return overrideRequest{}, requestError("INVALID_ARGUMENT", "读取请求体失败", err.Error())
	}
	if strings.TrimSpace(string(body)) == "" {
		return overrideRequest{}, requestError("INVALID_ARGUMENT", "请求体不能为空", "expected: base config YAML")
	}
	req.ConfigText = string(body)
	return req, nil
}

func parseCommonQuery(q url.Values) (overrideRequest, error) {
	var req overrideRequest

	profileURL, err := singleQuery(q, "profile", false)
	if err != nil {
		return req, err
	}
	req.Profile = strings.TrimSpace(profileURL)

	strict, err := singleQuery(q, "strict", false)
	if err != nil {
		return req, err
	}
	if strict != "" {
		b, err := strconv.ParseBool(strict)
		if err != nil {
			return req, requestError("INVALID_ARGUMENT", "strict 只能是 true/false", strict)
		}
		req.Strict = b
	}

	req.FileName, err = singleQuery(q, "fileName", false)
	return req, err
}

func checkQueryKeys(q url.Values, allowed ...string) error {
	for key := range q {
		ok := false
		for _, a := range allowed {
			if key == a {
				ok = true
				break
			}
		}
		if !ok {
			return requestError("INVALID_ARGUMENT", fmt.Sprintf("不支持的 query 参数：%s", key), "supported: "+strings.Join(allowed, ", "))
		}
	}
	return nil
}

func singleQuery(q url.Values, key string, required bool) (string, error) {
	values, ok := q[key]
	if !ok || len(values) == 0 {
		if required {
			return "", requestError("INVALID_ARGUMENT", fmt.Sprintf("缺少 %s 参数", key), "")
		}
		return "", nil
	}
	if len(values) != 1 {
		return "", requestError("INVALID_ARGUMENT", fmt.Sprintf("%s 参数只能出现一次", key), "")
	}
	return values[0], nil
}

func pctEncode(s string) string {
	// Go's QueryEscape uses '+' for spaces, which we rewrite to %20.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func logRequestError(r *http.Request, status int, app model.AppError) {
	ev := logger.FromRequest(r).Warn()
	if status >= 500 {
		ev = logger.FromRequest(r).Error()
	}
	ev.Str("stage", app.Stage).Str("code", app.Code).Int("status", status).Msg(app.Message)
}
