package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/John-Robertt/override-go/internal/document"
	"github.com/John-Robertt/override-go/internal/fetch"
	"github.com/John-Robertt/override-go/internal/model"
	"github.com/John-Robertt/override-go/internal/override"
	"github.com/John-Robertt/override-go/internal/profile"
	"github.com/John-Robertt/override-go/internal/rules"
)

// APIError is used by the HTTP layer for request validation and a few
// HTTP-specific errors.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(code, message, hint string) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "validate_request",
		Hint:    hint,
	}, nil)
}

// errorStatus maps an error to the response status and payload.
func errorStatus(err error) (int, model.AppError) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status, ae.AppError
	}

	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		return fe.Status, fe.AppError
	}

	// Parse/override errors are user content errors => 422.
	var de *document.ParseError
	if errors.As(err, &de) {
		return http.StatusUnprocessableEntity, de.AppError
	}

	var pe *profile.ParseError
	if errors.As(err, &pe) {
		return http.StatusUnprocessableEntity, pe.AppError
	}

	var rpe *rules.ParseError
	if errors.As(err, &rpe) {
		return http.StatusUnprocessableEntity, rpe.AppError
	}

	var oe *override.OverrideError
	if errors.As(err, &oe) {
		return http.StatusUnprocessableEntity, oe.AppError
	}

	var ce *override.ConflictError
	if errors.As(err, &ce) {
		return http.StatusUnprocessableEntity, ce.AppError
	}

	// Fallback: internal bug.
	return http.StatusInternalServerError, model.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "服务端内部错误",
		Stage:   "internal",
		Hint:    err.Error(),
	}
}

func writeErrorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status, app := errorStatus(err)
	metricsIncAppError(app.Stage, app.Code)
	logRequestError(r, status, app)
	WriteError(w, status, app)
}
