package override

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/John-Robertt/override-go/internal/model"
)

// OverrideError is a fatal pipeline failure. The pipeline returns no partial
// result when one occurs.
type OverrideError struct {
	AppError model.AppError
	Cause    error
}

func (e *OverrideError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *OverrideError) Unwrap() error { return e.Cause }

// ConflictError reports a name that a pass wanted to create but that is
// already taken by a group, proxy or listener. The pass leaves the snapshot
// as it was for that name.
type ConflictError struct {
	AppError model.AppError
	Name     string
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
}

func conflictError(stage, name, owner string) *ConflictError {
	return &ConflictError{
		AppError: model.AppError{
			Code:    "GROUP_NAME_CONFLICT",
			Message: fmt.Sprintf("名称已被%s占用：%s", owner, name),
			Stage:   stage,
			Snippet: name,
			Hint:    "rename the region/listener in the profile or remove the existing entry",
		},
		Name: name,
	}
}

func overrideError(stage, code, msg, snippet string) *OverrideError {
	return &OverrideError{
		AppError: model.AppError{
			Code:    code,
			Message: msg,
			Stage:   stage,
			Snippet: snippet,
		},
	}
}

// Conflicts extracts every ConflictError from err, which may combine
// several errors. ok is false when err holds anything else, in which case err
// must be treated as fatal.
func Conflicts(err error) (out []*ConflictError, ok bool) {
	for _, e := range multierr.Errors(err) {
		var ce *ConflictError
		if !errors.As(e, &ce) {
			return nil, false
		}
		out = append(out, ce)
	}
	return out, true
}
