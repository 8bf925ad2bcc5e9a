package ml

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrorCode classifies predictor failures.
type ErrorCode string

const (
	CodeArtifactLoad     ErrorCode = "ARTIFACT_LOAD_ERROR"
	CodeInvalidCategory  ErrorCode = "INVALID_CATEGORY"
	CodeInvalidMagnitude ErrorCode = "INVALID_MAGNITUDE"
)

// Error is returned by artifact loading and Predict.
// ARTIFACT_LOAD_ERROR is fatal at startup; the other codes are caller errors.
type Error struct {
	Code    ErrorCode
	Field   string
	Value   string
	Message string
	Cause   error
}

var (
	ErrArtifactLoad     = &Error{Code: CodeArtifactLoad}
	ErrInvalidCategory  = &Error{Code: CodeInvalidCategory}
	ErrInvalidMagnitude = &Error{Code: CodeInvalidMagnitude}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so errors.Is(err, ErrInvalidCategory) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func artifactError(source string, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Code:    CodeArtifactLoad,
		Field:   source,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

func invalidCategory(field, value string) *Error {
	return &Error{
		Code:    CodeInvalidCategory,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("unknown value %q", value),
	}
}

func invalidMagnitude(field string, value float64, reason string) *Error {
	return &Error{
		Code:    CodeInvalidMagnitude,
		Field:   field,
		Value:   strconv.FormatFloat(value, 'g', -1, 64),
		Message: reason,
	}
}
