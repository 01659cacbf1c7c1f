package request

import (
	"errors"
	"fmt"
	"net/http"
)

// AbortSignal ends the handler pipeline early. It is not a failure: handlers
// return it as an error so it can travel through ordinary return paths, and only
// the pipeline boundary inspects it.
type AbortSignal interface {
	error
	abortKind() string
}

// RedirectMessage aborts the pipeline with a redirect.
type RedirectMessage struct {
	Code     int
	Location string
}

func (m *RedirectMessage) Error() string {
	return fmt.Sprintf("redirect %d to %s", m.Code, m.Location)
}

func (m *RedirectMessage) abortKind() string { return "redirect" }

// ErrorResponse aborts the pipeline and renders an error page.
type ErrorResponse struct {
	Status  int
	Message string
	cause   error
}

// NewErrorResponse creates an ErrorResponse. An empty message defaults to the status text.
func NewErrorResponse(status int, message string) *ErrorResponse {
	if message == "" {
		message = http.StatusText(status)
	}
	return &ErrorResponse{Status: status, Message: message}
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

// StatusCode returns the response status.
func (e *ErrorResponse) StatusCode() int { return e.Status }

// Unwrap returns the handler error this response was built from, if any.
func (e *ErrorResponse) Unwrap() error { return e.cause }

func (e *ErrorResponse) abortKind() string { return "error" }

// ExitMessage aborts the pipeline without rendering. Either a body was already
// written, or the request is handed back to the platform.
type ExitMessage struct{}

func (*ExitMessage) Error() string { return "exit" }

func (*ExitMessage) abortKind() string { return "exit" }

// AsAbort reports whether err is, or wraps, an AbortSignal.
func AsAbort(err error) (AbortSignal, bool) {
	var sig AbortSignal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}

// FailReturn is the outcome of an action that rejected its input. It is not an
// abort: the page still renders, with the failure available to ResolveAction.
type FailReturn struct {
	Status int
	Data   any
}

func (f *FailReturn) Error() string {
	return fmt.Sprintf("action failed with status %d", f.Status)
}

// StatusCode returns the failure status.
func (f *FailReturn) StatusCode() int { return f.Status }
