package request

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

var (
	// Entry point errors
	ErrNoRoute       = errors.New("no route matches the request")
	ErrNilPlan       = errors.New("route plan is nil")
	ErrNilWritable   = errors.New("writable stream factory is nil")
	ErrInvalidURL    = errors.New("request url must be absolute")
	ErrInvalidPolicy = errors.New("invalid violation policy")

	// Response protocol errors
	ErrHeadersSent         = errors.New("headers already sent")
	ErrResponseSent        = errors.New("response already sent")
	ErrInvalidRedirectCode = errors.New("invalid redirect status code")
	ErrInvalidStatus       = errors.New("invalid status code")
	ErrJSONEncode          = errors.New("failed to encode JSON response")
	ErrStreamOpen          = errors.New("failed to open response stream")
	ErrStreamClosed        = errors.New("response stream closed")
	ErrStreamWrite         = errors.New("failed to write response stream")

	// Loader errors
	ErrLoaderType    = errors.New("loader value has unexpected type")
	ErrUnknownAction = errors.New("unknown action")
)

// statusCode is implemented by errors that carry an HTTP status.
type statusCode interface {
	StatusCode() int
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	value any
	stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Value returns the original panic value.
func (e *PanicError) Value() any {
	return e.value
}

// Stack returns the stack trace captured at the panic point.
func (e *PanicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to see a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}

func newPanicError(p any) *PanicError {
	return &PanicError{value: p, stack: debug.Stack()}
}

// statusOf returns the status carried by err, or 500.
func statusOf(err error) int {
	var sc statusCode
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	return http.StatusInternalServerError
}
