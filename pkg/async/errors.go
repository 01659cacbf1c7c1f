package async

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned by AwaitWithTimeout when the computation outlives the timeout.
var ErrTimeout = errors.New("async: timeout waiting for result")

// PanicError wraps a value recovered from a panicking asynchronous function.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("async: panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
