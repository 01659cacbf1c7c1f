package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrNilHandler           = errors.New("server handler is nil")
	ErrStart                = errors.New("failed to start HTTP server")
	ErrShutdown             = errors.New("failed to shutdown HTTP server gracefully")
	ErrLoadTLS              = errors.New("failed to load TLS certificate")
)
