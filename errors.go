package pagekit

import "errors"

var (
	// ErrInvalidMode indicates a serving mode other than dev, static or server.
	ErrInvalidMode = errors.New("invalid serving mode")

	// ErrInvalidLogLevel indicates a log level slog cannot parse.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrNilOption indicates an option was given a nil value.
	ErrNilOption = errors.New("option value cannot be nil")
)
