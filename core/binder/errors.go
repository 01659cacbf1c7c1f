package binder

import "errors"

// Error variables define common body parsing failures.
var (
	// ErrFailedToParseJSON indicates the request body contains invalid JSON
	// or exceeds the body size limit.
	ErrFailedToParseJSON = errors.New("failed to parse JSON request body")

	// ErrFailedToParseForm indicates form data parsing failed due to malformed
	// encoding, an invalid multipart boundary or an oversized body.
	ErrFailedToParseForm = errors.New("failed to parse form data")
)
