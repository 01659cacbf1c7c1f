package loader

import "errors"

var (
	// ErrAlreadyResolved indicates Store was called for an id that already has an outcome.
	ErrAlreadyResolved = errors.New("loader already has an outcome for this request")

	// ErrEmptyID indicates a loader registered without an identity.
	ErrEmptyID = errors.New("loader id is empty")
)
