package route

import "errors"

var (
	// ErrInvalidPattern is returned for malformed route patterns.
	ErrInvalidPattern = errors.New("invalid route pattern")

	// ErrDuplicateRoute is returned when a pattern is registered twice.
	ErrDuplicateRoute = errors.New("route already registered")

	// ErrNoModules is returned when a route has an empty module chain.
	ErrNoModules = errors.New("route has no modules")
)
