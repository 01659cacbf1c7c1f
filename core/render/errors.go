package render

import "errors"

var (
	// ErrNoComponent is returned when no module in the chain carries a component.
	ErrNoComponent = errors.New("render: module chain has no component")

	// ErrUnsupportedComponent is returned for module components the renderer cannot handle.
	ErrUnsupportedComponent = errors.New("render: unsupported component type")

	// ErrNilTemplate is returned when a Template renderer has no template set.
	ErrNilTemplate = errors.New("render: template is nil")
)
