package relationships

import "errors"

var (
	// ErrMissingTarget is returned when a reference names no related model
	ErrMissingTarget = errors.New("link target is required")

	// ErrNoRegistry is returned when a target is named but the owner has no model registry
	ErrNoRegistry = errors.New("owner has no model registry")
)
