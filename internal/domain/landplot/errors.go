package landplot

import "errors"

var (
	// ErrLandplotNotFound indicates the landplot doesn't exist.
	ErrLandplotNotFound = errors.New("landplot not found")
	// ErrInvalidInput indicates invalid landplot input.
	ErrInvalidInput = errors.New("invalid landplot input")
)
