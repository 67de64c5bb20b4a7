package species

import "errors"

var (
	// ErrSpeciesNotFound indicates the species doesn't exist.
	ErrSpeciesNotFound = errors.New("species not found")
	// ErrInvalidInput indicates an invalid plan definition.
	ErrInvalidInput = errors.New("invalid growth plan")
	// ErrInvalidOrder indicates a renumbering that is not a permutation of the plan's stages.
	ErrInvalidOrder = errors.New("stage order must list every stage exactly once")
)
