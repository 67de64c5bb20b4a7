package crop

import (
	"errors"
	"fmt"
)

// Error kinds. Every error the engine reports wraps exactly one of these.
var (
	ErrValidation     = errors.New("validation error")
	ErrState          = errors.New("invalid state")
	ErrOrderViolation = errors.New("order violation")
	ErrNotFound       = errors.New("not found")
)

var (
	ErrCropNotFound     = fmt.Errorf("crop %w", ErrNotFound)
	ErrStageNotFound    = fmt.Errorf("stage %w", ErrNotFound)
	ErrEventNotFound    = fmt.Errorf("event %w", ErrNotFound)
	ErrSpeciesNotFound  = fmt.Errorf("species %w", ErrNotFound)
	ErrLandplotNotFound = fmt.Errorf("landplot %w", ErrNotFound)

	ErrStageNotActive   = fmt.Errorf("%w: stage is not active", ErrState)
	ErrEventAlreadyDone = fmt.Errorf("%w: event already done", ErrState)
	ErrCropFinished     = fmt.Errorf("%w: crop already harvested", ErrState)
	ErrStagesUnfinished = fmt.Errorf("%w: last stage is not finished", ErrState)

	ErrMissingDate  = fmt.Errorf("%w: estimated or done date required", ErrValidation)
	ErrInvalidInput = fmt.Errorf("%w: invalid crop input", ErrValidation)
	ErrEmptyPlan    = fmt.Errorf("%w: growth plan has no stages", ErrValidation)

	ErrDoneBeforeEvents = fmt.Errorf("%w: finish date precedes completed work", ErrOrderViolation)
	ErrDoneBeforeStart  = fmt.Errorf("%w: finish date precedes stage start", ErrOrderViolation)
	ErrEventBeforeStage = fmt.Errorf("%w: done date precedes stage start", ErrOrderViolation)
)

var (
	// ErrTransitionFailed wraps persistence failures; nothing was committed.
	ErrTransitionFailed = errors.New("transition failed")
	// ErrConflict indicates another writer changed the crop first.
	ErrConflict = errors.New("crop modified concurrently")
)
