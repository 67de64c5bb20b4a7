package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/interval"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, crop.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: err.Error(), RecoveryHint: "Reload the timeline and retry"}
	case errors.Is(err, crop.ErrStageNotActive):
		return &APIError{Code: "STAGE_NOT_ACTIVE", Message: err.Error(), RecoveryHint: "Call get_timeline to find the active stage"}
	case errors.Is(err, crop.ErrEventAlreadyDone):
		return &APIError{Code: "EVENT_ALREADY_DONE", Message: err.Error()}
	case errors.Is(err, crop.ErrStagesUnfinished):
		return &APIError{Code: "STAGES_UNFINISHED", Message: err.Error(), RecoveryHint: "Finish the last stage before harvesting"}
	case errors.Is(err, crop.ErrState):
		return &APIError{Code: "INVALID_STATE", Message: err.Error()}
	case errors.Is(err, crop.ErrOrderViolation):
		return &APIError{Code: "ORDER_VIOLATION", Message: err.Error(), RecoveryHint: "Use a later date"}
	case errors.Is(err, crop.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: err.Error(), RecoveryHint: "Check ID spelling"}
	case errors.Is(err, crop.ErrMissingDate):
		return &APIError{Code: "MISSING_DATE", Message: err.Error(), RecoveryHint: "Pass estimated_date or done_date"}
	case errors.Is(err, crop.ErrValidation), errors.Is(err, interval.ErrInvalidDate):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}
