package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeValidation     = "validation_error"
	CodeNotFound       = "not_found"
	CodeState          = "state_error"
	CodeOrderViolation = "order_violation"
	CodeConflict       = "conflict"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal_error"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// ErrorBody is the JSON payload of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MapError converts a domain error into an HTTP status and error body.
func MapError(err error) (int, ErrorBody) {
	switch {
	case errors.Is(err, crop.ErrConflict):
		return http.StatusConflict, ErrorBody{Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, crop.ErrOrderViolation):
		return http.StatusUnprocessableEntity, ErrorBody{Code: CodeOrderViolation, Message: err.Error()}
	case errors.Is(err, crop.ErrState):
		return http.StatusConflict, ErrorBody{Code: CodeState, Message: err.Error()}
	case errors.Is(err, crop.ErrNotFound),
		errors.Is(err, species.ErrSpeciesNotFound),
		errors.Is(err, landplot.ErrLandplotNotFound):
		return http.StatusNotFound, ErrorBody{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, errBadRequest),
		errors.Is(err, crop.ErrValidation),
		errors.Is(err, species.ErrInvalidInput),
		errors.Is(err, species.ErrInvalidOrder),
		errors.Is(err, landplot.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, interval.ErrInvalidDuration),
		errors.Is(err, interval.ErrInvalidDate):
		return http.StatusBadRequest, ErrorBody{Code: CodeValidation, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: CodeInternal, Message: "internal error"}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := MapError(err)
	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
