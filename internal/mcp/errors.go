package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/scheduler"
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

// MapError maps domain errors to MCP error codes. Unknown errors map to
// INTERNAL with the error text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, intersection.ErrIntersectionNotFound):
		return &APIError{Code: "INTERSECTION_NOT_FOUND", Message: "intersection not found", RecoveryHint: "Call list_intersections for valid ids"}
	case errors.Is(err, scheduler.ErrUnknownSignal):
		return &APIError{Code: "SIGNAL_NOT_RUNNING", Message: "no signal runs for this intersection", RecoveryHint: "Retry shortly; signals start when the record is created"}
	case errors.Is(err, intersection.ErrEmptyName):
		return &APIError{Code: "EMPTY_NAME", Message: "name must not be blank", RecoveryHint: "Provide a non-blank name"}
	case errors.Is(err, intersection.ErrInvalidScheduleTime):
		return &APIError{Code: "INVALID_SCHEDULE_TIME", Message: err.Error(), RecoveryHint: "Use HH:MM or HH:MM:SS, or an empty string to unset"}
	case errors.Is(err, intersection.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, intersection.ErrPersist):
		return &APIError{Code: "PERSIST_FAILED", Message: err.Error(), RecoveryHint: "The change is live but was not saved; retry the same call"}
	default:
		return &APIError{Code: "INTERNAL", Message: err.Error()}
	}
}
