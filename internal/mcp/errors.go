package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/progen/internal/domain/planner"
	"github.com/ganot/progen/internal/domain/session"
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

// MapError maps domain errors to MCP error codes. Unknown errors return nil
// and pass through unchanged.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Check the session ID or start a new generation"}
	case errors.Is(err, session.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Provide a program name and requirements"}
	case errors.Is(err, session.ErrDuplicateTurn):
		return &APIError{Code: "DUPLICATE_TURN", Message: "turn already recorded for this round and participant", RecoveryHint: "Resume the session instead of replaying it"}
	case errors.Is(err, planner.ErrProgramNotReady):
		return &APIError{Code: "PROGRAM_NOT_READY", Message: "session has not completed yet", RecoveryHint: "Call generate_program with this session_id to resume"}
	default:
		return nil
	}
}

// toolError converts a domain error into the error returned to the client.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
