package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrDuplicateTurn indicates a complete turn already exists for the
	// same session, round, participant and kind.
	ErrDuplicateTurn = errors.New("duplicate turn")
)
