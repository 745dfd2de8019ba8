package planner

import "errors"

var (
	// ErrProgramNotReady indicates the session has not completed yet, so no
	// assembled program exists.
	ErrProgramNotReady = errors.New("program not ready")
	// ErrNoParticipants indicates a round definition with an empty
	// participant set, which should never happen with a valid registry.
	ErrNoParticipants = errors.New("round has no participants")
)
