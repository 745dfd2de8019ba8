package activity

import "time"

// EventType represents the type of progress event
type EventType string

const (
	TypeSessionCreated             EventType = "session_created"
	TypeResume                     EventType = "resume"
	TypeRoundStart                 EventType = "round_start"
	TypeRoundComplete              EventType = "round_complete"
	TypeAgentStart                 EventType = "agent_start"
	TypeAgentComplete              EventType = "agent_complete"
	TypeAgentFailed                EventType = "agent_failed"
	TypeSynthesisStart             EventType = "synthesis_start"
	TypeSynthesisComplete          EventType = "synthesis_complete"
	TypeConflictResolutionStart    EventType = "conflict_resolution_start"
	TypeConflictResolutionComplete EventType = "conflict_resolution_complete"
	TypeComplete                   EventType = "complete"
	TypeError                      EventType = "error"
)

// Entry represents an event in the session activity log
type Entry struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Round       int       `json:"round,omitempty"`
	Participant string    `json:"participant,omitempty"`
	EventType   EventType `json:"type"`
	Summary     string    `json:"summary"`
	Details     string    `json:"details,omitempty"` // JSON string
	CreatedAt   time.Time `json:"created_at"`
}
