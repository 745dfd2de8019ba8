package session

import (
	"time"

	"github.com/ganot/progen/internal/domain/agent"
)

// Status represents the lifecycle status of a planning session
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusInProgress   Status = "in_progress"
	StatusPaused       Status = "paused"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

// TurnKind classifies what a persisted turn records.
type TurnKind string

const (
	TurnAgentInput         TurnKind = "agent_input"
	TurnAgentOutput        TurnKind = "agent_output"
	TurnSynthesis          TurnKind = "synthesis"
	TurnConflictResolution TurnKind = "conflict_resolution"
)

// TurnStatus is the persistence state of a turn. Only complete turns count
// toward round completion; in-progress and failed turns are retried on resume.
type TurnStatus string

const (
	TurnInProgress TurnStatus = "in_progress"
	TurnComplete   TurnStatus = "complete"
	TurnFailed     TurnStatus = "failed"
)

// Session is one program-planning run. The request inputs are stored with the
// session so a resumed run sees exactly what the original run saw, and the
// assembled program is cached on completion.
type Session struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id,omitempty"`
	ProgramName        string     `json:"program_name"`
	Requirements       string     `json:"requirements"`
	ExternalInsights   string     `json:"external_insights,omitempty"`
	Budget             float64    `json:"budget,omitempty"`
	ResourcesJSON      []byte     `json:"-"`
	Status             Status     `json:"status"`
	CurrentRound       int        `json:"current_round"`
	LastCompletedRound int        `json:"last_completed_round"`
	TotalTokens        int        `json:"total_tokens"`
	Error              string     `json:"error,omitempty"`
	ProgramJSON        []byte     `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// Turn is one persisted agent interaction inside a round.
type Turn struct {
	ID          string       `json:"id"`
	SessionID   string       `json:"session_id"`
	Round       int          `json:"round"`
	Participant string       `json:"participant"`
	Kind        TurnKind     `json:"kind"`
	Status      TurnStatus   `json:"status"`
	Output      agent.Output `json:"output"`
	TokensUsed  int          `json:"tokens_used,omitempty"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// ResumePoint locates where a resumed session picks up.
type ResumePoint struct {
	// NextRound is the first round without a complete synthesis turn.
	NextRound int
	// Completed is true when every round has a complete synthesis turn.
	Completed bool
	// NeedsSynthesisOnly is true when every participant of NextRound already
	// has a complete output turn, so only the synthesis step runs.
	NeedsSynthesisOnly bool
	// DoneParticipants holds the participants of NextRound whose output
	// turns are already complete.
	DoneParticipants map[string]bool
}
