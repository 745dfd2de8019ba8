package mcp

import (
	"time"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/domain/planner"
	"github.com/ganot/progen/internal/domain/resource"
	"github.com/ganot/progen/internal/domain/session"
)

type GenerateProgramParams struct {
	SessionID        string              `json:"session_id,omitempty" jsonschema:"resume an existing session; other fields are ignored when set"`
	UserID           string              `json:"user_id,omitempty" jsonschema:"identity of the requesting user, recorded on the session"`
	ProgramName      string              `json:"program_name,omitempty" jsonschema:"name of the program to plan"`
	Requirements     string              `json:"requirements,omitempty" jsonschema:"free-form description of what the program must deliver"`
	ExternalInsights string              `json:"external_insights,omitempty" jsonschema:"market or research context given to every expert alongside the requirements"`
	Budget           float64             `json:"budget,omitempty" jsonschema:"total budget; zero disables budget checks"`
	Resources        []resource.Resource `json:"resources,omitempty" jsonschema:"resource pool available to the program"`
}

type ListSessionsParams struct {
	Status string `json:"status,omitempty" jsonschema:"filter by status (initializing, in_progress, paused, completed, failed)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of sessions"`
	Offset int    `json:"offset,omitempty" jsonschema:"offset for pagination"`
}

type GetSessionStatusParams struct {
	SessionID string `json:"session_id" jsonschema:"session to inspect"`
}

type GetProgramParams struct {
	SessionID string `json:"session_id" jsonschema:"completed session whose program to fetch"`
}

type GetRecentActivityParams struct {
	SessionID string `json:"session_id" jsonschema:"session whose activity to list"`
	Type      string `json:"type,omitempty" jsonschema:"filter by event type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
	Offset    int    `json:"offset,omitempty" jsonschema:"offset for pagination"`
}

type GenerateProgramResponse struct {
	SessionID   string           `json:"session_id"`
	Status      session.Status   `json:"status"`
	Resumed     bool             `json:"resumed"`
	NewTurns    int              `json:"new_turns"`
	TotalTokens int              `json:"total_tokens"`
	Program     *planner.Program `json:"program,omitempty"`
}

type SessionSummary struct {
	SessionID          string         `json:"session_id"`
	ProgramName        string         `json:"program_name"`
	Status             session.Status `json:"status"`
	LastCompletedRound int            `json:"last_completed_round"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

type SessionStatusResponse struct {
	SessionID          string         `json:"session_id"`
	ProgramName        string         `json:"program_name"`
	Status             session.Status `json:"status"`
	CurrentRound       int            `json:"current_round"`
	LastCompletedRound int            `json:"last_completed_round"`
	TotalRounds        int            `json:"total_rounds"`
	TotalTokens        int            `json:"total_tokens"`
	Error              string         `json:"error,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	CompletedAt        *time.Time     `json:"completed_at,omitempty"`
}

type GetRecentActivityResponse struct {
	Activity []activity.Entry `json:"activity"`
}
