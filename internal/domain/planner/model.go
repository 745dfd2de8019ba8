package planner

import (
	"time"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/resource"
	"github.com/ganot/progen/internal/domain/schedule"
	"github.com/ganot/progen/internal/domain/session"
)

// Program is the assembled planning document returned to the caller and
// cached on the session once complete.
type Program struct {
	SessionID    string           `json:"session_id"`
	ProgramName  string           `json:"program_name"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Workstreams  []Workstream     `json:"workstreams,omitempty"`
	Timeline     Timeline         `json:"timeline"`
	ResourcePlan ResourcePlan     `json:"resource_plan"`
	RiskRegister []agent.RiskItem `json:"risk_register,omitempty"`
	Decisions    []agent.Decision `json:"decisions,omitempty"`
	Financials   FinancialPlan    `json:"financials"`
	Warnings     []string         `json:"warnings,omitempty"`
	Conversation []TurnSummary    `json:"conversation,omitempty"`
	TotalTokens  int              `json:"total_tokens"`
}

// Workstream is one scheduled stream of work in the final program. Month
// values are offsets from the program start; dates are absolute.
type Workstream struct {
	ID             string                         `json:"id"`
	Name           string                         `json:"name"`
	Description    string                         `json:"description,omitempty"`
	Owner          string                         `json:"owner,omitempty"`
	DependsOn      []string                       `json:"depends_on,omitempty"`
	DurationMonths int                            `json:"duration_months"`
	StartMonth     int                            `json:"start_month"`
	EndMonth       int                            `json:"end_month"`
	LateStart      int                            `json:"late_start"`
	LateFinish     int                            `json:"late_finish"`
	Slack          int                            `json:"slack"`
	IsCritical     bool                           `json:"is_critical"`
	StartDate      time.Time                      `json:"start_date"`
	EndDate        time.Time                      `json:"end_date"`
	Deliverables   []schedule.ResolvedDeliverable `json:"deliverables,omitempty"`
}

// Timeline summarizes the computed schedule.
type Timeline struct {
	StartDate    time.Time        `json:"start_date"`
	TotalMonths  int              `json:"total_months"`
	CriticalPath []string         `json:"critical_path,omitempty"`
	Phases       []schedule.Phase `json:"phases,omitempty"`
	Milestones   []Milestone      `json:"milestones,omitempty"`
}

// Milestone is a dated deliverable surfaced at the program level.
type Milestone struct {
	Name         string    `json:"name"`
	WorkstreamID string    `json:"workstream_id"`
	Month        int       `json:"month"`
	Date         time.Time `json:"date"`
}

// ResourcePlan carries the leveling and assignment outcome.
type ResourcePlan struct {
	Pool            []resource.Resource       `json:"pool,omitempty"`
	Assignments     []resource.Assignment     `json:"assignments,omitempty"`
	Conflicts       []resource.Conflict       `json:"conflicts,omitempty"`
	Remaining       []resource.Conflict       `json:"remaining_conflicts,omitempty"`
	Moves           []resource.Move           `json:"moves,omitempty"`
	Overallocations []resource.Overallocation `json:"overallocations,omitempty"`
}

// FinancialPlan is the cost rollup with a flat contingency reserve.
type FinancialPlan struct {
	Budget               float64          `json:"budget,omitempty"`
	EstimatedCost        float64          `json:"estimated_cost"`
	Contingency          float64          `json:"contingency"`
	TotalWithContingency float64          `json:"total_with_contingency"`
	OverBudget           bool             `json:"over_budget"`
	ByWorkstream         []WorkstreamCost `json:"by_workstream,omitempty"`
}

// WorkstreamCost is the staffing cost attributed to one workstream.
type WorkstreamCost struct {
	WorkstreamID string  `json:"workstream_id"`
	Cost         float64 `json:"cost"`
}

// TurnSummary is the conversation log entry embedded in the program.
type TurnSummary struct {
	Round       int              `json:"round"`
	Participant string           `json:"participant"`
	Kind        session.TurnKind `json:"kind"`
	Summary     string           `json:"summary,omitempty"`
	TokensUsed  int              `json:"tokens_used,omitempty"`
}
