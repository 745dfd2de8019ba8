package schedule

import "time"

// Estimate is a three-point duration estimate in months.
type Estimate struct {
	Optimistic  int `json:"optimistic"`
	Likely      int `json:"likely"`
	Pessimistic int `json:"pessimistic"`
}

// Requirement is a skill-quantified staffing need over part of a task.
type Requirement struct {
	Skill          string  `json:"skill"`
	Quantity       float64 `json:"quantity"`
	DurationMonths int     `json:"duration_months,omitempty"`
}

// Deliverable is an output of a task. OffsetMonths, when set, is relative to
// the task's own start.
type Deliverable struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	OffsetMonths *int   `json:"offset_months,omitempty"`
}

// Task is the scheduler input. DependsOn must form a DAG; violations are
// repaired and reported as warnings, never silently.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	DependsOn    []string      `json:"depends_on,omitempty"`
	Estimate     Estimate      `json:"estimate"`
	Requirements []Requirement `json:"requirements,omitempty"`
	Deliverables []Deliverable `json:"deliverables,omitempty"`
}

// ResolvedDeliverable is a deliverable with its due month fixed inside the
// owning task's window.
type ResolvedDeliverable struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	DueMonth    int       `json:"due_month"`
	DueDate     time.Time `json:"due_date"`
}

// ScheduledTask is the scheduler output for one task. All month values are
// offsets from the program start.
type ScheduledTask struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	DependsOn      []string              `json:"depends_on,omitempty"`
	Requirements   []Requirement         `json:"requirements,omitempty"`
	DurationMonths int                   `json:"duration_months"`
	EarlyStart     int                   `json:"early_start"`
	EarlyFinish    int                   `json:"early_finish"`
	LateStart      int                   `json:"late_start"`
	LateFinish     int                   `json:"late_finish"`
	Slack          int                   `json:"slack"`
	IsCritical     bool                  `json:"is_critical"`
	StartDate      time.Time             `json:"start_date"`
	EndDate        time.Time             `json:"end_date"`
	Deliverables   []ResolvedDeliverable `json:"deliverables,omitempty"`
}

// Phase is a derived contiguous segment of the schedule; every task belongs
// to exactly one phase, bucketed by early start.
type Phase struct {
	Number     int      `json:"number"`
	Name       string   `json:"name"`
	StartMonth int      `json:"start_month"`
	EndMonth   int      `json:"end_month"`
	TaskIDs    []string `json:"task_ids,omitempty"`
}

// Warning codes for contract violations the engine repaired.
const (
	WarnCycleEdgeRemoved  = "cycle_edge_removed"
	WarnUnknownDependency = "unknown_dependency"
	WarnSelfDependency    = "self_dependency"
)

// Warning reports a data-quality issue in the input that was repaired before
// scheduling.
type Warning struct {
	Code         string `json:"code"`
	TaskID       string `json:"task_id"`
	DependencyID string `json:"dependency_id,omitempty"`
	Message      string `json:"message"`
}

// Schedule is the complete CPM result.
type Schedule struct {
	Tasks        []ScheduledTask `json:"tasks"`
	TotalMonths  int             `json:"total_months"`
	CriticalPath []string        `json:"critical_path"`
	Phases       []Phase         `json:"phases"`
	StartDate    time.Time       `json:"start_date"`
	Warnings     []Warning       `json:"warnings,omitempty"`
}
