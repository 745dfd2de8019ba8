package agent

import (
	"encoding/json"
	"strings"
)

// OutputKind discriminates the closed set of structured payloads an
// invocation can produce. OutputRaw is the fallback when a response does not
// validate against any known shape; the text is preserved instead of dropped.
type OutputKind string

const (
	OutputAnalysis   OutputKind = "analysis"
	OutputSynthesis  OutputKind = "synthesis"
	OutputResolution OutputKind = "resolution"
	OutputRaw        OutputKind = "raw"
)

// Output is the tagged variant carried on every completed turn. Exactly one
// of Analysis, Synthesis or Resolution is set, matching Kind; Raw always
// holds the original response text.
type Output struct {
	Kind       OutputKind  `json:"kind"`
	Analysis   *Analysis   `json:"analysis,omitempty"`
	Synthesis  *Synthesis  `json:"synthesis,omitempty"`
	Resolution *Resolution `json:"resolution,omitempty"`
	Raw        string      `json:"raw,omitempty"`
}

// Analysis is one expert's structured contribution to a round.
type Analysis struct {
	Summary             string             `json:"summary"`
	Recommendations     []string           `json:"recommendations,omitempty"`
	ProposedWorkstreams []WorkstreamUpdate `json:"proposed_workstreams,omitempty"`
	Risks               []RiskItem         `json:"risks,omitempty"`
	ResourcesNeeded     []ResourceNeed     `json:"resources_needed,omitempty"`
	TimelineNotes       []string           `json:"timeline_notes,omitempty"`
}

// Synthesis is the coordinator's consolidation of a round.
type Synthesis struct {
	Summary           string             `json:"summary"`
	Decisions         []Decision         `json:"decisions,omitempty"`
	WorkstreamUpdates []WorkstreamUpdate `json:"workstream_updates,omitempty"`
	RisksIdentified   []RiskItem         `json:"risks_identified,omitempty"`
	ResourcesNeeded   []ResourceNeed     `json:"resources_needed,omitempty"`
	Conflicts         []ConflictItem     `json:"conflicts,omitempty"`
	OpenItems         []string           `json:"open_items,omitempty"`
}

// Resolution records how the coordinator settled the conflicts a synthesis
// surfaced.
type Resolution struct {
	Summary     string          `json:"summary"`
	Resolutions []ResolvedTopic `json:"resolutions,omitempty"`
	Unresolved  []ConflictItem  `json:"unresolved,omitempty"`
}

type ResolvedTopic struct {
	Topic      string `json:"topic"`
	Resolution string `json:"resolution"`
	Rationale  string `json:"rationale,omitempty"`
}

// Decision is a committed choice extracted from a synthesis.
type Decision struct {
	Topic     string `json:"topic"`
	Decision  string `json:"decision"`
	Rationale string `json:"rationale,omitempty"`
}

// ConflictItem is a disagreement between expert inputs flagged by synthesis.
type ConflictItem struct {
	Topic       string   `json:"topic"`
	Description string   `json:"description"`
	Positions   []string `json:"positions,omitempty"`
}

// WorkstreamUpdate is a proposed or refined workstream. Names act as the
// dependency keys until the assembler allocates stable ids.
type WorkstreamUpdate struct {
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	Owner        string           `json:"owner,omitempty"`
	DependsOn    []string         `json:"depends_on,omitempty"`
	Estimate     *Estimate        `json:"estimate,omitempty"`
	Requirements []ResourceNeed   `json:"requirements,omitempty"`
	Deliverables []DeliverableRef `json:"deliverables,omitempty"`
}

// Estimate is a three-point duration estimate in months.
type Estimate struct {
	OptimisticMonths  int `json:"optimistic_months"`
	LikelyMonths      int `json:"likely_months"`
	PessimisticMonths int `json:"pessimistic_months"`
}

// ResourceNeed is a skill-quantified staffing requirement.
type ResourceNeed struct {
	Role           string   `json:"role,omitempty"`
	Skill          string   `json:"skill"`
	Skills         []string `json:"skills,omitempty"`
	Quantity       float64  `json:"quantity"`
	DurationMonths int      `json:"duration_months,omitempty"`
	CostPerMonth   float64  `json:"cost_per_month,omitempty"`
}

// DeliverableRef names a deliverable with an optional offset from the owning
// workstream's start.
type DeliverableRef struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	OffsetMonths *int   `json:"offset_months,omitempty"`
}

// RiskItem is a risk surfaced by an expert or a synthesis.
type RiskItem struct {
	Description string `json:"description"`
	Probability string `json:"probability,omitempty"` // low, medium, high
	Impact      string `json:"impact,omitempty"`      // low, medium, high
	Mitigation  string `json:"mitigation,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ParseOutput decodes raw model text into the variant for the expected kind.
// Responses wrapped in markdown fences are unwrapped first. A payload that
// fails to decode, or that decodes to an empty shell, degrades to the raw
// variant rather than failing the turn.
func ParseOutput(kind OutputKind, text string) Output {
	body := stripFences(text)

	switch kind {
	case OutputAnalysis:
		var a Analysis
		if err := json.Unmarshal([]byte(body), &a); err == nil && !a.empty() {
			return Output{Kind: OutputAnalysis, Analysis: &a, Raw: text}
		}
	case OutputSynthesis:
		var s Synthesis
		if err := json.Unmarshal([]byte(body), &s); err == nil && !s.empty() {
			return Output{Kind: OutputSynthesis, Synthesis: &s, Raw: text}
		}
	case OutputResolution:
		var r Resolution
		if err := json.Unmarshal([]byte(body), &r); err == nil {
			return Output{Kind: OutputResolution, Resolution: &r, Raw: text}
		}
	}
	return Output{Kind: OutputRaw, Raw: text}
}

func (a Analysis) empty() bool {
	return a.Summary == "" && len(a.Recommendations) == 0 && len(a.ProposedWorkstreams) == 0 &&
		len(a.Risks) == 0 && len(a.ResourcesNeeded) == 0
}

func (s Synthesis) empty() bool {
	return s.Summary == "" && len(s.Decisions) == 0 && len(s.WorkstreamUpdates) == 0 &&
		len(s.RisksIdentified) == 0 && len(s.ResourcesNeeded) == 0 && len(s.Conflicts) == 0
}

func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
