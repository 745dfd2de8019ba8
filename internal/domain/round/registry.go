package round

import "fmt"

// Participant identifiers for the seven planning agents. The coordinator
// doubles as the synthesis and conflict-resolution pseudo-participant.
const (
	ParticipantCoordinator      = "program_coordinator"
	ParticipantTechArchitecture = "tech_architecture"
	ParticipantPlatformDelivery = "platform_delivery"
	ParticipantGoToMarket       = "go_to_market"
	ParticipantCustomerSuccess  = "customer_success"
	ParticipantRiskCompliance   = "risk_compliance"
	ParticipantFinanceResources = "finance_resources"
)

// All is the participant set placeholder expanded to every agent.
const All = "all"

// Definition describes one planning round. Definitions are static and never
// mutated at runtime.
type Definition struct {
	Round              int
	Name               string
	Objective          string
	Participants       []string // ordered; the single entry "all" expands to every agent
	Parallel           bool
	RequiresSynthesis  bool
	ConflictResolution bool
	InputFromRounds    []int // synthesis of these rounds feeds this round's context
	ExpectedOutputs    []string
}

// Registry is a pure lookup table over the round definitions.
type Registry struct {
	defs []Definition
}

var allParticipants = []string{
	ParticipantTechArchitecture,
	ParticipantPlatformDelivery,
	ParticipantGoToMarket,
	ParticipantCustomerSuccess,
	ParticipantRiskCompliance,
	ParticipantFinanceResources,
}

// standardPlanning is the seven-round collaboration protocol.
var standardPlanning = []Definition{
	{
		Round:             1,
		Name:              "Discovery & Context Alignment",
		Objective:         "Ground every expert in the business context and surface initial observations",
		Participants:      []string{All},
		Parallel:          true,
		RequiresSynthesis: true,
		ExpectedOutputs:   []string{"context_assessment", "initial_observations", "open_questions"},
	},
	{
		Round:              2,
		Name:               "Workstream Definition",
		Objective:          "Propose workstreams with owners, deliverables and three-point estimates",
		Participants:       []string{All},
		Parallel:           true,
		RequiresSynthesis:  true,
		ConflictResolution: true,
		InputFromRounds:    []int{1},
		ExpectedOutputs:    []string{"workstream_proposals", "deliverables", "estimates"},
	},
	{
		Round:             3,
		Name:              "Dependencies & Sequencing",
		Objective:         "Establish cross-workstream dependencies and execution order",
		Participants:      []string{ParticipantTechArchitecture, ParticipantPlatformDelivery, ParticipantGoToMarket},
		Parallel:          true,
		RequiresSynthesis: true,
		InputFromRounds:   []int{1, 2},
		ExpectedOutputs:   []string{"dependency_map", "sequencing_constraints"},
	},
	{
		Round:              4,
		Name:               "Resource & Capacity Planning",
		Objective:          "Size the team, skills and allocation each workstream needs",
		Participants:       []string{ParticipantFinanceResources, ParticipantPlatformDelivery, ParticipantTechArchitecture},
		Parallel:           true,
		RequiresSynthesis:  true,
		ConflictResolution: true,
		InputFromRounds:    []int{2, 3},
		ExpectedOutputs:    []string{"resource_requirements", "capacity_constraints"},
	},
	{
		Round:             5,
		Name:              "Risk & Compliance Review",
		Objective:         "Identify delivery, market and regulatory risks with mitigations",
		Participants:      []string{ParticipantRiskCompliance, ParticipantCustomerSuccess, ParticipantGoToMarket},
		Parallel:          true,
		RequiresSynthesis: true,
		InputFromRounds:   []int{2, 3, 4},
		ExpectedOutputs:   []string{"risk_register", "mitigations", "compliance_requirements"},
	},
	{
		Round:             6,
		Name:              "Financial Planning",
		Objective:         "Translate the resource plan into budget, capex and opex",
		Participants:      []string{ParticipantFinanceResources},
		Parallel:          false,
		RequiresSynthesis: true,
		InputFromRounds:   []int{2, 4},
		ExpectedOutputs:   []string{"budget", "capex", "opex", "contingency"},
	},
	{
		Round:              7,
		Name:               "Final Review & Commitment",
		Objective:          "Validate the full plan end to end and commit to it",
		Participants:       []string{All},
		Parallel:           true,
		RequiresSynthesis:  true,
		ConflictResolution: true,
		InputFromRounds:    []int{1, 2, 3, 4, 5, 6},
		ExpectedOutputs:    []string{"final_endorsements", "residual_concerns"},
	},
}

// NewRegistry returns the standard planning round registry.
func NewRegistry() *Registry {
	return &Registry{defs: standardPlanning}
}

// Get returns the definition for a round number, or false when out of range.
func (r *Registry) Get(round int) (*Definition, bool) {
	if round < 1 || round > len(r.defs) {
		return nil, false
	}
	return &r.defs[round-1], true
}

// Total returns the number of rounds.
func (r *Registry) Total() int {
	return len(r.defs)
}

// ParticipantIDs returns the ordered participant set for a round, expanding
// the "all" placeholder. Returns nil for an unknown round.
func (r *Registry) ParticipantIDs(round int) []string {
	def, ok := r.Get(round)
	if !ok {
		return nil
	}
	if len(def.Participants) == 1 && def.Participants[0] == All {
		out := make([]string, len(allParticipants))
		copy(out, allParticipants)
		return out
	}
	out := make([]string, len(def.Participants))
	copy(out, def.Participants)
	return out
}

// Validate checks the registry invariants: contiguous round numbers starting
// at 1, and upstream inputs referencing strictly smaller rounds.
func (r *Registry) Validate() error {
	for i, def := range r.defs {
		if def.Round != i+1 {
			return fmt.Errorf("round %d at position %d: numbers must be contiguous from 1", def.Round, i)
		}
		if len(def.Participants) == 0 {
			return fmt.Errorf("round %d: no participants", def.Round)
		}
		for _, in := range def.InputFromRounds {
			if in >= def.Round || in < 1 {
				return fmt.Errorf("round %d: input round %d must be a strictly earlier round", def.Round, in)
			}
		}
	}
	return nil
}
