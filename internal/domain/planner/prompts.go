package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
)

// personas are the system prompts for each expert agent.
var personas = map[string]string{
	round.ParticipantCoordinator: "You are the program coordinator for a cross-functional planning team. " +
		"You consolidate expert input into decisions, surface disagreements explicitly, and keep the plan internally consistent.",
	round.ParticipantTechArchitecture: "You are the technology and architecture lead. " +
		"You evaluate technical feasibility, propose engineering workstreams with realistic three-point estimates, and flag integration dependencies.",
	round.ParticipantPlatformDelivery: "You are the platform delivery lead. " +
		"You plan execution: sequencing, team topology, delivery risk, and what each workstream ships when.",
	round.ParticipantGoToMarket: "You are the go-to-market lead. " +
		"You plan launch readiness, positioning, channel work, and the market-facing milestones the program must hit.",
	round.ParticipantCustomerSuccess: "You are the customer success lead. " +
		"You represent adoption, onboarding, support readiness and the post-launch customer experience.",
	round.ParticipantRiskCompliance: "You are the risk and compliance lead. " +
		"You identify regulatory, security and delivery risks, each with probability, impact and a concrete mitigation.",
	round.ParticipantFinanceResources: "You are the finance and resourcing lead. " +
		"You size teams and skills per workstream, estimate monthly costs, and keep the plan inside budget.",
}

const jsonOnly = "Respond with a single JSON object and nothing else."

// analysisShape documents the expected response fields for expert turns.
const analysisShape = `{"summary": string, "recommendations": [string], "proposed_workstreams": [{"name", "description", "owner", "depends_on": [string], "estimate": {"optimistic_months", "likely_months", "pessimistic_months"}, "requirements": [{"skill", "quantity", "duration_months", "cost_per_month"}], "deliverables": [{"name", "description", "offset_months"}]}], "risks": [{"description", "probability", "impact", "mitigation", "category"}], "resources_needed": [{"skill", "quantity"}], "timeline_notes": [string]}`

const synthesisShape = `{"summary": string, "decisions": [{"topic", "decision", "rationale"}], "workstream_updates": [same shape as proposed_workstreams], "risks_identified": [risks], "resources_needed": [resource needs], "conflicts": [{"topic", "description", "positions": [string]}], "open_items": [string]}`

const resolutionShape = `{"summary": string, "resolutions": [{"topic", "resolution", "rationale"}], "unresolved": [{"topic", "description"}]}`

func systemPrompt(participant string) string {
	if p, ok := personas[participant]; ok {
		return p
	}
	return personas[round.ParticipantCoordinator]
}

// analysisPrompt builds the user prompt for one expert in one round.
func analysisPrompt(sess *session.Session, def *round.Definition, prior []session.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Program: %s\n\nBusiness requirements:\n%s\n\n", sess.ProgramName, sess.Requirements)
	if sess.ExternalInsights != "" {
		fmt.Fprintf(&b, "External insights:\n%s\n\n", sess.ExternalInsights)
	}
	if sess.Budget > 0 {
		fmt.Fprintf(&b, "Budget ceiling: %.0f\n\n", sess.Budget)
	}
	fmt.Fprintf(&b, "Round %d: %s\nObjective: %s\nExpected outputs: %s\n\n",
		def.Round, def.Name, def.Objective, strings.Join(def.ExpectedOutputs, ", "))

	writePriorContext(&b, def, prior)

	fmt.Fprintf(&b, "Give your expert contribution for this round. %s\nUse this shape: %s\n", jsonOnly, analysisShape)
	return b.String()
}

// synthesisPrompt builds the coordinator prompt consolidating a round.
func synthesisPrompt(sess *session.Session, def *round.Definition, roundTurns []session.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Program: %s\n\nRound %d (%s) is finished. Consolidate the expert contributions below into decisions and an updated workstream picture. Surface any disagreement between experts as a conflict; do not paper over it.\n\n",
		sess.ProgramName, def.Round, def.Name)

	for _, t := range roundTurns {
		if t.Kind != session.TurnAgentOutput || t.Status != session.TurnComplete {
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", t.Participant, outputText(t.Output))
	}

	fmt.Fprintf(&b, "%s\nUse this shape: %s\n", jsonOnly, synthesisShape)
	return b.String()
}

// resolutionPrompt builds the coordinator prompt settling synthesis conflicts.
func resolutionPrompt(sess *session.Session, def *round.Definition, synth *agent.Synthesis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Program: %s\n\nThe round %d (%s) synthesis surfaced conflicts. Resolve each one with a committed decision and rationale, or mark it unresolved with the reason.\n\n",
		sess.ProgramName, def.Round, def.Name)

	for _, c := range synth.Conflicts {
		fmt.Fprintf(&b, "Conflict: %s\n%s\n", c.Topic, c.Description)
		for _, p := range c.Positions {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\nUse this shape: %s\n", jsonOnly, resolutionShape)
	return b.String()
}

// writePriorContext appends the syntheses of the rounds this round builds on.
func writePriorContext(b *strings.Builder, def *round.Definition, prior []session.Turn) {
	wanted := make(map[int]bool, len(def.InputFromRounds))
	for _, r := range def.InputFromRounds {
		wanted[r] = true
	}
	wrote := false
	for _, t := range prior {
		if t.Status != session.TurnComplete || !wanted[t.Round] {
			continue
		}
		if t.Kind != session.TurnSynthesis && t.Kind != session.TurnConflictResolution {
			continue
		}
		if !wrote {
			b.WriteString("Context from earlier rounds:\n\n")
			wrote = true
		}
		fmt.Fprintf(b, "--- round %d %s ---\n%s\n\n", t.Round, t.Kind, outputText(t.Output))
	}
}

// outputText renders a turn output for inclusion in a prompt. Structured
// variants are re-serialized so downstream prompts see normalized JSON; raw
// fallbacks pass through as-is.
func outputText(out agent.Output) string {
	switch out.Kind {
	case agent.OutputAnalysis:
		if data, err := json.Marshal(out.Analysis); err == nil {
			return string(data)
		}
	case agent.OutputSynthesis:
		if data, err := json.Marshal(out.Synthesis); err == nil {
			return string(data)
		}
	case agent.OutputResolution:
		if data, err := json.Marshal(out.Resolution); err == nil {
			return string(data)
		}
	}
	return out.Raw
}
