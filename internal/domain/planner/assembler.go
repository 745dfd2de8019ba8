package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/resource"
	"github.com/ganot/progen/internal/domain/schedule"
	"github.com/ganot/progen/internal/domain/session"
)

// contingencyRate is the flat reserve added on top of the estimated cost.
const contingencyRate = 0.10

// defaultEstimate is used when a workstream arrives without a three-point
// estimate.
var defaultEstimate = agent.Estimate{OptimisticMonths: 2, LikelyMonths: 3, PessimisticMonths: 5}

// Assemble folds the complete turns of a session into the final program:
// merged workstreams, CPM schedule, leveled resources, assignments, risk
// register and cost rollup.
func Assemble(sess *session.Session, turns []session.Turn, pool []resource.Resource, startDate time.Time) *Program {
	merged := mergeWorkstreams(turns)

	prog := &Program{
		SessionID:   sess.ID,
		ProgramName: sess.ProgramName,
		GeneratedAt: time.Now(),
		TotalTokens: sess.TotalTokens,
	}

	tasks := buildTasks(merged)
	sched := schedule.Compute(tasks, startDate)
	leveled := resource.Level(sched, pool)
	assignments, over := resource.Assign(leveled.Tasks, pool)

	byID := make(map[string]agent.WorkstreamUpdate, len(merged))
	for _, ws := range merged {
		byID[slug(ws.Name)] = ws
	}

	for _, st := range leveled.Tasks {
		meta := byID[st.ID]
		prog.Workstreams = append(prog.Workstreams, Workstream{
			ID:             st.ID,
			Name:           st.Name,
			Description:    meta.Description,
			Owner:          meta.Owner,
			DependsOn:      st.DependsOn,
			DurationMonths: st.DurationMonths,
			StartMonth:     st.EarlyStart,
			EndMonth:       st.EarlyFinish,
			LateStart:      st.LateStart,
			LateFinish:     st.LateFinish,
			Slack:          st.Slack,
			IsCritical:     st.IsCritical,
			StartDate:      st.StartDate,
			EndDate:        st.EndDate,
			Deliverables:   st.Deliverables,
		})
	}

	prog.Timeline = Timeline{
		StartDate:    startDate,
		TotalMonths:  sched.TotalMonths,
		CriticalPath: sched.CriticalPath,
		Phases:       sched.Phases,
		Milestones:   milestones(leveled.Tasks),
	}

	prog.ResourcePlan = ResourcePlan{
		Pool:            pool,
		Assignments:     assignments,
		Conflicts:       leveled.Conflicts,
		Remaining:       leveled.Remaining,
		Moves:           leveled.Moves,
		Overallocations: over,
	}

	prog.RiskRegister = collectRisks(turns)
	prog.Decisions = collectDecisions(turns)
	prog.Financials = financials(sess.Budget, leveled.Tasks, assignments, pool)
	prog.Conversation = conversationLog(turns)

	for _, w := range sched.Warnings {
		prog.Warnings = append(prog.Warnings, w.Message)
	}
	if len(leveled.Remaining) > 0 {
		prog.Warnings = append(prog.Warnings,
			fmt.Sprintf("%d capacity conflicts remain after leveling", len(leveled.Remaining)))
	}
	if len(over) > 0 {
		prog.Warnings = append(prog.Warnings,
			fmt.Sprintf("%d resource months are overallocated", len(over)))
	}
	if prog.Financials.OverBudget {
		prog.Warnings = append(prog.Warnings,
			fmt.Sprintf("estimated cost %.0f with contingency exceeds budget %.0f",
				prog.Financials.TotalWithContingency, prog.Financials.Budget))
	}

	return prog
}

// mergeWorkstreams folds workstream updates from syntheses in round order.
// Later rounds refine earlier ones: non-empty fields win, lists replace.
func mergeWorkstreams(turns []session.Turn) []agent.WorkstreamUpdate {
	var order []string
	merged := make(map[string]agent.WorkstreamUpdate)

	for _, t := range turns {
		if t.Status != session.TurnComplete || t.Kind != session.TurnSynthesis || t.Output.Synthesis == nil {
			continue
		}
		for _, ws := range t.Output.Synthesis.WorkstreamUpdates {
			if ws.Name == "" {
				continue
			}
			key := slug(ws.Name)
			existing, seen := merged[key]
			if !seen {
				merged[key] = ws
				order = append(order, key)
				continue
			}
			merged[key] = overlay(existing, ws)
		}
	}

	out := make([]agent.WorkstreamUpdate, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	return out
}

func overlay(base, update agent.WorkstreamUpdate) agent.WorkstreamUpdate {
	if update.Description != "" {
		base.Description = update.Description
	}
	if update.Owner != "" {
		base.Owner = update.Owner
	}
	if len(update.DependsOn) > 0 {
		base.DependsOn = update.DependsOn
	}
	if update.Estimate != nil {
		base.Estimate = update.Estimate
	}
	if len(update.Requirements) > 0 {
		base.Requirements = update.Requirements
	}
	if len(update.Deliverables) > 0 {
		base.Deliverables = update.Deliverables
	}
	return base
}

func buildTasks(merged []agent.WorkstreamUpdate) []schedule.Task {
	tasks := make([]schedule.Task, 0, len(merged))
	for _, ws := range merged {
		id := slug(ws.Name)

		est := defaultEstimate
		if ws.Estimate != nil {
			est = *ws.Estimate
		}

		var deps []string
		for _, name := range ws.DependsOn {
			deps = append(deps, slug(name))
		}

		var reqs []schedule.Requirement
		for _, need := range ws.Requirements {
			skill := need.Skill
			if skill == "" {
				skill = need.Role
			}
			qty := need.Quantity
			if qty <= 0 {
				qty = 1
			}
			reqs = append(reqs, schedule.Requirement{
				Skill:          skill,
				Quantity:       qty,
				DurationMonths: need.DurationMonths,
			})
		}

		var dels []schedule.Deliverable
		for i, d := range ws.Deliverables {
			dels = append(dels, schedule.Deliverable{
				ID:           fmt.Sprintf("%s-d%d", id, i+1),
				Name:         d.Name,
				Description:  d.Description,
				OffsetMonths: d.OffsetMonths,
			})
		}

		tasks = append(tasks, schedule.Task{
			ID:        id,
			Name:      ws.Name,
			DependsOn: deps,
			Estimate: schedule.Estimate{
				Optimistic:  est.OptimisticMonths,
				Likely:      est.LikelyMonths,
				Pessimistic: est.PessimisticMonths,
			},
			Requirements: reqs,
			Deliverables: dels,
		})
	}
	return tasks
}

func milestones(tasks []schedule.ScheduledTask) []Milestone {
	var out []Milestone
	for _, t := range tasks {
		for _, d := range t.Deliverables {
			out = append(out, Milestone{
				Name:         d.Name,
				WorkstreamID: t.ID,
				Month:        d.DueMonth,
				Date:         d.DueDate,
			})
		}
	}
	return out
}

func collectRisks(turns []session.Turn) []agent.RiskItem {
	var risks []agent.RiskItem
	seen := make(map[string]bool)
	for _, t := range turns {
		if t.Status != session.TurnComplete {
			continue
		}
		var items []agent.RiskItem
		switch {
		case t.Output.Synthesis != nil:
			items = t.Output.Synthesis.RisksIdentified
		case t.Output.Analysis != nil:
			items = t.Output.Analysis.Risks
		}
		for _, r := range items {
			key := strings.ToLower(strings.TrimSpace(r.Description))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			risks = append(risks, r)
		}
	}
	return risks
}

func collectDecisions(turns []session.Turn) []agent.Decision {
	var decisions []agent.Decision
	for _, t := range turns {
		if t.Status != session.TurnComplete {
			continue
		}
		switch {
		case t.Kind == session.TurnSynthesis && t.Output.Synthesis != nil:
			decisions = append(decisions, t.Output.Synthesis.Decisions...)
		case t.Kind == session.TurnConflictResolution && t.Output.Resolution != nil:
			for _, r := range t.Output.Resolution.Resolutions {
				decisions = append(decisions, agent.Decision{
					Topic:     r.Topic,
					Decision:  r.Resolution,
					Rationale: r.Rationale,
				})
			}
		}
	}
	return decisions
}

func financials(budget float64, tasks []schedule.ScheduledTask, assignments []resource.Assignment, pool []resource.Resource) FinancialPlan {
	costPerMonth := make(map[string]float64, len(pool))
	for _, r := range pool {
		costPerMonth[r.ID] = r.CostPerMonth
	}
	durations := make(map[string]int, len(tasks))
	for _, t := range tasks {
		durations[t.ID] = t.DurationMonths
	}

	plan := FinancialPlan{Budget: budget}
	perWS := make(map[string]float64)
	var order []string
	for _, a := range assignments {
		cost := costPerMonth[a.ResourceID] * a.Quantity * float64(durations[a.TaskID])
		plan.EstimatedCost += cost
		if _, ok := perWS[a.TaskID]; !ok {
			order = append(order, a.TaskID)
		}
		perWS[a.TaskID] += cost
	}

	for _, id := range order {
		plan.ByWorkstream = append(plan.ByWorkstream, WorkstreamCost{WorkstreamID: id, Cost: perWS[id]})
	}

	plan.Contingency = plan.EstimatedCost * contingencyRate
	plan.TotalWithContingency = plan.EstimatedCost + plan.Contingency
	plan.OverBudget = budget > 0 && plan.TotalWithContingency > budget
	return plan
}

func conversationLog(turns []session.Turn) []TurnSummary {
	var log []TurnSummary
	for _, t := range turns {
		if t.Status != session.TurnComplete {
			continue
		}
		log = append(log, TurnSummary{
			Round:       t.Round,
			Participant: t.Participant,
			Kind:        t.Kind,
			Summary:     turnSummary(t.Output),
			TokensUsed:  t.TokensUsed,
		})
	}
	return log
}

func turnSummary(out agent.Output) string {
	switch {
	case out.Analysis != nil:
		return out.Analysis.Summary
	case out.Synthesis != nil:
		return out.Synthesis.Summary
	case out.Resolution != nil:
		return out.Resolution.Summary
	}
	const max = 200
	if len(out.Raw) > max {
		return out.Raw[:max]
	}
	return out.Raw
}

// slug turns a workstream name into a stable identifier. Dependencies are
// declared by name in agent output, so the mapping must be deterministic.
func slug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
