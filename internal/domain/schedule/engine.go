package schedule

import (
	"fmt"
	"sort"
	"time"
)

// phaseThresholdMonths is the schedule length beyond which a fourth phase is
// added.
const phaseThresholdMonths = 18

// Compute runs the critical path method over tasks and anchors the result at
// startDate. The input is treated as untrusted: unknown and self dependencies
// are dropped, cycle back-edges are removed, and every repair is reported in
// Schedule.Warnings.
func Compute(tasks []Task, startDate time.Time) Schedule {
	s := Schedule{StartDate: startDate}
	if len(tasks) == 0 {
		return s
	}

	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
	}

	deps := make([][]int, len(tasks))
	for i, t := range tasks {
		for _, depID := range t.DependsOn {
			j, ok := index[depID]
			if !ok {
				s.Warnings = append(s.Warnings, Warning{
					Code:         WarnUnknownDependency,
					TaskID:       t.ID,
					DependencyID: depID,
					Message:      fmt.Sprintf("task %q depends on unknown task %q; dependency ignored", t.ID, depID),
				})
				continue
			}
			if j == i {
				s.Warnings = append(s.Warnings, Warning{
					Code:         WarnSelfDependency,
					TaskID:       t.ID,
					DependencyID: depID,
					Message:      fmt.Sprintf("task %q depends on itself; dependency ignored", t.ID),
				})
				continue
			}
			deps[i] = append(deps[i], j)
		}
	}

	order := topoSort(tasks, deps, &s.Warnings)

	durations := make([]int, len(tasks))
	for i, t := range tasks {
		durations[i] = pertMonths(t.Estimate)
	}

	// Forward pass: earliest start is the max early finish over dependencies.
	earlyStart := make([]int, len(tasks))
	earlyFinish := make([]int, len(tasks))
	for _, i := range order {
		es := 0
		for _, j := range deps[i] {
			if earlyFinish[j] > es {
				es = earlyFinish[j]
			}
		}
		earlyStart[i] = es
		earlyFinish[i] = es + durations[i]
	}

	totalMonths := 0
	for i := range tasks {
		if earlyFinish[i] > totalMonths {
			totalMonths = earlyFinish[i]
		}
	}
	s.TotalMonths = totalMonths

	successors := make([][]int, len(tasks))
	for i := range tasks {
		for _, j := range deps[i] {
			successors[j] = append(successors[j], i)
		}
	}

	// Backward pass in reverse topological order.
	lateFinish := make([]int, len(tasks))
	lateStart := make([]int, len(tasks))
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		lf := totalMonths
		for _, succ := range successors[i] {
			if lateStart[succ] < lf {
				lf = lateStart[succ]
			}
		}
		lateFinish[i] = lf
		lateStart[i] = lf - durations[i]
	}

	s.Tasks = make([]ScheduledTask, len(tasks))
	for i, t := range tasks {
		slack := lateStart[i] - earlyStart[i]
		st := ScheduledTask{
			ID:             t.ID,
			Name:           t.Name,
			DependsOn:      t.DependsOn,
			Requirements:   t.Requirements,
			DurationMonths: durations[i],
			EarlyStart:     earlyStart[i],
			EarlyFinish:    earlyFinish[i],
			LateStart:      lateStart[i],
			LateFinish:     lateFinish[i],
			Slack:          slack,
			IsCritical:     slack == 0,
			StartDate:      startDate.AddDate(0, earlyStart[i], 0),
			EndDate:        startDate.AddDate(0, earlyFinish[i], 0),
		}
		st.Deliverables = resolveDeliverables(t.Deliverables, st, startDate)
		s.Tasks[i] = st
	}

	s.CriticalPath = criticalPath(s.Tasks)
	s.Phases = segmentPhases(s.Tasks, totalMonths)
	return s
}

// pertMonths is the three-point weighted duration, rounded to the nearest
// whole month with a one-month floor.
func pertMonths(e Estimate) int {
	weighted := float64(e.Optimistic+4*e.Likely+e.Pessimistic) / 6.0
	months := int(weighted + 0.5)
	if months < 1 {
		return 1
	}
	return months
}

// topoSort returns a dependency-respecting order via DFS post-order. Nodes
// are seeded in input order so ties resolve deterministically. A back-edge
// found mid-visit is removed from deps and reported.
func topoSort(tasks []Task, deps [][]int, warnings *[]Warning) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(tasks))
	order := make([]int, 0, len(tasks))

	var visit func(i int)
	visit = func(i int) {
		color[i] = gray
		kept := deps[i][:0]
		for _, j := range deps[i] {
			switch color[j] {
			case white:
				visit(j)
				kept = append(kept, j)
			case gray:
				*warnings = append(*warnings, Warning{
					Code:         WarnCycleEdgeRemoved,
					TaskID:       tasks[i].ID,
					DependencyID: tasks[j].ID,
					Message:      fmt.Sprintf("dependency cycle detected; edge %q -> %q removed", tasks[i].ID, tasks[j].ID),
				})
			case black:
				kept = append(kept, j)
			}
		}
		deps[i] = kept
		color[i] = black
		order = append(order, i)
	}

	for i := range tasks {
		if color[i] == white {
			visit(i)
		}
	}
	return order
}

// resolveDeliverables fixes each deliverable's due month inside the task
// window. Explicit offsets are clamped; deliverables without an offset are
// spread evenly across the task span in list order.
func resolveDeliverables(dels []Deliverable, st ScheduledTask, startDate time.Time) []ResolvedDeliverable {
	if len(dels) == 0 {
		return nil
	}
	out := make([]ResolvedDeliverable, len(dels))
	for i, d := range dels {
		var due int
		if d.OffsetMonths != nil {
			due = st.EarlyStart + *d.OffsetMonths
		} else {
			due = st.EarlyStart + (i+1)*st.DurationMonths/len(dels)
		}
		if due < st.EarlyStart {
			due = st.EarlyStart
		}
		if due > st.EarlyFinish {
			due = st.EarlyFinish
		}
		out[i] = ResolvedDeliverable{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			DueMonth:    due,
			DueDate:     startDate.AddDate(0, due, 0),
		}
	}
	return out
}

// criticalPath lists zero-slack task ids by ascending early start, keeping
// input order for ties.
func criticalPath(tasks []ScheduledTask) []string {
	type entry struct {
		id    string
		start int
		pos   int
	}
	var critical []entry
	for i, t := range tasks {
		if t.IsCritical {
			critical = append(critical, entry{id: t.ID, start: t.EarlyStart, pos: i})
		}
	}
	sort.SliceStable(critical, func(a, b int) bool {
		return critical[a].start < critical[b].start
	})
	path := make([]string, len(critical))
	for i, e := range critical {
		path[i] = e.id
	}
	return path
}

// segmentPhases splits the schedule into three phases, or four once it runs
// past the threshold. Tasks are bucketed by early start; phase boundaries are
// whole months.
func segmentPhases(tasks []ScheduledTask, totalMonths int) []Phase {
	if totalMonths == 0 {
		return nil
	}
	count := 3
	if totalMonths > phaseThresholdMonths {
		count = 4
	}
	span := (totalMonths + count - 1) / count
	if span < 1 {
		span = 1
	}

	names := []string{"Foundation", "Build", "Rollout", "Optimize"}
	phases := make([]Phase, 0, count)
	for p := 0; p < count; p++ {
		start := p * span
		if start >= totalMonths {
			break
		}
		end := start + span
		if end > totalMonths {
			end = totalMonths
		}
		phases = append(phases, Phase{
			Number:     p + 1,
			Name:       names[p],
			StartMonth: start,
			EndMonth:   end,
		})
	}

	for _, t := range tasks {
		idx := t.EarlyStart / span
		if idx >= len(phases) {
			idx = len(phases) - 1
		}
		phases[idx].TaskIDs = append(phases[idx].TaskIDs, t.ID)
	}
	return phases
}
