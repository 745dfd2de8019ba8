package resource

import (
	"sort"
	"time"

	"github.com/ganot/progen/internal/domain/schedule"
)

// LevelResult is the outcome of one leveling pass. Conflicts holds the
// pre-leveling picture; Remaining is what the heuristic could not resolve
// inside the available slack.
type LevelResult struct {
	Tasks     []schedule.ScheduledTask `json:"tasks"`
	Moves     []Move                   `json:"moves,omitempty"`
	Conflicts []Conflict               `json:"conflicts,omitempty"`
	Remaining []Conflict               `json:"remaining,omitempty"`
}

// Level resolves capacity conflicts by delaying non-critical tasks within
// their slack. Demand and capacity are compared week by week at four weeks
// per month. Conflicts are worked in descending shortfall order; within a
// conflict the task with the most remaining slack shifts first, one month at
// a time. A task never moves past the late start the schedule computed for
// it, so the program end date is preserved.
func Level(s schedule.Schedule, pool []Resource) LevelResult {
	tasks := make([]schedule.ScheduledTask, len(s.Tasks))
	copy(tasks, s.Tasks)

	res := LevelResult{Tasks: tasks}
	horizon := s.TotalMonths * WeeksPerMonth
	if horizon == 0 || len(pool) == 0 {
		return res
	}

	starts := make([]int, len(tasks))
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		starts[i] = t.EarlyStart
		index[t.ID] = i
	}

	res.Conflicts = detectConflicts(tasks, starts, pool, horizon)
	if len(res.Conflicts) == 0 {
		return res
	}

	ordered := append([]Conflict(nil), res.Conflicts...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Shortfall > ordered[b].Shortfall
	})

	moveIdx := make(map[string]int)

	for _, c := range ordered {
		for {
			required, ids := demandAt(tasks, starts, c.Week)
			if required <= availableAt(pool, c.Week) {
				break
			}

			// Most remaining slack first; input order breaks ties.
			cand := -1
			best := 0
			for _, id := range ids {
				i := index[id]
				if tasks[i].IsCritical {
					continue
				}
				remaining := tasks[i].LateStart - starts[i]
				if remaining > best {
					best = remaining
					cand = i
				}
			}
			if cand < 0 {
				break
			}

			starts[cand]++
			if mi, ok := moveIdx[tasks[cand].ID]; ok {
				res.Moves[mi].ToMonth = starts[cand]
			} else {
				moveIdx[tasks[cand].ID] = len(res.Moves)
				res.Moves = append(res.Moves, Move{
					TaskID:    tasks[cand].ID,
					FromMonth: tasks[cand].EarlyStart,
					ToMonth:   starts[cand],
				})
			}
		}
	}

	for i := range tasks {
		delta := starts[i] - tasks[i].EarlyStart
		if delta == 0 {
			continue
		}
		applyShift(&tasks[i], delta, s.StartDate)
	}

	res.Remaining = detectConflicts(tasks, starts, pool, horizon)
	return res
}

// applyShift moves a task and its deliverables forward, recomputing the
// remaining slack against the unchanged late dates.
func applyShift(t *schedule.ScheduledTask, delta int, programStart time.Time) {
	t.EarlyStart += delta
	t.EarlyFinish += delta
	t.Slack = t.LateStart - t.EarlyStart
	t.StartDate = programStart.AddDate(0, t.EarlyStart, 0)
	t.EndDate = programStart.AddDate(0, t.EarlyFinish, 0)
	for i := range t.Deliverables {
		t.Deliverables[i].DueMonth += delta
		t.Deliverables[i].DueDate = programStart.AddDate(0, t.Deliverables[i].DueMonth, 0)
	}
}

// detectConflicts walks every week of the horizon and records those where
// demand exceeds the pool.
func detectConflicts(tasks []schedule.ScheduledTask, starts []int, pool []Resource, horizon int) []Conflict {
	var conflicts []Conflict
	for w := 0; w < horizon; w++ {
		required, ids := demandAt(tasks, starts, w)
		available := availableAt(pool, w)
		if required > available {
			conflicts = append(conflicts, Conflict{
				Week:      w,
				Month:     w / WeeksPerMonth,
				Required:  required,
				Available: available,
				Shortfall: required - available,
				TaskIDs:   ids,
			})
		}
	}
	return conflicts
}

// demandAt sums requirement quantities for tasks active in week w, using the
// current (possibly shifted) starts. A requirement with its own duration only
// demands capacity for that leading portion of the task.
func demandAt(tasks []schedule.ScheduledTask, starts []int, w int) (float64, []string) {
	var required float64
	var ids []string
	for i, t := range tasks {
		startWeek := starts[i] * WeeksPerMonth
		active := false
		for _, req := range t.Requirements {
			months := t.DurationMonths
			if req.DurationMonths > 0 && req.DurationMonths < months {
				months = req.DurationMonths
			}
			if w >= startWeek && w < startWeek+months*WeeksPerMonth {
				required += req.Quantity
				active = true
			}
		}
		if active {
			ids = append(ids, t.ID)
		}
	}
	return required, ids
}

// availableAt sums pool capacity for week w. Availability windows scale a
// resource's capacity for the months they cover; uncovered months are fully
// available.
func availableAt(pool []Resource, w int) float64 {
	month := w / WeeksPerMonth
	var total float64
	for _, r := range pool {
		pct := 100.0
		for _, win := range r.Availability {
			if month >= win.StartMonth && month < win.EndMonth {
				pct = win.Percent
				break
			}
		}
		total += r.Capacity * pct / 100.0
	}
	return total
}
