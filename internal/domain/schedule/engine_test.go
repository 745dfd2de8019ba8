package schedule_test

import (
	"testing"
	"time"

	"github.com/ganot/progen/internal/domain/schedule"
	"github.com/stretchr/testify/require"
)

var programStart = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func estimate(o, m, p int) schedule.Estimate {
	return schedule.Estimate{Optimistic: o, Likely: m, Pessimistic: p}
}

func taskByID(t *testing.T, s schedule.Schedule, id string) schedule.ScheduledTask {
	t.Helper()
	for _, st := range s.Tasks {
		if st.ID == id {
			return st
		}
	}
	t.Fatalf("task %q not in schedule", id)
	return schedule.ScheduledTask{}
}

func TestCompute_LinearChain(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "a", Name: "Discovery", Estimate: estimate(2, 2, 2)},
		{ID: "b", Name: "Build", DependsOn: []string{"a"}, Estimate: estimate(3, 3, 3)},
		{ID: "c", Name: "Rollout", DependsOn: []string{"b"}, Estimate: estimate(4, 4, 4)},
	}

	s := schedule.Compute(tasks, programStart)

	require.Equal(t, 9, s.TotalMonths)
	require.Empty(t, s.Warnings)

	a := taskByID(t, s, "a")
	require.Equal(t, 0, a.EarlyStart)
	require.Equal(t, 2, a.EarlyFinish)

	b := taskByID(t, s, "b")
	require.Equal(t, 2, b.EarlyStart)
	require.Equal(t, 5, b.EarlyFinish)

	c := taskByID(t, s, "c")
	require.Equal(t, 5, c.EarlyStart)
	require.Equal(t, 9, c.EarlyFinish)

	for _, st := range s.Tasks {
		require.Zero(t, st.Slack, "task %s", st.ID)
		require.True(t, st.IsCritical, "task %s", st.ID)
	}
	require.Equal(t, []string{"a", "b", "c"}, s.CriticalPath)

	require.Equal(t, programStart.AddDate(0, 2, 0), b.StartDate)
	require.Equal(t, programStart.AddDate(0, 5, 0), b.EndDate)
}

func TestCompute_DiamondSlack(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "a", Estimate: estimate(2, 2, 2)},
		{ID: "b", DependsOn: []string{"a"}, Estimate: estimate(5, 5, 5)},
		{ID: "c", DependsOn: []string{"a"}, Estimate: estimate(2, 2, 2)},
		{ID: "d", DependsOn: []string{"b", "c"}, Estimate: estimate(1, 1, 1)},
	}

	s := schedule.Compute(tasks, programStart)

	require.Equal(t, 8, s.TotalMonths)

	c := taskByID(t, s, "c")
	require.Equal(t, 3, c.Slack)
	require.False(t, c.IsCritical)
	require.Equal(t, 5, c.LateStart)
	require.Equal(t, 7, c.LateFinish)

	require.Equal(t, []string{"a", "b", "d"}, s.CriticalPath)

	for _, st := range s.Tasks {
		require.GreaterOrEqual(t, st.Slack, 0, "task %s", st.ID)
		require.Equal(t, st.Slack == 0, st.IsCritical, "task %s", st.ID)
	}
}

func TestCompute_PERTRounding(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "round-down", Estimate: estimate(2, 3, 6)}, // 20/6 = 3.33 -> 3
		{ID: "round-up", Estimate: estimate(1, 4, 6)},   // 23/6 = 3.83 -> 4
		{ID: "floor", Estimate: estimate(0, 0, 1)},      // 1/6 -> minimum 1
	}

	s := schedule.Compute(tasks, programStart)

	require.Equal(t, 3, taskByID(t, s, "round-down").DurationMonths)
	require.Equal(t, 4, taskByID(t, s, "round-up").DurationMonths)
	require.Equal(t, 1, taskByID(t, s, "floor").DurationMonths)
}

func TestCompute_CycleEdgeRemovedAndReported(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "a", DependsOn: []string{"b"}, Estimate: estimate(1, 1, 1)},
		{ID: "b", DependsOn: []string{"a"}, Estimate: estimate(1, 1, 1)},
	}

	s := schedule.Compute(tasks, programStart)

	require.Len(t, s.Warnings, 1)
	require.Equal(t, schedule.WarnCycleEdgeRemoved, s.Warnings[0].Code)
	require.Equal(t, 2, s.TotalMonths)

	// One edge survives, so the tasks still run in sequence.
	starts := map[int]bool{}
	for _, st := range s.Tasks {
		starts[st.EarlyStart] = true
	}
	require.True(t, starts[0])
	require.True(t, starts[1])
}

func TestCompute_UnknownDependencyWarnsAndContributesZero(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "a", DependsOn: []string{"ghost"}, Estimate: estimate(2, 2, 2)},
	}

	s := schedule.Compute(tasks, programStart)

	require.Len(t, s.Warnings, 1)
	require.Equal(t, schedule.WarnUnknownDependency, s.Warnings[0].Code)
	require.Equal(t, "ghost", s.Warnings[0].DependencyID)
	require.Equal(t, 0, taskByID(t, s, "a").EarlyStart)
}

func TestCompute_DeliverableOffsetsClampedToWindow(t *testing.T) {
	early := -2
	late := 10
	tasks := []schedule.Task{
		{ID: "a", Estimate: estimate(3, 3, 3), Deliverables: []schedule.Deliverable{
			{ID: "d1", Name: "too early", OffsetMonths: &early},
			{ID: "d2", Name: "too late", OffsetMonths: &late},
		}},
	}

	s := schedule.Compute(tasks, programStart)
	a := taskByID(t, s, "a")

	require.Equal(t, a.EarlyStart, a.Deliverables[0].DueMonth)
	require.Equal(t, a.EarlyFinish, a.Deliverables[1].DueMonth)
}

func TestCompute_DeliverablesWithoutOffsetsSpreadEvenly(t *testing.T) {
	tasks := []schedule.Task{
		{ID: "a", Estimate: estimate(4, 4, 4), Deliverables: []schedule.Deliverable{
			{ID: "d1", Name: "first"},
			{ID: "d2", Name: "second"},
		}},
	}

	s := schedule.Compute(tasks, programStart)
	a := taskByID(t, s, "a")

	require.Equal(t, 2, a.Deliverables[0].DueMonth)
	require.Equal(t, 4, a.Deliverables[1].DueMonth)
}

func TestCompute_PhaseCount(t *testing.T) {
	short := schedule.Compute([]schedule.Task{
		{ID: "a", Estimate: estimate(12, 12, 12)},
	}, programStart)
	require.Len(t, short.Phases, 3)

	long := schedule.Compute([]schedule.Task{
		{ID: "a", Estimate: estimate(24, 24, 24)},
	}, programStart)
	require.Len(t, long.Phases, 4)

	// Every task lands in exactly one phase.
	seen := 0
	for _, p := range long.Phases {
		seen += len(p.TaskIDs)
	}
	require.Equal(t, 1, seen)
}
