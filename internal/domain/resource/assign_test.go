package resource_test

import (
	"testing"

	"github.com/ganot/progen/internal/domain/resource"
	"github.com/ganot/progen/internal/domain/schedule"
	"github.com/stretchr/testify/require"
)

func TestAssign_CheapestSkillMatchWins(t *testing.T) {
	tasks := []schedule.ScheduledTask{
		{ID: "a", DurationMonths: 2, EarlyStart: 0, EarlyFinish: 2,
			Requirements: []schedule.Requirement{{Skill: "data engineering", Quantity: 1}}},
	}
	pool := []resource.Resource{
		{ID: "r1", Name: "Senior Data Team", Capacity: 2, Skills: []string{"data engineering"}, CostPerMonth: 30000},
		{ID: "r2", Name: "Data Team", Capacity: 2, Skills: []string{"data engineering"}, CostPerMonth: 18000},
		{ID: "r3", Name: "Design Team", Capacity: 2, Skills: []string{"design"}, CostPerMonth: 9000},
	}

	assignments, over := resource.Assign(tasks, pool)

	require.Len(t, assignments, 1)
	require.Equal(t, "r2", assignments[0].ResourceID)
	require.False(t, assignments[0].Fallback)
	require.InDelta(t, 50.0, assignments[0].AllocationPercent, 1e-9)
	require.Empty(t, over)
}

func TestAssign_FallbackToCheapestWhenNoSkillMatches(t *testing.T) {
	tasks := []schedule.ScheduledTask{
		{ID: "a", DurationMonths: 1, EarlyStart: 0, EarlyFinish: 1,
			Requirements: []schedule.Requirement{{Skill: "quantum computing", Quantity: 1}}},
	}
	pool := []resource.Resource{
		{ID: "r1", Name: "Platform", Capacity: 1, Skills: []string{"platform"}, CostPerMonth: 20000},
		{ID: "r2", Name: "Design", Capacity: 1, Skills: []string{"design"}, CostPerMonth: 8000},
	}

	assignments, _ := resource.Assign(tasks, pool)

	require.Len(t, assignments, 1)
	require.Equal(t, "r2", assignments[0].ResourceID)
	require.True(t, assignments[0].Fallback)
}

func TestAssign_SkillTokenMatching(t *testing.T) {
	cases := []struct {
		skill    string
		resource string
		match    bool
	}{
		{"planning", "plan", true}, // approved suffix
		{"plan", "plant", false},   // lookalike stays separate
		{"Data Engineering", "data", true},
		{"go", "golang", false}, // stem too short for suffix match
		{"platform-delivery", "delivery", true},
	}

	for _, tc := range cases {
		tasks := []schedule.ScheduledTask{
			{ID: "a", DurationMonths: 1,
				Requirements: []schedule.Requirement{{Skill: tc.skill, Quantity: 1}}},
		}
		pool := []resource.Resource{
			{ID: "match", Capacity: 1, Skills: []string{tc.resource}, CostPerMonth: 10},
			{ID: "fallback", Capacity: 1, Skills: []string{"unrelated"}, CostPerMonth: 1},
		}

		assignments, _ := resource.Assign(tasks, pool)
		require.Len(t, assignments, 1)
		if tc.match {
			require.Equal(t, "match", assignments[0].ResourceID, "%q vs %q", tc.skill, tc.resource)
		} else {
			require.True(t, assignments[0].Fallback, "%q vs %q", tc.skill, tc.resource)
		}
	}
}

func TestAssign_ReportsOverallocation(t *testing.T) {
	tasks := []schedule.ScheduledTask{
		{ID: "a", DurationMonths: 2, EarlyStart: 0, EarlyFinish: 2,
			Requirements: []schedule.Requirement{{Skill: "engineering", Quantity: 1}}},
		{ID: "b", DurationMonths: 2, EarlyStart: 1, EarlyFinish: 3,
			Requirements: []schedule.Requirement{{Skill: "engineering", Quantity: 1}}},
	}
	pool := []resource.Resource{
		{ID: "r1", Name: "Team", Capacity: 1, Skills: []string{"engineering"}, CostPerMonth: 10000},
	}

	_, over := resource.Assign(tasks, pool)

	// Month 1 is double booked.
	require.Len(t, over, 1)
	require.Equal(t, "r1", over[0].ResourceID)
	require.Equal(t, 1, over[0].Month)
	require.InDelta(t, 200.0, over[0].AllocatedPercent, 1e-9)
}
