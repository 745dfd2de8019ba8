package resource

import (
	"sort"
	"strings"

	"github.com/ganot/progen/internal/domain/schedule"
)

// approvedSuffixes are the only token extensions treated as the same skill.
// A constrained list keeps morphological matches like "plan"/"planning"
// while rejecting lookalikes such as "plan"/"plant".
var approvedSuffixes = []string{"s", "es", "ing", "ning", "ed", "er", "ers", "ment"}

// minStemLen guards short tokens from suffix matching entirely.
const minStemLen = 4

// Assign binds every task requirement to the cheapest resource whose skills
// match. When nothing matches the skill at all, the cheapest resource overall
// is used and the assignment is marked as a fallback. Per-resource monthly
// load is tracked across all assignments; months booked past 100% come back
// as overallocations.
func Assign(tasks []schedule.ScheduledTask, pool []Resource) ([]Assignment, []Overallocation) {
	if len(pool) == 0 {
		return nil, nil
	}

	var assignments []Assignment
	load := make(map[string]map[int]float64, len(pool))

	for _, t := range tasks {
		for _, req := range t.Requirements {
			r, fallback := pickResource(req.Skill, pool)

			pct := 100.0
			if r.Capacity > 0 {
				pct = req.Quantity / r.Capacity * 100.0
			}
			assignments = append(assignments, Assignment{
				TaskID:            t.ID,
				Skill:             req.Skill,
				ResourceID:        r.ID,
				ResourceName:      r.Name,
				Quantity:          req.Quantity,
				AllocationPercent: pct,
				Fallback:          fallback,
			})

			months := t.DurationMonths
			if req.DurationMonths > 0 && req.DurationMonths < months {
				months = req.DurationMonths
			}
			if load[r.ID] == nil {
				load[r.ID] = make(map[int]float64)
			}
			for m := t.EarlyStart; m < t.EarlyStart+months; m++ {
				load[r.ID][m] += pct
			}
		}
	}

	var over []Overallocation
	for _, r := range pool {
		months := load[r.ID]
		for m, pct := range months {
			if pct > 100.0 {
				over = append(over, Overallocation{
					ResourceID:       r.ID,
					Month:            m,
					AllocatedPercent: pct,
				})
			}
		}
	}
	sortOverallocations(over)
	return assignments, over
}

// pickResource returns the cheapest skill match, or the cheapest resource
// overall when no skills match.
func pickResource(skill string, pool []Resource) (Resource, bool) {
	matched := -1
	cheapest := 0
	for i, r := range pool {
		if r.CostPerMonth < pool[cheapest].CostPerMonth {
			cheapest = i
		}
		if !resourceHasSkill(r, skill) {
			continue
		}
		if matched < 0 || r.CostPerMonth < pool[matched].CostPerMonth {
			matched = i
		}
	}
	if matched >= 0 {
		return pool[matched], false
	}
	return pool[cheapest], true
}

func resourceHasSkill(r Resource, skill string) bool {
	want := tokenize(skill)
	for _, s := range r.Skills {
		for _, have := range tokenize(s) {
			for _, w := range want {
				if tokensMatch(w, have) {
					return true
				}
			}
		}
	}
	return false
}

// tokensMatch compares two lowercase skill tokens. Equality always matches;
// otherwise the longer token must be the shorter plus an approved suffix,
// and the shorter must be a real stem, not a fragment.
func tokensMatch(a, b string) bool {
	if a == b {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) < minStemLen || !strings.HasPrefix(long, short) {
		return false
	}
	suffix := long[len(short):]
	for _, ok := range approvedSuffixes {
		if suffix == ok {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '/' || r == ',' || r == '.'
	})
}

func sortOverallocations(over []Overallocation) {
	sort.Slice(over, func(a, b int) bool {
		if over[a].ResourceID != over[b].ResourceID {
			return over[a].ResourceID < over[b].ResourceID
		}
		return over[a].Month < over[b].Month
	})
}
