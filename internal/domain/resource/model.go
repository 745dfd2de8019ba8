package resource

// WeeksPerMonth is the planning resolution of the leveler. Month offsets from
// the schedule convert to week indexes by this factor.
const WeeksPerMonth = 4

// AvailabilityWindow restricts a resource to a percentage of its capacity
// over a month range. Months are offsets from program start; EndMonth is
// exclusive. A resource with no windows is fully available throughout.
type AvailabilityWindow struct {
	StartMonth int     `json:"start_month"`
	EndMonth   int     `json:"end_month"`
	Percent    float64 `json:"percent"`
}

// Resource is one unit of staffing capacity in the pool.
type Resource struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Capacity     float64              `json:"capacity"`
	Skills       []string             `json:"skills,omitempty"`
	Availability []AvailabilityWindow `json:"availability,omitempty"`
	CostPerMonth float64              `json:"cost_per_month,omitempty"`
}

// Conflict is one week where demand exceeds the pool's available capacity.
type Conflict struct {
	Week      int      `json:"week"`
	Month     int      `json:"month"`
	Required  float64  `json:"required"`
	Available float64  `json:"available"`
	Shortfall float64  `json:"shortfall"`
	TaskIDs   []string `json:"task_ids"`
}

// Move records one leveling decision.
type Move struct {
	TaskID    string `json:"task_id"`
	FromMonth int    `json:"from_month"`
	ToMonth   int    `json:"to_month"`
}

// Assignment binds a task requirement to a concrete resource. Fallback marks
// an assignment made on cost alone because no resource matched the skill.
type Assignment struct {
	TaskID            string  `json:"task_id"`
	Skill             string  `json:"skill"`
	ResourceID        string  `json:"resource_id"`
	ResourceName      string  `json:"resource_name"`
	Quantity          float64 `json:"quantity"`
	AllocationPercent float64 `json:"allocation_percent"`
	Fallback          bool    `json:"fallback,omitempty"`
}

// Overallocation is a resource booked past full capacity in some month.
type Overallocation struct {
	ResourceID       string  `json:"resource_id"`
	Month            int     `json:"month"`
	AllocatedPercent float64 `json:"allocated_percent"`
}
