package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	SessionID string
	EventType *EventType
	Limit     int
	Offset    int
}
