package session

import "context"

// SessionRepository provides persistence for sessions.
type SessionRepository interface {
	Create(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Update(ctx context.Context, sess *Session) error
	List(ctx context.Context, opts ListOptions) ([]Session, error)
}

// ListOptions filters session listings.
type ListOptions struct {
	Status Status
	Limit  int
	Offset int
}

// TurnRepository provides persistence for turns.
type TurnRepository interface {
	Create(ctx context.Context, turn *Turn) error
	Update(ctx context.Context, turn *Turn) error
	ListBySession(ctx context.Context, sessionID string) ([]Turn, error)
	HasComplete(ctx context.Context, sessionID string, round int, participant string, kind TurnKind) (bool, error)
}
