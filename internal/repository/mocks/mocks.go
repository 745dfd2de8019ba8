package mocks

import (
	"context"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock for session.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, sess *session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *SessionRepository) List(ctx context.Context, opts session.ListOptions) ([]session.Session, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]session.Session); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TurnRepository is a mock for session.TurnRepository.
type TurnRepository struct {
	mock.Mock
}

func (m *TurnRepository) Create(ctx context.Context, turn *session.Turn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}

func (m *TurnRepository) Update(ctx context.Context, turn *session.Turn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}

func (m *TurnRepository) ListBySession(ctx context.Context, sessionID string) ([]session.Turn, error) {
	args := m.Called(ctx, sessionID)
	if turns, ok := args.Get(0).([]session.Turn); ok {
		return turns, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TurnRepository) HasComplete(ctx context.Context, sessionID string, round int, participant string, kind session.TurnKind) (bool, error) {
	args := m.Called(ctx, sessionID, round, participant, kind)
	return args.Bool(0), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]activity.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
