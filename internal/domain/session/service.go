package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/repository"
	"github.com/google/uuid"
)

// Service handles session and turn lifecycle operations.
type Service struct {
	sessions SessionRepository
	turns    TurnRepository
	rounds   *round.Registry
	logger   *slog.Logger
}

// NewService creates a new session service.
func NewService(
	sessions SessionRepository,
	turns TurnRepository,
	rounds *round.Registry,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions: sessions,
		turns:    turns,
		rounds:   rounds,
		logger:   logger,
	}
}

// CreateRequest describes a new planning session.
type CreateRequest struct {
	UserID           string
	ProgramName      string
	Requirements     string
	ExternalInsights string
	Budget           float64
	ResourcesJSON    []byte
}

// Create persists a new session in the initializing state.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	if req.ProgramName == "" || req.Requirements == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	sess := &Session{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		ProgramName:      req.ProgramName,
		Requirements:     req.Requirements,
		ExternalInsights: req.ExternalInsights,
		Budget:           req.Budget,
		ResourcesJSON:    req.ResourcesJSON,
		Status:           StatusInitializing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// Get loads one session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// List returns sessions matching opts, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Session, error) {
	sessions, err := s.sessions.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// SetRound marks the session in progress at the given round.
func (s *Service) SetRound(ctx context.Context, sess *Session, roundNum int) error {
	sess.Status = StatusInProgress
	sess.CurrentRound = roundNum
	sess.UpdatedAt = time.Now()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("updating session round: %w", err)
	}
	return nil
}

// MarkRoundComplete advances the last completed round watermark.
func (s *Service) MarkRoundComplete(ctx context.Context, sess *Session, roundNum int) error {
	if roundNum > sess.LastCompletedRound {
		sess.LastCompletedRound = roundNum
	}
	sess.UpdatedAt = time.Now()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("updating session watermark: %w", err)
	}
	return nil
}

// SetCompleted finalizes a session with its assembled program.
func (s *Service) SetCompleted(ctx context.Context, sess *Session, programJSON []byte) error {
	now := time.Now()
	sess.Status = StatusCompleted
	sess.ProgramJSON = programJSON
	sess.Error = ""
	sess.UpdatedAt = now
	sess.CompletedAt = &now
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	return nil
}

// SetFailed marks a session failed, preserving all persisted turns so a
// later run can resume from them.
func (s *Service) SetFailed(ctx context.Context, sess *Session, cause error) error {
	sess.Status = StatusFailed
	sess.Error = cause.Error()
	sess.UpdatedAt = time.Now()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("failing session: %w", err)
	}
	return nil
}

// AddTokens accumulates token usage onto the session.
func (s *Service) AddTokens(ctx context.Context, sess *Session, tokens int) error {
	if tokens <= 0 {
		return nil
	}
	sess.TotalTokens += tokens
	sess.UpdatedAt = time.Now()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return fmt.Errorf("updating session tokens: %w", err)
	}
	return nil
}

// BeginTurn opens an in-progress turn. It refuses to open a second turn for
// a (round, participant, kind) that already has a complete one; resumed runs
// rely on this to stay idempotent.
func (s *Service) BeginTurn(ctx context.Context, sessionID string, roundNum int, participant string, kind TurnKind) (*Turn, error) {
	done, err := s.turns.HasComplete(ctx, sessionID, roundNum, participant, kind)
	if err != nil {
		return nil, fmt.Errorf("checking turn: %w", err)
	}
	if done {
		return nil, ErrDuplicateTurn
	}

	turn := &Turn{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Round:       roundNum,
		Participant: participant,
		Kind:        kind,
		Status:      TurnInProgress,
		StartedAt:   time.Now(),
	}
	if err := s.turns.Create(ctx, turn); err != nil {
		return nil, fmt.Errorf("creating turn: %w", err)
	}
	return turn, nil
}

// CompleteTurn finalizes a turn with its output. A uniqueness conflict from
// the store means another writer completed the same turn first.
func (s *Service) CompleteTurn(ctx context.Context, turn *Turn, output agent.Output, tokens int) error {
	now := time.Now()
	turn.Status = TurnComplete
	turn.Output = output
	turn.TokensUsed = tokens
	turn.CompletedAt = &now
	if err := s.turns.Update(ctx, turn); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrDuplicateTurn
		}
		return fmt.Errorf("completing turn: %w", err)
	}
	return nil
}

// FailTurn records a failed turn. Failed turns never count toward completion.
func (s *Service) FailTurn(ctx context.Context, turn *Turn, cause error) error {
	now := time.Now()
	turn.Status = TurnFailed
	turn.Error = cause.Error()
	turn.CompletedAt = &now
	if err := s.turns.Update(ctx, turn); err != nil {
		return fmt.Errorf("failing turn: %w", err)
	}
	return nil
}

// Conversation returns every turn of a session in insertion order.
func (s *Service) Conversation(ctx context.Context, sessionID string) ([]Turn, error) {
	turns, err := s.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	return turns, nil
}

// Resume computes where a session picks up from its persisted turns. A round
// counts as completed only once a complete synthesis turn exists for it, so
// a run that died between expert outputs and synthesis re-enters the round
// and performs just the synthesis.
func (s *Service) Resume(ctx context.Context, sessionID string) (*ResumePoint, error) {
	turns, err := s.turns.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}

	synthesized := make(map[int]bool)
	outputs := make(map[int]map[string]bool)
	for _, t := range turns {
		if t.Status != TurnComplete {
			continue
		}
		switch t.Kind {
		case TurnSynthesis:
			synthesized[t.Round] = true
		case TurnAgentOutput:
			if outputs[t.Round] == nil {
				outputs[t.Round] = make(map[string]bool)
			}
			outputs[t.Round][t.Participant] = true
		}
	}

	lastCompleted := 0
	for r := 1; r <= s.rounds.Total(); r++ {
		if def, ok := s.rounds.Get(r); ok && !def.RequiresSynthesis {
			lastCompleted = r
			continue
		}
		if !synthesized[r] {
			break
		}
		lastCompleted = r
	}

	rp := &ResumePoint{NextRound: lastCompleted + 1}
	if lastCompleted == s.rounds.Total() {
		rp.Completed = true
		rp.NextRound = lastCompleted
		return rp, nil
	}

	rp.DoneParticipants = outputs[rp.NextRound]
	if rp.DoneParticipants == nil {
		rp.DoneParticipants = make(map[string]bool)
	}

	needed := s.rounds.ParticipantIDs(rp.NextRound)
	allDone := len(needed) > 0
	for _, p := range needed {
		if !rp.DoneParticipants[p] {
			allDone = false
			break
		}
	}
	rp.NeedsSynthesisOnly = allDone
	return rp, nil
}
