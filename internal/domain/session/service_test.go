package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
	"github.com/ganot/progen/internal/repository"
	"github.com/ganot/progen/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService(sessions *mocks.SessionRepository, turns *mocks.TurnRepository) *session.Service {
	return session.NewService(sessions, turns, round.NewRegistry(), nil)
}

func TestCreate_RejectsMissingFields(t *testing.T) {
	svc := newService(&mocks.SessionRepository{}, &mocks.TurnRepository{})

	_, err := svc.Create(context.Background(), session.CreateRequest{ProgramName: "x"})
	require.ErrorIs(t, err, session.ErrInvalidInput)

	_, err = svc.Create(context.Background(), session.CreateRequest{Requirements: "y"})
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestCreate_InitializesSession(t *testing.T) {
	ctx := context.Background()
	sessions := &mocks.SessionRepository{}
	sessions.On("Create", ctx, mock.AnythingOfType("*session.Session")).Return(nil)

	svc := newService(sessions, &mocks.TurnRepository{})
	sess, err := svc.Create(ctx, session.CreateRequest{
		ProgramName:  "Atlas",
		Requirements: "launch a data platform",
		Budget:       2_000_000,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, session.StatusInitializing, sess.Status)
	require.Zero(t, sess.LastCompletedRound)
	sessions.AssertExpectations(t)
}

func TestGet_MapsNotFound(t *testing.T) {
	ctx := context.Background()
	sessions := &mocks.SessionRepository{}
	sessions.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	svc := newService(sessions, &mocks.TurnRepository{})
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestBeginTurn_RefusesDuplicate(t *testing.T) {
	ctx := context.Background()
	turns := &mocks.TurnRepository{}
	turns.On("HasComplete", ctx, "s1", 2, round.ParticipantGoToMarket, session.TurnAgentOutput).Return(true, nil)

	svc := newService(&mocks.SessionRepository{}, turns)
	_, err := svc.BeginTurn(ctx, "s1", 2, round.ParticipantGoToMarket, session.TurnAgentOutput)
	require.ErrorIs(t, err, session.ErrDuplicateTurn)
	turns.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCompleteTurn_MapsUniquenessConflict(t *testing.T) {
	ctx := context.Background()
	turns := &mocks.TurnRepository{}
	turns.On("Update", ctx, mock.AnythingOfType("*session.Turn")).Return(repository.ErrConflict)

	svc := newService(&mocks.SessionRepository{}, turns)
	turn := &session.Turn{ID: "t1", SessionID: "s1", Round: 1, Status: session.TurnInProgress}
	err := svc.CompleteTurn(ctx, turn, agent.Output{Kind: agent.OutputRaw, Raw: "x"}, 10)
	require.ErrorIs(t, err, session.ErrDuplicateTurn)
}

func TestFailTurn_RecordsCause(t *testing.T) {
	ctx := context.Background()
	turns := &mocks.TurnRepository{}
	turns.On("Update", ctx, mock.MatchedBy(func(tn *session.Turn) bool {
		return tn.Status == session.TurnFailed && tn.Error == "model unreachable" && tn.CompletedAt != nil
	})).Return(nil)

	svc := newService(&mocks.SessionRepository{}, turns)
	err := svc.FailTurn(ctx, &session.Turn{ID: "t1"}, errors.New("model unreachable"))
	require.NoError(t, err)
	turns.AssertExpectations(t)
}

func completeTurn(sessionID string, r int, participant string, kind session.TurnKind) session.Turn {
	return session.Turn{
		SessionID:   sessionID,
		Round:       r,
		Participant: participant,
		Kind:        kind,
		Status:      session.TurnComplete,
	}
}

func TestResume_FreshSessionStartsAtRoundOne(t *testing.T) {
	ctx := context.Background()
	turns := &mocks.TurnRepository{}
	turns.On("ListBySession", ctx, "s1").Return([]session.Turn{}, nil)

	svc := newService(&mocks.SessionRepository{}, turns)
	rp, err := svc.Resume(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, rp.NextRound)
	require.False(t, rp.Completed)
	require.False(t, rp.NeedsSynthesisOnly)
	require.Empty(t, rp.DoneParticipants)
}

func TestResume_SkipsSynthesizedRounds(t *testing.T) {
	ctx := context.Background()
	turns := &mocks.TurnRepository{}
	turns.On("ListBySession", ctx, "s1").Return([]session.Turn{
		completeTurn("s1", 1, round.ParticipantCoordinator, session.TurnSynthesis),
		completeTurn("s1", 2, round.ParticipantCoordinator, session.TurnSynthesis),
		completeTurn("s1", 3, round.ParticipantTechArchitecture, session.TurnAgentOutput),
	}, nil)

	svc := newService(&mocks.SessionRepository{}, turns)
	rp, err := svc.Resume(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 3, rp.NextRound)
	require.False(t, rp.NeedsSynthesisOnly)
	require.True(t, rp.DoneParticipants[round.ParticipantTechArchitecture])
}

func TestResume_SynthesisOnlyWhenAllParticipantsDone(t *testing.T) {
	ctx := context.Background()
	turns := &mocks.TurnRepository{}
	turns.On("ListBySession", ctx, "s1").Return([]session.Turn{
		completeTurn("s1", 1, round.ParticipantCoordinator, session.TurnSynthesis),
		completeTurn("s1", 2, round.ParticipantCoordinator, session.TurnSynthesis),
		completeTurn("s1", 3, round.ParticipantTechArchitecture, session.TurnAgentOutput),
		completeTurn("s1", 3, round.ParticipantPlatformDelivery, session.TurnAgentOutput),
		completeTurn("s1", 3, round.ParticipantGoToMarket, session.TurnAgentOutput),
	}, nil)

	svc := newService(&mocks.SessionRepository{}, turns)
	rp, err := svc.Resume(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 3, rp.NextRound)
	require.True(t, rp.NeedsSynthesisOnly)
}

func TestResume_FailedTurnsDoNotCount(t *testing.T) {
	ctx := context.Background()
	failed := completeTurn("s1", 1, round.ParticipantCoordinator, session.TurnSynthesis)
	failed.Status = session.TurnFailed

	turns := &mocks.TurnRepository{}
	turns.On("ListBySession", ctx, "s1").Return([]session.Turn{failed}, nil)

	svc := newService(&mocks.SessionRepository{}, turns)
	rp, err := svc.Resume(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, 1, rp.NextRound)
}

func TestResume_AllRoundsSynthesizedMeansCompleted(t *testing.T) {
	ctx := context.Background()
	var all []session.Turn
	reg := round.NewRegistry()
	for r := 1; r <= reg.Total(); r++ {
		all = append(all, completeTurn("s1", r, round.ParticipantCoordinator, session.TurnSynthesis))
	}
	turns := &mocks.TurnRepository{}
	turns.On("ListBySession", ctx, "s1").Return(all, nil)

	svc := newService(&mocks.SessionRepository{}, turns)
	rp, err := svc.Resume(ctx, "s1")
	require.NoError(t, err)
	require.True(t, rp.Completed)
}
