package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
	"github.com/ganot/progen/internal/repository"
	"github.com/stretchr/testify/require"
)

func newTurn(id, sessionID string, r int, participant string, kind session.TurnKind) *session.Turn {
	return &session.Turn{
		ID:          id,
		SessionID:   sessionID,
		Round:       r,
		Participant: participant,
		Kind:        kind,
		Status:      session.TurnInProgress,
		StartedAt:   time.Now(),
	}
}

func completeWith(turn *session.Turn, out agent.Output) *session.Turn {
	now := time.Now()
	turn.Status = session.TurnComplete
	turn.Output = out
	turn.CompletedAt = &now
	return turn
}

func TestTurnRepository_RoundTrip(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1")
	repo := NewTurnRepository(db)

	turn := newTurn("t1", "s1", 1, round.ParticipantTechArchitecture, session.TurnAgentOutput)
	require.NoError(t, repo.Create(ctx, turn))

	out := agent.Output{
		Kind:     agent.OutputAnalysis,
		Analysis: &agent.Analysis{Summary: "needs a platform team"},
		Raw:      `{"summary":"needs a platform team"}`,
	}
	require.NoError(t, repo.Update(ctx, completeWith(turn, out)))

	turns, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	require.Equal(t, session.TurnComplete, turns[0].Status)
	require.Equal(t, agent.OutputAnalysis, turns[0].Output.Kind)
	require.Equal(t, "needs a platform team", turns[0].Output.Analysis.Summary)
}

func TestTurnRepository_UniqueCompleteSlot(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1")
	repo := NewTurnRepository(db)

	first := newTurn("t1", "s1", 2, round.ParticipantGoToMarket, session.TurnAgentOutput)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Update(ctx, completeWith(first, agent.Output{Kind: agent.OutputRaw, Raw: "a"})))

	// A second attempt for the same slot can exist in progress, but cannot
	// complete.
	second := newTurn("t2", "s1", 2, round.ParticipantGoToMarket, session.TurnAgentOutput)
	require.NoError(t, repo.Create(ctx, second))
	err := repo.Update(ctx, completeWith(second, agent.Output{Kind: agent.OutputRaw, Raw: "b"}))
	require.ErrorIs(t, err, repository.ErrConflict)

	done, err := repo.HasComplete(ctx, "s1", 2, round.ParticipantGoToMarket, session.TurnAgentOutput)
	require.NoError(t, err)
	require.True(t, done)
}

func TestTurnRepository_FailedTurnsMayShareSlot(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1")
	repo := NewTurnRepository(db)

	for _, id := range []string{"t1", "t2"} {
		turn := newTurn(id, "s1", 1, round.ParticipantRiskCompliance, session.TurnAgentOutput)
		require.NoError(t, repo.Create(ctx, turn))
		now := time.Now()
		turn.Status = session.TurnFailed
		turn.Error = "model unreachable"
		turn.CompletedAt = &now
		require.NoError(t, repo.Update(ctx, turn))
	}

	done, err := repo.HasComplete(ctx, "s1", 1, round.ParticipantRiskCompliance, session.TurnAgentOutput)
	require.NoError(t, err)
	require.False(t, done)
}

func TestTurnRepository_OrderPreserved(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1")
	repo := NewTurnRepository(db)

	ids := []string{"t1", "t2", "t3"}
	participants := []string{
		round.ParticipantTechArchitecture,
		round.ParticipantPlatformDelivery,
		round.ParticipantCoordinator,
	}
	for i, id := range ids {
		kind := session.TurnAgentOutput
		if participants[i] == round.ParticipantCoordinator {
			kind = session.TurnSynthesis
		}
		require.NoError(t, repo.Create(ctx, newTurn(id, "s1", 1, participants[i], kind)))
	}

	turns, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	for i, id := range ids {
		require.Equal(t, id, turns[i].ID)
	}
}

func TestTurnRepository_CreateRequiresSession(t *testing.T) {
	db := NewTestDB(t)

	err := NewTurnRepository(db).Create(context.Background(),
		newTurn("t1", "ghost", 1, round.ParticipantGoToMarket, session.TurnAgentOutput))
	require.ErrorIs(t, err, repository.ErrNotFound)
}
