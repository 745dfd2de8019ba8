package sqlite

import (
	"context"
	"testing"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1")
	insertSession(t, db, "s2")
	repo := NewActivityRepository(db)

	entries := []*activity.Entry{
		{SessionID: "s1", Round: 1, EventType: activity.TypeRoundStart, Summary: "round 1 started"},
		{SessionID: "s1", Round: 1, Participant: "tech_architecture", EventType: activity.TypeAgentComplete, Summary: "tech architecture done"},
		{SessionID: "s2", EventType: activity.TypeError, Summary: "boom"},
	}
	for _, e := range entries {
		require.NoError(t, repo.Log(ctx, e))
		require.NotZero(t, e.ID)
		require.False(t, e.CreatedAt.IsZero())
	}

	got, err := repo.List(ctx, activity.ListOptions{SessionID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	require.Equal(t, activity.TypeAgentComplete, got[0].EventType)
	require.Equal(t, "tech_architecture", got[0].Participant)

	errType := activity.TypeError
	got, err = repo.List(ctx, activity.ListOptions{EventType: &errType})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "s2", got[0].SessionID)
}

func TestActivityRepository_Limit(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSession(t, db, "s1")
	repo := NewActivityRepository(db)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Log(ctx, &activity.Entry{
			SessionID: "s1",
			EventType: activity.TypeRoundStart,
			Summary:   "tick",
		}))
	}

	got, err := repo.List(ctx, activity.ListOptions{SessionID: "s1", Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
}
