package activity_test

import (
	"context"
	"testing"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.ActivityRepository{}
	entry := &activity.Entry{
		SessionID: "sess1",
		Round:     1,
		EventType: activity.TypeRoundStart,
		Summary:   "round 1 started",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListOptions{SessionID: "sess1"}).Return([]activity.Entry{}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogEvent(ctx, entry))
	_, err := svc.GetRecentActivity(ctx, activity.ListOptions{SessionID: "sess1"})
	require.NoError(t, err)
}

func TestActivityService_RejectsMissingSession(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	err := svc.LogEvent(context.Background(), &activity.Entry{EventType: activity.TypeError})
	require.ErrorIs(t, err, activity.ErrInvalidInput)
}
