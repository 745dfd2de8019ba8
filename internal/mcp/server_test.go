package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/domain/planner"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
)

type stubPlanner struct {
	generate func(ctx context.Context, req planner.GenerateRequest) (*planner.GenerateResult, error)
	program  func(ctx context.Context, sessionID string) (*planner.Program, error)
}

func (s *stubPlanner) Generate(ctx context.Context, req planner.GenerateRequest) (*planner.GenerateResult, error) {
	return s.generate(ctx, req)
}

func (s *stubPlanner) GetProgram(ctx context.Context, sessionID string) (*planner.Program, error) {
	return s.program(ctx, sessionID)
}

type stubSessions struct {
	sessions map[string]*session.Session
}

func (s *stubSessions) Get(_ context.Context, id string) (*session.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

func (s *stubSessions) List(_ context.Context, opts session.ListOptions) ([]session.Session, error) {
	var out []session.Session
	for _, sess := range s.sessions {
		if opts.Status != "" && sess.Status != opts.Status {
			continue
		}
		out = append(out, *sess)
	}
	return out, nil
}

type stubActivity struct {
	entries []activity.Entry
	gotOpts activity.ListOptions
}

func (s *stubActivity) GetRecentActivity(_ context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	s.gotOpts = opts
	return s.entries, nil
}

func connect(t *testing.T, services Services) *sdkmcp.ClientSession {
	t.Helper()

	server := NewServer(Config{
		Services:      services,
		Rounds:        round.NewRegistry(),
		TransportMode: "stdio",
	})

	st, ct := sdkmcp.NewInMemoryTransports()
	ctx := context.Background()

	serverSession, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.1.0"}, nil)
	clientSession, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSession.Close() })

	return clientSession
}

func decodeResult(t *testing.T, res *sdkmcp.CallToolResult, out any) {
	t.Helper()
	require.False(t, res.IsError)
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestServer_ListsTools(t *testing.T) {
	cs := connect(t, Services{
		Planner:  &stubPlanner{},
		Sessions: &stubSessions{},
		Activity: &stubActivity{},
	})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"generate_program",
		"list_sessions",
		"get_session_status",
		"get_program",
		"get_recent_activity",
	}, names)
}

func TestGenerateProgramTool(t *testing.T) {
	var gotReq planner.GenerateRequest
	planners := &stubPlanner{
		generate: func(_ context.Context, req planner.GenerateRequest) (*planner.GenerateResult, error) {
			gotReq = req
			return &planner.GenerateResult{
				Session: &session.Session{
					ID:          "sess-1",
					Status:      session.StatusCompleted,
					TotalTokens: 4200,
				},
				Program:  &planner.Program{SessionID: "sess-1", ProgramName: "Atlas"},
				NewTurns: 35,
			}, nil
		},
	}
	cs := connect(t, Services{Planner: planners, Sessions: &stubSessions{}, Activity: &stubActivity{}})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name: "generate_program",
		Arguments: map[string]any{
			"user_id":           "u-1",
			"program_name":      "Atlas",
			"requirements":      "launch a managed data platform",
			"external_insights": "two competitors launch this year",
			"budget":            1000000,
			"resources": []map[string]any{
				{"id": "r1", "name": "Platform Team", "capacity": 3, "skills": []string{"engineering"}},
			},
		},
	})
	require.NoError(t, err)

	var resp GenerateProgramResponse
	decodeResult(t, res, &resp)
	require.Equal(t, "sess-1", resp.SessionID)
	require.Equal(t, session.StatusCompleted, resp.Status)
	require.Equal(t, 35, resp.NewTurns)
	require.Equal(t, 4200, resp.TotalTokens)
	require.NotNil(t, resp.Program)

	require.Equal(t, "Atlas", gotReq.ProgramName)
	require.Equal(t, "u-1", gotReq.UserID)
	require.Equal(t, "two competitors launch this year", gotReq.ExternalInsights)
	require.Len(t, gotReq.Resources, 1)
	require.Equal(t, "r1", gotReq.Resources[0].ID)
}

func TestGetSessionStatusTool(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	sessions := &stubSessions{sessions: map[string]*session.Session{
		"sess-1": {
			ID:                 "sess-1",
			ProgramName:        "Atlas",
			Status:             session.StatusInProgress,
			CurrentRound:       3,
			LastCompletedRound: 2,
			TotalTokens:        900,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
	}}
	cs := connect(t, Services{Planner: &stubPlanner{}, Sessions: sessions, Activity: &stubActivity{}})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "get_session_status",
		Arguments: map[string]any{"session_id": "sess-1"},
	})
	require.NoError(t, err)

	var resp SessionStatusResponse
	decodeResult(t, res, &resp)
	require.Equal(t, session.StatusInProgress, resp.Status)
	require.Equal(t, 3, resp.CurrentRound)
	require.Equal(t, 2, resp.LastCompletedRound)
	require.Equal(t, 7, resp.TotalRounds)
}

func TestListSessionsTool_FiltersByStatus(t *testing.T) {
	sessions := &stubSessions{sessions: map[string]*session.Session{
		"sess-1": {ID: "sess-1", ProgramName: "Atlas", Status: session.StatusCompleted},
		"sess-2": {ID: "sess-2", ProgramName: "Borealis", Status: session.StatusFailed},
	}}
	cs := connect(t, Services{Planner: &stubPlanner{}, Sessions: sessions, Activity: &stubActivity{}})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "list_sessions",
		Arguments: map[string]any{"status": "failed"},
	})
	require.NoError(t, err)

	var resp ListSessionsResponse
	decodeResult(t, res, &resp)
	require.Len(t, resp.Sessions, 1)
	require.Equal(t, "sess-2", resp.Sessions[0].SessionID)
}

func TestGetSessionStatusTool_NotFound(t *testing.T) {
	cs := connect(t, Services{
		Planner:  &stubPlanner{},
		Sessions: &stubSessions{},
		Activity: &stubActivity{},
	})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "get_session_status",
		Arguments: map[string]any{"session_id": "nope"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)

	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, "SESSION_NOT_FOUND")
}

func TestGetProgramTool_NotReady(t *testing.T) {
	planners := &stubPlanner{
		program: func(_ context.Context, _ string) (*planner.Program, error) {
			return nil, planner.ErrProgramNotReady
		},
	}
	cs := connect(t, Services{Planner: planners, Sessions: &stubSessions{}, Activity: &stubActivity{}})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "get_program",
		Arguments: map[string]any{"session_id": "sess-1"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)

	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	require.Contains(t, text.Text, "PROGRAM_NOT_READY")
}

func TestGetRecentActivityTool_PassesFilters(t *testing.T) {
	activities := &stubActivity{entries: []activity.Entry{
		{ID: 2, SessionID: "sess-1", EventType: activity.TypeRoundComplete, Summary: "round 1 complete"},
		{ID: 1, SessionID: "sess-1", EventType: activity.TypeRoundStart, Summary: "round 1 started"},
	}}
	cs := connect(t, Services{Planner: &stubPlanner{}, Sessions: &stubSessions{}, Activity: activities})

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name: "get_recent_activity",
		Arguments: map[string]any{
			"session_id": "sess-1",
			"type":       "round_complete",
			"limit":      10,
		},
	})
	require.NoError(t, err)

	var resp GetRecentActivityResponse
	decodeResult(t, res, &resp)
	require.Len(t, resp.Activity, 2)

	require.Equal(t, "sess-1", activities.gotOpts.SessionID)
	require.NotNil(t, activities.gotOpts.EventType)
	require.Equal(t, activity.TypeRoundComplete, *activities.gotOpts.EventType)
	require.Equal(t, 10, activities.gotOpts.Limit)
}

func TestStaticTokenVerifier(t *testing.T) {
	v := StaticTokenVerifier("secret")
	require.NoError(t, v.VerifyToken(context.Background(), "secret"))
	require.Error(t, v.VerifyToken(context.Background(), "wrong"))
}
