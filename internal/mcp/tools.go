package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/domain/planner"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
)

// registerTools wires the planning tools into the SDK server. Input schemas
// are inferred from the params structs in types.go.
func registerTools(server *sdkmcp.Server, services Services, rounds *round.Registry) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_program",
		Description: "Run the multi-round planning protocol and return the assembled program. Pass session_id to resume an interrupted session; completed sessions return the cached program without any model calls.",
	}, generateProgram(services.Planner))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_sessions",
		Description: "List planning sessions, newest first, optionally filtered by status",
	}, listSessions(services.Sessions))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_session_status",
		Description: "Get the status of a planning session, including round progress and token usage",
	}, getSessionStatus(services.Sessions, rounds))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_program",
		Description: "Get the assembled program of a completed session",
	}, getProgram(services.Planner))

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent progress events for a session, newest first",
	}, getRecentActivity(services.Activity))
}

func generateProgram(planners PlannerService) func(context.Context, *sdkmcp.CallToolRequest, GenerateProgramParams) (*sdkmcp.CallToolResult, GenerateProgramResponse, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, params GenerateProgramParams) (*sdkmcp.CallToolResult, GenerateProgramResponse, error) {
		res, err := planners.Generate(ctx, planner.GenerateRequest{
			SessionID:        params.SessionID,
			UserID:           params.UserID,
			ProgramName:      params.ProgramName,
			Requirements:     params.Requirements,
			ExternalInsights: params.ExternalInsights,
			Budget:           params.Budget,
			Resources:        params.Resources,
		})
		if err != nil {
			return nil, GenerateProgramResponse{}, toolError(err)
		}
		return nil, GenerateProgramResponse{
			SessionID:   res.Session.ID,
			Status:      res.Session.Status,
			Resumed:     res.Resumed,
			NewTurns:    res.NewTurns,
			TotalTokens: res.Session.TotalTokens,
			Program:     res.Program,
		}, nil
	}
}

func listSessions(sessions SessionService) func(context.Context, *sdkmcp.CallToolRequest, ListSessionsParams) (*sdkmcp.CallToolResult, ListSessionsResponse, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ListSessionsParams) (*sdkmcp.CallToolResult, ListSessionsResponse, error) {
		found, err := sessions.List(ctx, session.ListOptions{
			Status: session.Status(params.Status),
			Limit:  params.Limit,
			Offset: params.Offset,
		})
		if err != nil {
			return nil, ListSessionsResponse{}, toolError(err)
		}
		resp := ListSessionsResponse{Sessions: make([]SessionSummary, 0, len(found))}
		for _, sess := range found {
			resp.Sessions = append(resp.Sessions, SessionSummary{
				SessionID:          sess.ID,
				ProgramName:        sess.ProgramName,
				Status:             sess.Status,
				LastCompletedRound: sess.LastCompletedRound,
				CreatedAt:          sess.CreatedAt,
				UpdatedAt:          sess.UpdatedAt,
			})
		}
		return nil, resp, nil
	}
}

func getSessionStatus(sessions SessionService, rounds *round.Registry) func(context.Context, *sdkmcp.CallToolRequest, GetSessionStatusParams) (*sdkmcp.CallToolResult, SessionStatusResponse, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, params GetSessionStatusParams) (*sdkmcp.CallToolResult, SessionStatusResponse, error) {
		sess, err := sessions.Get(ctx, params.SessionID)
		if err != nil {
			return nil, SessionStatusResponse{}, toolError(err)
		}
		return nil, SessionStatusResponse{
			SessionID:          sess.ID,
			ProgramName:        sess.ProgramName,
			Status:             sess.Status,
			CurrentRound:       sess.CurrentRound,
			LastCompletedRound: sess.LastCompletedRound,
			TotalRounds:        rounds.Total(),
			TotalTokens:        sess.TotalTokens,
			Error:              sess.Error,
			CreatedAt:          sess.CreatedAt,
			UpdatedAt:          sess.UpdatedAt,
			CompletedAt:        sess.CompletedAt,
		}, nil
	}
}

func getProgram(planners PlannerService) func(context.Context, *sdkmcp.CallToolRequest, GetProgramParams) (*sdkmcp.CallToolResult, planner.Program, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, params GetProgramParams) (*sdkmcp.CallToolResult, planner.Program, error) {
		prog, err := planners.GetProgram(ctx, params.SessionID)
		if err != nil {
			return nil, planner.Program{}, toolError(err)
		}
		return nil, *prog, nil
	}
}

func getRecentActivity(activities ActivityService) func(context.Context, *sdkmcp.CallToolRequest, GetRecentActivityParams) (*sdkmcp.CallToolResult, GetRecentActivityResponse, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, params GetRecentActivityParams) (*sdkmcp.CallToolResult, GetRecentActivityResponse, error) {
		opts := activity.ListOptions{
			SessionID: params.SessionID,
			Limit:     params.Limit,
			Offset:    params.Offset,
		}
		if params.Type != "" {
			et := activity.EventType(params.Type)
			opts.EventType = &et
		}
		entries, err := activities.GetRecentActivity(ctx, opts)
		if err != nil {
			return nil, GetRecentActivityResponse{}, toolError(err)
		}
		return nil, GetRecentActivityResponse{Activity: entries}, nil
	}
}
