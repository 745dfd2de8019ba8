package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/domain/planner"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
)

// PlannerService defines planner operations needed by MCP.
type PlannerService interface {
	Generate(ctx context.Context, req planner.GenerateRequest) (*planner.GenerateResult, error)
	GetProgram(ctx context.Context, sessionID string) (*planner.Program, error)
}

// SessionService defines session operations needed by MCP.
type SessionService interface {
	Get(ctx context.Context, id string) (*session.Session, error)
	List(ctx context.Context, opts session.ListOptions) ([]session.Session, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Planner  PlannerService
	Sessions SessionService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Rounds        *round.Registry
	Verifier      TokenVerifier
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "progen",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio mode is local only, so auth is always off there. HTTP mode
	// enforces the bearer token when enabled.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware())
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Verifier))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	rounds := cfg.Rounds
	if rounds == nil {
		rounds = round.NewRegistry()
	}
	registerTools(server, cfg.Services, rounds)

	return server
}
