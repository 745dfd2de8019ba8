// Package testserver wires the full stack (sqlite, domain services, MCP
// server) against an injected agent invoker for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/planner"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
	"github.com/ganot/progen/internal/mcp"
	"github.com/ganot/progen/internal/sqlite"
)

type TestServer struct {
	DB       *sqlite.DB
	Sessions *session.Service
	Activity *activity.Service
	Planner  *planner.Service

	server *sdkmcp.Server
}

// New builds a server over a per-test in-memory database. The invoker stands
// in for the model; tests script it to succeed, fail or stall.
func New(t *testing.T, invoker agent.Invoker, startDate time.Time) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	rounds := round.NewRegistry()
	require.NoError(t, rounds.Validate())

	sessionRepo := sqlite.NewSessionRepository(db)
	turnRepo := sqlite.NewTurnRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	sessionSvc := session.NewService(sessionRepo, turnRepo, rounds, nil)
	activitySvc := activity.NewService(activityRepo, nil)

	notifier := planner.NewMultiNotifier(nil, planner.NewActivityNotifier(activitySvc, nil))
	plannerSvc := planner.NewService(sessionSvc, invoker, rounds, notifier, startDate, nil)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Planner:  plannerSvc,
			Sessions: sessionSvc,
			Activity: activitySvc,
		},
		Rounds:        rounds,
		TransportMode: "stdio",
	})

	return &TestServer{
		DB:       db,
		Sessions: sessionSvc,
		Activity: activitySvc,
		Planner:  plannerSvc,
		server:   server,
	}
}

// Connect returns a client session speaking to the server over an in-memory
// transport.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	st, ct := sdkmcp.NewInMemoryTransports()
	ctx := context.Background()

	serverSession, err := ts.server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.1.0"}, nil)
	clientSession, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSession.Close() })

	return clientSession
}
