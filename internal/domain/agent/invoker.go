package agent

import (
	"context"
	"fmt"
	"time"
)

// Request describes one model invocation. OutputShape tells the parser which
// structured variant the response is expected to match.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	OutputShape  OutputKind
}

// Result carries the parsed output plus call accounting.
type Result struct {
	Output     Output
	TokensUsed int
	Duration   time.Duration
}

// Invoker is the agent invocation capability consumed by the orchestrator.
// Implementations own transport, retry and timeout policy; the orchestrator
// treats any returned error as a single failed turn and moves on.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Result, error)
}

// GenerationError wraps a transport or parse failure from the model boundary.
type GenerationError struct {
	Participant string
	Err         error
}

func (e *GenerationError) Error() string {
	if e.Participant != "" {
		return fmt.Sprintf("generation failed for %s: %v", e.Participant, e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
