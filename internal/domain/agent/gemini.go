package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// GeminiInvoker implements Invoker against the Gemini API.
type GeminiInvoker struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// GeminiConfig configures a GeminiInvoker.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGeminiInvoker creates a Gemini-backed invoker.
func NewGeminiInvoker(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiInvoker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	return &GeminiInvoker{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Invoke sends one prompt and parses the response into the expected shape.
// The timeout here is the external bound the orchestrator relies on.
func (g *GeminiInvoker) Invoke(ctx context.Context, req Request) (*Result, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.7),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.UserPrompt), cfg)
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("generate content: %w", err)}
	}

	text := resp.Text()
	if text == "" {
		return nil, &GenerationError{Err: fmt.Errorf("empty completion from model %s", g.model)}
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	elapsed := time.Since(start)
	if g.logger != nil {
		g.logger.Debug("model call complete",
			"model", g.model,
			"shape", req.OutputShape,
			"tokens", tokens,
			"duration", elapsed,
		)
	}

	return &Result{
		Output:     ParseOutput(req.OutputShape, text),
		TokensUsed: tokens,
		Duration:   elapsed,
	}, nil
}
