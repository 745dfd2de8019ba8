package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ganot/progen/internal/domain/activity"
	"github.com/ganot/progen/internal/domain/agent"
	"github.com/ganot/progen/internal/domain/resource"
	"github.com/ganot/progen/internal/domain/round"
	"github.com/ganot/progen/internal/domain/session"
)

// Service orchestrates the multi-round planning collaboration. Every turn is
// persisted before and after the model call, so a run that dies anywhere can
// be resumed without repeating finished work.
type Service struct {
	sessions  *session.Service
	invoker   agent.Invoker
	rounds    *round.Registry
	notifier  Notifier
	startDate time.Time
	logger    *slog.Logger

	mu sync.Mutex // guards shared session state during expert fan-out
}

// NewService creates the planning orchestrator. startDate anchors all
// computed schedules.
func NewService(
	sessions *session.Service,
	invoker agent.Invoker,
	rounds *round.Registry,
	notifier Notifier,
	startDate time.Time,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, Event) {})
	}
	return &Service{
		sessions:  sessions,
		invoker:   invoker,
		rounds:    rounds,
		notifier:  notifier,
		startDate: startDate,
		logger:    logger,
	}
}

// GenerateRequest starts or resumes a program generation.
type GenerateRequest struct {
	// SessionID resumes an existing session when set; the remaining fields
	// are then ignored in favor of the stored inputs.
	SessionID        string
	UserID           string
	ProgramName      string
	Requirements     string
	ExternalInsights string
	Budget           float64
	Resources        []resource.Resource
}

// GenerateResult is the outcome of one Generate call.
type GenerateResult struct {
	Session  *session.Session
	Program  *Program
	Resumed  bool
	NewTurns int
}

// Generate runs the planning protocol to completion. Calling it again with
// the session id of a completed session returns the cached program without
// invoking any agent. Calling it with the id of an interrupted session picks
// up at the first round without a complete synthesis.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	sess, resumed, err := s.openSession(ctx, req)
	if err != nil {
		return nil, err
	}

	if sess.Status == session.StatusCompleted && len(sess.ProgramJSON) > 0 {
		var prog Program
		if err := json.Unmarshal(sess.ProgramJSON, &prog); err != nil {
			return nil, fmt.Errorf("decoding cached program: %w", err)
		}
		return &GenerateResult{Session: sess, Program: &prog, Resumed: true}, nil
	}

	pool, err := decodePool(sess.ResourcesJSON)
	if err != nil {
		return nil, err
	}

	rp, err := s.sessions.Resume(ctx, sess.ID)
	if err != nil {
		return nil, s.fail(ctx, sess, err)
	}
	if resumed {
		s.notifier.Notify(ctx, Event{
			Type:      activity.TypeResume,
			SessionID: sess.ID,
			Round:     rp.NextRound,
			Message:   fmt.Sprintf("resuming at round %d", rp.NextRound),
		})
		skipped := rp.NextRound - 1
		if rp.Completed {
			skipped = rp.NextRound
		}
		for r := 1; r <= skipped; r++ {
			s.notifier.Notify(ctx, Event{
				Type:            activity.TypeRoundComplete,
				SessionID:       sess.ID,
				Round:           r,
				PercentComplete: 100 * r / s.rounds.Total(),
				Message:         "already complete",
			})
		}
	}

	result := &GenerateResult{Session: sess, Resumed: resumed}
	var warnings []string

	if !rp.Completed {
		for r := rp.NextRound; r <= s.rounds.Total(); r++ {
			def, ok := s.rounds.Get(r)
			if !ok {
				return nil, s.fail(ctx, sess, fmt.Errorf("unknown round %d", r))
			}

			warn, err := s.runRound(ctx, sess, def, rp, result)
			if err != nil {
				return nil, s.fail(ctx, sess, err)
			}
			warnings = append(warnings, warn...)

			if err := s.sessions.MarkRoundComplete(ctx, sess, r); err != nil {
				return nil, s.fail(ctx, sess, err)
			}
			s.notifier.Notify(ctx, Event{
				Type:            activity.TypeRoundComplete,
				SessionID:       sess.ID,
				Round:           r,
				PercentComplete: 100 * r / s.rounds.Total(),
				Message:         def.Name,
			})
		}
	}

	turns, err := s.sessions.Conversation(ctx, sess.ID)
	if err != nil {
		return nil, s.fail(ctx, sess, err)
	}

	prog := Assemble(sess, turns, pool, s.startDate)
	prog.Warnings = append(prog.Warnings, warnings...)

	data, err := json.Marshal(prog)
	if err != nil {
		return nil, s.fail(ctx, sess, fmt.Errorf("encoding program: %w", err))
	}
	if err := s.sessions.SetCompleted(ctx, sess, data); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Event{
		Type:            activity.TypeComplete,
		SessionID:       sess.ID,
		PercentComplete: 100,
		Message:         fmt.Sprintf("program assembled: %d workstreams over %d months", len(prog.Workstreams), prog.Timeline.TotalMonths),
	})

	result.Program = prog
	return result, nil
}

// GetProgram returns the cached program of a completed session.
func (s *Service) GetProgram(ctx context.Context, sessionID string) (*Program, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusCompleted || len(sess.ProgramJSON) == 0 {
		return nil, ErrProgramNotReady
	}
	var prog Program
	if err := json.Unmarshal(sess.ProgramJSON, &prog); err != nil {
		return nil, fmt.Errorf("decoding cached program: %w", err)
	}
	return &prog, nil
}

func (s *Service) openSession(ctx context.Context, req GenerateRequest) (*session.Session, bool, error) {
	if req.SessionID != "" {
		sess, err := s.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return nil, false, err
		}
		return sess, true, nil
	}

	var resourcesJSON []byte
	if len(req.Resources) > 0 {
		data, err := json.Marshal(req.Resources)
		if err != nil {
			return nil, false, fmt.Errorf("encoding resources: %w", err)
		}
		resourcesJSON = data
	}

	sess, err := s.sessions.Create(ctx, session.CreateRequest{
		UserID:           req.UserID,
		ProgramName:      req.ProgramName,
		Requirements:     req.Requirements,
		ExternalInsights: req.ExternalInsights,
		Budget:           req.Budget,
		ResourcesJSON:    resourcesJSON,
	})
	if err != nil {
		return nil, false, err
	}
	s.notifier.Notify(ctx, Event{
		Type:      activity.TypeSessionCreated,
		SessionID: sess.ID,
		Message:   sess.ProgramName,
	})
	return sess, false, nil
}

// runRound executes one round: expert fan-out, synthesis, and conflict
// resolution when the definition calls for it. It returns soft warnings; a
// returned error is fatal for the run (but not for the persisted turns).
func (s *Service) runRound(ctx context.Context, sess *session.Session, def *round.Definition, rp *session.ResumePoint, result *GenerateResult) ([]string, error) {
	if err := s.sessions.SetRound(ctx, sess, def.Round); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Event{
		Type:      activity.TypeRoundStart,
		SessionID: sess.ID,
		Round:     def.Round,
		Message:   def.Name,
	})

	prior, err := s.sessions.Conversation(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	// Participants whose output already exists are skipped; that is the
	// whole resume contract.
	done := make(map[string]bool)
	if def.Round == rp.NextRound {
		done = rp.DoneParticipants
	}

	participants := s.rounds.ParticipantIDs(def.Round)
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	var warnings []string
	if !(def.Round == rp.NextRound && rp.NeedsSynthesisOnly) {
		if err := s.runExperts(ctx, sess, def, participants, done, prior, result); err != nil {
			return nil, err
		}
	}

	roundTurns, err := s.sessions.Conversation(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, t := range roundTurns {
		if t.Round == def.Round && t.Kind == session.TurnAgentOutput && t.Status == session.TurnComplete {
			completed++
		}
	}
	var synth *agent.Synthesis
	switch {
	case !def.RequiresSynthesis:
		if completed == 0 {
			warnings = append(warnings,
				fmt.Sprintf("round %d (%s) produced no expert contributions", def.Round, def.Name))
		}
	case completed == 0:
		// Nothing to consolidate. The round still completes: an empty
		// synthesis turn is persisted so resume sees the round as done.
		warnings = append(warnings,
			fmt.Sprintf("round %d (%s) produced no expert contributions; synthesis skipped", def.Round, def.Name))
		if s.logger != nil {
			s.logger.Warn("synthesis skipped",
				"session_id", sess.ID,
				"round", def.Round,
			)
		}
		if err := s.skipSynthesis(ctx, sess, def); err != nil {
			return nil, err
		}
	default:
		synth, err = s.synthesize(ctx, sess, def, roundTurns, result)
		if err != nil {
			return nil, err
		}
	}

	if def.ConflictResolution && synth != nil && len(synth.Conflicts) > 0 {
		if warn := s.resolveConflicts(ctx, sess, def, synth, result); warn != "" {
			warnings = append(warnings, warn)
		}
	}

	return warnings, nil
}

// runExperts fans the round out to its participants. Parallel rounds use an
// errgroup whose goroutines always return nil: one expert failing must not
// cancel its siblings, and a failed turn is recorded rather than propagated.
// Only turn-store errors abort the round.
func (s *Service) runExperts(ctx context.Context, sess *session.Session, def *round.Definition, participants []string, done map[string]bool, prior []session.Turn, result *GenerateResult) error {
	var mu sync.Mutex
	var storeErr error
	prompt := analysisPrompt(sess, def, prior)

	run := func(participant string) {
		if err := s.runExpert(ctx, sess, def, participant, prompt, result); err != nil {
			mu.Lock()
			if storeErr == nil {
				storeErr = err
			}
			mu.Unlock()
		}
	}

	if def.Parallel {
		// Goroutines always return nil: one expert failing must not cancel
		// its siblings.
		var eg errgroup.Group
		for _, participant := range participants {
			if done[participant] {
				continue
			}
			p := participant
			eg.Go(func() error {
				run(p)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for _, participant := range participants {
			if done[participant] {
				continue
			}
			run(participant)
		}
	}

	return storeErr
}

// runExpert performs one participant turn. Model failures are persisted as
// failed turns and swallowed; only persistence failures are returned.
func (s *Service) runExpert(ctx context.Context, sess *session.Session, def *round.Definition, participant, prompt string, result *GenerateResult) error {
	turn, err := s.sessions.BeginTurn(ctx, sess.ID, def.Round, participant, session.TurnAgentOutput)
	if err != nil {
		if errors.Is(err, session.ErrDuplicateTurn) {
			return nil
		}
		return err
	}
	s.notifier.Notify(ctx, Event{
		Type:        activity.TypeAgentStart,
		SessionID:   sess.ID,
		Round:       def.Round,
		Participant: participant,
	})

	res, err := s.invoker.Invoke(ctx, agent.Request{
		SystemPrompt: systemPrompt(participant),
		UserPrompt:   prompt,
		OutputShape:  agent.OutputAnalysis,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("expert turn failed",
				"session_id", sess.ID,
				"round", def.Round,
				"participant", participant,
				"error", err,
			)
		}
		s.notifier.Notify(ctx, Event{
			Type:        activity.TypeAgentFailed,
			SessionID:   sess.ID,
			Round:       def.Round,
			Participant: participant,
			Message:     err.Error(),
		})
		return s.sessions.FailTurn(ctx, turn, err)
	}

	if err := s.sessions.CompleteTurn(ctx, turn, res.Output, res.TokensUsed); err != nil {
		if errors.Is(err, session.ErrDuplicateTurn) {
			return nil
		}
		return err
	}
	s.addTokens(ctx, sess, res.TokensUsed)
	s.countTurn(result)

	s.notifier.Notify(ctx, Event{
		Type:        activity.TypeAgentComplete,
		SessionID:   sess.ID,
		Round:       def.Round,
		Participant: participant,
	})
	return nil
}

// synthesize runs the coordinator over the round's outputs. A failed
// synthesis fails the whole run: the round is not complete without it, and a
// resume will retry exactly this step.
func (s *Service) synthesize(ctx context.Context, sess *session.Session, def *round.Definition, roundTurns []session.Turn, result *GenerateResult) (*agent.Synthesis, error) {
	turn, err := s.sessions.BeginTurn(ctx, sess.ID, def.Round, round.ParticipantCoordinator, session.TurnSynthesis)
	if err != nil {
		if errors.Is(err, session.ErrDuplicateTurn) {
			return findSynthesis(roundTurns, def.Round), nil
		}
		return nil, err
	}
	s.notifier.Notify(ctx, Event{
		Type:      activity.TypeSynthesisStart,
		SessionID: sess.ID,
		Round:     def.Round,
	})

	res, err := s.invoker.Invoke(ctx, agent.Request{
		SystemPrompt: systemPrompt(round.ParticipantCoordinator),
		UserPrompt:   synthesisPrompt(sess, def, roundTurns),
		OutputShape:  agent.OutputSynthesis,
	})
	if err != nil {
		if ferr := s.sessions.FailTurn(ctx, turn, err); ferr != nil {
			return nil, ferr
		}
		return nil, fmt.Errorf("round %d synthesis: %w", def.Round, err)
	}

	if err := s.sessions.CompleteTurn(ctx, turn, res.Output, res.TokensUsed); err != nil && !errors.Is(err, session.ErrDuplicateTurn) {
		return nil, err
	}
	s.addTokens(ctx, sess, res.TokensUsed)
	s.countTurn(result)

	s.notifier.Notify(ctx, Event{
		Type:      activity.TypeSynthesisComplete,
		SessionID: sess.ID,
		Round:     def.Round,
	})
	return res.Output.Synthesis, nil
}

// skipSynthesis completes a round that has no expert output to consolidate.
// No model is invoked; the empty synthesis turn exists so the round counts
// as complete on resume.
func (s *Service) skipSynthesis(ctx context.Context, sess *session.Session, def *round.Definition) error {
	turn, err := s.sessions.BeginTurn(ctx, sess.ID, def.Round, round.ParticipantCoordinator, session.TurnSynthesis)
	if err != nil {
		if errors.Is(err, session.ErrDuplicateTurn) {
			return nil
		}
		return err
	}
	out := agent.Output{
		Kind: agent.OutputSynthesis,
		Synthesis: &agent.Synthesis{
			Summary: fmt.Sprintf("round %d had no expert contributions; synthesis skipped", def.Round),
		},
	}
	if err := s.sessions.CompleteTurn(ctx, turn, out, 0); err != nil && !errors.Is(err, session.ErrDuplicateTurn) {
		return err
	}
	return nil
}

// resolveConflicts runs the coordinator's conflict-resolution turn. Failure
// here degrades to a warning; the synthesis already completed the round.
func (s *Service) resolveConflicts(ctx context.Context, sess *session.Session, def *round.Definition, synth *agent.Synthesis, result *GenerateResult) string {
	turn, err := s.sessions.BeginTurn(ctx, sess.ID, def.Round, round.ParticipantCoordinator, session.TurnConflictResolution)
	if err != nil {
		if errors.Is(err, session.ErrDuplicateTurn) {
			return ""
		}
		return fmt.Sprintf("round %d conflict resolution not started: %v", def.Round, err)
	}
	s.notifier.Notify(ctx, Event{
		Type:      activity.TypeConflictResolutionStart,
		SessionID: sess.ID,
		Round:     def.Round,
	})

	res, err := s.invoker.Invoke(ctx, agent.Request{
		SystemPrompt: systemPrompt(round.ParticipantCoordinator),
		UserPrompt:   resolutionPrompt(sess, def, synth),
		OutputShape:  agent.OutputResolution,
	})
	if err != nil {
		_ = s.sessions.FailTurn(ctx, turn, err)
		return fmt.Sprintf("round %d conflicts left unresolved: %v", def.Round, err)
	}

	if err := s.sessions.CompleteTurn(ctx, turn, res.Output, res.TokensUsed); err != nil && !errors.Is(err, session.ErrDuplicateTurn) {
		return fmt.Sprintf("round %d conflict resolution not persisted: %v", def.Round, err)
	}
	s.addTokens(ctx, sess, res.TokensUsed)
	s.countTurn(result)

	s.notifier.Notify(ctx, Event{
		Type:      activity.TypeConflictResolutionComplete,
		SessionID: sess.ID,
		Round:     def.Round,
	})
	return ""
}

func (s *Service) fail(ctx context.Context, sess *session.Session, cause error) error {
	if err := s.sessions.SetFailed(ctx, sess, cause); err != nil && s.logger != nil {
		s.logger.Error("failed to mark session failed", "session_id", sess.ID, "error", err)
	}
	s.notifier.Notify(ctx, Event{
		Type:      activity.TypeError,
		SessionID: sess.ID,
		Round:     sess.CurrentRound,
		Message:   cause.Error(),
	})
	return cause
}

func (s *Service) addTokens(ctx context.Context, sess *session.Session, tokens int) {
	// Serialized: parallel experts share the session struct.
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sessions.AddTokens(ctx, sess, tokens); err != nil && s.logger != nil {
		s.logger.Warn("failed to record token usage", "session_id", sess.ID, "error", err)
	}
}

func (s *Service) countTurn(result *GenerateResult) {
	// Guarded because parallel experts report through here concurrently.
	s.mu.Lock()
	result.NewTurns++
	s.mu.Unlock()
}

func findSynthesis(turns []session.Turn, roundNum int) *agent.Synthesis {
	for _, t := range turns {
		if t.Round == roundNum && t.Kind == session.TurnSynthesis && t.Status == session.TurnComplete {
			return t.Output.Synthesis
		}
	}
	return nil
}

func decodePool(data []byte) ([]resource.Resource, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var pool []resource.Resource
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("decoding resource pool: %w", err)
	}
	return pool, nil
}
