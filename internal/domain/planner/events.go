package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ganot/progen/internal/domain/activity"
)

// Event is a progress notification emitted as a generation run advances.
type Event struct {
	Type            activity.EventType `json:"type"`
	SessionID       string             `json:"session_id"`
	Round           int                `json:"round,omitempty"`
	Participant     string             `json:"participant,omitempty"`
	PercentComplete int                `json:"percent_complete,omitempty"`
	Message         string             `json:"message,omitempty"`
}

// Notifier receives progress events. Delivery is fire and forget: a notifier
// must not block generation, and its errors or panics never fail the run.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, ev Event)

func (f NotifierFunc) Notify(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// SlogNotifier logs every event through a structured logger.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Notify(_ context.Context, ev Event) {
	if n.logger == nil {
		return
	}
	n.logger.Info("planner event",
		"type", ev.Type,
		"session_id", ev.SessionID,
		"round", ev.Round,
		"participant", ev.Participant,
		"message", ev.Message,
	)
}

// ActivityNotifier persists events to the session activity log.
type ActivityNotifier struct {
	activities *activity.Service
	logger     *slog.Logger
}

func NewActivityNotifier(activities *activity.Service, logger *slog.Logger) *ActivityNotifier {
	return &ActivityNotifier{activities: activities, logger: logger}
}

func (n *ActivityNotifier) Notify(ctx context.Context, ev Event) {
	entry := &activity.Entry{
		SessionID:   ev.SessionID,
		Round:       ev.Round,
		Participant: ev.Participant,
		EventType:   ev.Type,
		Summary:     ev.Message,
	}
	if entry.Summary == "" {
		entry.Summary = string(ev.Type)
	}
	if details, err := json.Marshal(ev); err == nil {
		entry.Details = string(details)
	}
	if err := n.activities.LogEvent(ctx, entry); err != nil && n.logger != nil {
		n.logger.Warn("failed to persist planner event", "type", ev.Type, "error", err)
	}
}

// MultiNotifier fans events out to several notifiers. A panicking notifier
// is contained so the others still run.
type MultiNotifier struct {
	targets []Notifier
	logger  *slog.Logger
}

func NewMultiNotifier(logger *slog.Logger, targets ...Notifier) *MultiNotifier {
	return &MultiNotifier{targets: targets, logger: logger}
}

func (n *MultiNotifier) Notify(ctx context.Context, ev Event) {
	for _, target := range n.targets {
		n.deliver(ctx, target, ev)
	}
}

func (n *MultiNotifier) deliver(ctx context.Context, target Notifier, ev Event) {
	defer func() {
		if r := recover(); r != nil && n.logger != nil {
			n.logger.Error("notifier panicked", "type", ev.Type, "panic", fmt.Sprint(r))
		}
	}()
	target.Notify(ctx, ev)
}
