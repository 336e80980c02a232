// Package notify carries the engine's outbound events to its collaborators.
// The engine never sends calendar invites or chat messages itself; it emits
// intents and escalations and the collaborators act on them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/pkg/model"
)

// Emitter abstracts outbound event delivery for testability.
type Emitter interface {
	EmitAssignment(ctx context.Context, intent *model.AssignmentIntent) error
	EmitEscalation(ctx context.Context, ev *model.EscalationEvent) error
	EmitSwap(ctx context.Context, ev *model.SwapEvent) error
}

// Log emits events to the structured log only. It is the fallback when no
// webhook endpoint is configured.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log-only emitter.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger.With("component", "notify")}
}

func (l *Log) EmitAssignment(ctx context.Context, intent *model.AssignmentIntent) error {
	l.logger.Info("assignment intent",
		"interview_id", intent.InterviewID,
		"candidate_id", intent.CandidateID,
		"interviewers", intent.InterviewerIDs,
		"slot", intent.Slot.Key())
	return nil
}

func (l *Log) EmitEscalation(ctx context.Context, ev *model.EscalationEvent) error {
	l.logger.Warn("escalation",
		"interview_id", ev.InterviewID,
		"reason", ev.Reason,
		"severity", ev.Severity)
	return nil
}

func (l *Log) EmitSwap(ctx context.Context, ev *model.SwapEvent) error {
	l.logger.Info("swap event",
		"interview_id", ev.Proposal.InterviewID,
		"state", ev.Proposal.State,
		"confirmed", ev.Confirmed)
	return nil
}

// Webhook posts events as JSON to per-collaborator endpoints with a bounded
// timeout. Endpoints left empty fall back to log-only emission for that
// event kind; delivery failures are returned as retryable errors, never
// swallowed.
type Webhook struct {
	cfg    config.WebhookConfig
	client *http.Client
	log    *Log
	logger *slog.Logger
}

// NewWebhook creates a webhook emitter from the outbound endpoint config.
func NewWebhook(cfg config.WebhookConfig, logger *slog.Logger) *Webhook {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    NewLog(logger),
		logger: logger.With("component", "notify"),
	}
}

func (w *Webhook) EmitAssignment(ctx context.Context, intent *model.AssignmentIntent) error {
	if w.cfg.Calendar == "" {
		return w.log.EmitAssignment(ctx, intent)
	}
	return w.post(ctx, w.cfg.Calendar, "assignment", intent)
}

func (w *Webhook) EmitEscalation(ctx context.Context, ev *model.EscalationEvent) error {
	if w.cfg.Alerting == "" {
		return w.log.EmitEscalation(ctx, ev)
	}
	return w.post(ctx, w.cfg.Alerting, "escalation", ev)
}

func (w *Webhook) EmitSwap(ctx context.Context, ev *model.SwapEvent) error {
	if w.cfg.ATS == "" {
		return w.log.EmitSwap(ctx, ev)
	}
	return w.post(ctx, w.cfg.ATS, "swap", ev)
}

func (w *Webhook) post(ctx context.Context, url, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	w.logger.Debug("webhook post", "kind", kind, "url", url)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s event: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("deliver %s event: HTTP %d: %s", kind, resp.StatusCode, string(respBody))
	}
	return nil
}

// Recorder captures emitted events in memory for tests.
type Recorder struct {
	mu          sync.Mutex
	Assignments []*model.AssignmentIntent
	Escalations []*model.EscalationEvent
	Swaps       []*model.SwapEvent
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) EmitAssignment(ctx context.Context, intent *model.AssignmentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Assignments = append(r.Assignments, intent)
	return nil
}

func (r *Recorder) EmitEscalation(ctx context.Context, ev *model.EscalationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Escalations = append(r.Escalations, ev)
	return nil
}

func (r *Recorder) EmitSwap(ctx context.Context, ev *model.SwapEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Swaps = append(r.Swaps, ev)
	return nil
}

// EscalationReasons returns the recorded escalation reasons in emission
// order.
func (r *Recorder) EscalationReasons() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Escalations))
	for i, ev := range r.Escalations {
		out[i] = ev.Reason
	}
	return out
}
