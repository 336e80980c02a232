// Package joinwatch runs the live-window presence monitor for in-progress
// interviews. Each watched interview owns an independent, cancellable timer
// sequence: a first retry nudge, a second retry with early escalation, and a
// final no-show declaration when the window closes.
package joinwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/notify"
	"github.com/me/interviewd/pkg/model"
)

// NoShowFunc is invoked once per participant declared a no-show. Candidate
// no-shows feed the swap resolver; interviewer no-shows escalate.
type NoShowFunc func(ctx context.Context, iv *model.InterviewInstance, js *model.JoinStatus)

// Monitor tracks participant presence for interviews inside their live
// window.
type Monitor struct {
	mu       sync.Mutex
	cfg      config.JoinConfig
	emitter  notify.Emitter
	onNoShow NoShowFunc
	logger   *slog.Logger
	watches  map[string]*watch
	now      func() time.Time
}

type watch struct {
	iv           *model.InterviewInstance
	participants map[string]*model.JoinStatus
	cancel       context.CancelFunc
}

// NewMonitor creates a join monitor. onNoShow may be nil when no downstream
// consumer is wired.
func NewMonitor(cfg config.JoinConfig, emitter notify.Emitter, onNoShow NoShowFunc, logger *slog.Logger) *Monitor {
	return &Monitor{
		cfg:      cfg,
		emitter:  emitter,
		onNoShow: onNoShow,
		logger:   logger.With("component", "joinwatch"),
		watches:  make(map[string]*watch),
		now:      time.Now,
	}
}

// Watch opens the live window for an interview and schedules its retry
// sequence relative to the slot start. Watching an already-watched interview
// is a no-op.
func (m *Monitor) Watch(ctx context.Context, iv *model.InterviewInstance) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.watches[iv.ID]; ok {
		return
	}

	w := &watch{
		iv:           iv,
		participants: make(map[string]*model.JoinStatus),
	}
	w.participants[iv.CandidateID] = &model.JoinStatus{
		ParticipantID: iv.CandidateID,
		Kind:          model.JoinKindCandidate,
	}
	for _, id := range iv.InterviewerIDs {
		w.participants[id] = &model.JoinStatus{
			ParticipantID: id,
			Kind:          model.JoinKindInterviewer,
		}
	}

	wctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	m.watches[iv.ID] = w

	m.logger.Info("live window opened",
		"interview_id", iv.ID, "participants", len(w.participants), "slot", iv.Slot.Key())
	go m.run(wctx, w)
}

// run fires the fixed checkpoint sequence. Cancelling the watch cancels all
// pending timers without side effects.
func (m *Monitor) run(ctx context.Context, w *watch) {
	defer w.cancel()

	start := w.iv.Slot.Start
	checkpoints := []struct {
		at time.Time
		fn func(context.Context, *watch)
	}{
		{start.Add(m.cfg.FirstRetry), m.firstRetry},
		{start.Add(m.cfg.SecondRetry), m.secondRetry},
		{start.Add(m.cfg.Window), m.finalize},
	}

	for _, cp := range checkpoints {
		wait := cp.at.Sub(m.now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			cp.fn(ctx, w)
		}
		if m.allResolved(w) {
			m.drop(w.iv.ID)
			return
		}
	}
	m.drop(w.iv.ID)
}

func (m *Monitor) firstRetry(ctx context.Context, w *watch) {
	m.retryPending(ctx, w, "join retry", model.SeverityInfo)
}

// secondRetry nudges again and raises the early escalation.
func (m *Monitor) secondRetry(ctx context.Context, w *watch) {
	m.retryPending(ctx, w, "second join retry", model.SeverityWarning)
}

func (m *Monitor) retryPending(ctx context.Context, w *watch, reason string, sev model.Severity) {
	m.mu.Lock()
	var pending []*model.JoinStatus
	for _, js := range w.participants {
		if !js.Joined && !js.NoShow {
			js.RetryCount++
			pending = append(pending, js)
		}
	}
	m.mu.Unlock()

	if len(pending) == 0 {
		return
	}
	ev := &model.EscalationEvent{
		InterviewID: w.iv.ID,
		Reason:      reason,
		Severity:    sev,
		EmittedAt:   m.now().UTC(),
	}
	if err := m.emitter.EmitEscalation(ctx, ev); err != nil {
		m.logger.Error("retry notification", "interview_id", w.iv.ID, "error", err)
	}
	m.logger.Info("join retry sent",
		"interview_id", w.iv.ID, "reason", reason, "pending", len(pending))
}

// finalize declares every participant still absent at window close a
// no-show, exactly once.
func (m *Monitor) finalize(ctx context.Context, w *watch) {
	m.mu.Lock()
	var absent []*model.JoinStatus
	for _, js := range w.participants {
		if !js.Joined && !js.NoShow {
			js.NoShow = true
			absent = append(absent, js)
		}
	}
	m.mu.Unlock()

	// Declarations outlive the watch: a consumer may cancel the watch from
	// inside its callback, and the remaining participants still get
	// declared and delivered.
	ctx = context.WithoutCancel(ctx)
	for _, js := range absent {
		m.declareNoShow(ctx, w.iv, js)
	}
}

func (m *Monitor) declareNoShow(ctx context.Context, iv *model.InterviewInstance, js *model.JoinStatus) {
	m.logger.Warn("participant no-show",
		"interview_id", iv.ID, "participant_id", js.ParticipantID, "kind", js.Kind)

	if js.Kind == model.JoinKindInterviewer {
		ev := &model.EscalationEvent{
			InterviewID: iv.ID,
			Reason:      fmt.Sprintf("interviewer %s no-show", js.ParticipantID),
			Severity:    model.SeverityCritical,
			EmittedAt:   m.now().UTC(),
		}
		if err := m.emitter.EmitEscalation(ctx, ev); err != nil {
			m.logger.Error("no-show escalation", "interview_id", iv.ID, "error", err)
		}
	}
	if m.onNoShow != nil {
		m.onNoShow(ctx, iv, js)
	}
}

// MarkJoined records a presence event from the conferencing collaborator.
// Unknown interviews or participants are ignored; presence events may arrive
// after the window closed.
func (m *Monitor) MarkJoined(interviewID, participantID string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.watches[interviewID]
	if !ok {
		return
	}
	js, ok := w.participants[participantID]
	if !ok || js.Joined || js.NoShow {
		return
	}
	js.Joined = true
	t := at.UTC()
	js.JoinedAt = &t
	m.logger.Debug("participant joined",
		"interview_id", interviewID, "participant_id", participantID)
}

// Retry is the operator override: send a retry nudge to all still-pending
// participants right now.
func (m *Monitor) Retry(ctx context.Context, interviewID string) error {
	m.mu.Lock()
	w, ok := m.watches[interviewID]
	m.mu.Unlock()
	if !ok {
		return model.NewNotFoundError("live window", interviewID)
	}
	m.retryPending(ctx, w, "manual join retry", model.SeverityInfo)
	return nil
}

// MarkNoShow is the operator override: declare one participant a no-show
// before the window closes.
func (m *Monitor) MarkNoShow(ctx context.Context, interviewID, participantID string) error {
	m.mu.Lock()
	w, ok := m.watches[interviewID]
	if !ok {
		m.mu.Unlock()
		return model.NewNotFoundError("live window", interviewID)
	}
	js, jok := w.participants[participantID]
	if !jok {
		m.mu.Unlock()
		return model.NewNotFoundError("participant", participantID)
	}
	if js.NoShow {
		m.mu.Unlock()
		return nil
	}
	js.NoShow = true
	m.mu.Unlock()

	m.declareNoShow(ctx, w.iv, js)
	return nil
}

// Status returns a copy of the join statuses for a watched interview.
func (m *Monitor) Status(interviewID string) ([]model.JoinStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.watches[interviewID]
	if !ok {
		return nil, false
	}
	out := make([]model.JoinStatus, 0, len(w.participants))
	for _, js := range w.participants {
		out = append(out, *js)
	}
	return out, true
}

// Cancel tears down an interview's watch and all its pending timers. It does
// not wait for the watch goroutine, so the NoShowFunc callback may call it
// for the interview that triggered it.
func (m *Monitor) Cancel(interviewID string) {
	m.mu.Lock()
	w, ok := m.watches[interviewID]
	if ok {
		delete(m.watches, interviewID)
	}
	m.mu.Unlock()

	if ok {
		w.cancel()
		m.logger.Info("live window cancelled", "interview_id", interviewID)
	}
}

// Watching reports whether the interview currently has an open live window.
func (m *Monitor) Watching(interviewID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.watches[interviewID]
	return ok
}

func (m *Monitor) allResolved(w *watch) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, js := range w.participants {
		if !js.Joined && !js.NoShow {
			return false
		}
	}
	return true
}

func (m *Monitor) drop(interviewID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.watches, interviewID)
}
