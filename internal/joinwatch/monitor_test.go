package joinwatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/logging"
	"github.com/me/interviewd/internal/notify"
	"github.com/me/interviewd/pkg/model"
)

// fastSchedule compresses the 3m/5m/10m production schedule into
// milliseconds so the full window fits in a test run.
func fastSchedule() config.JoinConfig {
	return config.JoinConfig{
		FirstRetry:  30 * time.Millisecond,
		SecondRetry: 60 * time.Millisecond,
		Window:      120 * time.Millisecond,
	}
}

type noShowCollector struct {
	mu    sync.Mutex
	calls []*model.JoinStatus
	ch    chan struct{}
}

func newNoShowCollector() *noShowCollector {
	return &noShowCollector{ch: make(chan struct{}, 8)}
}

func (c *noShowCollector) fn(ctx context.Context, iv *model.InterviewInstance, js *model.JoinStatus) {
	c.mu.Lock()
	c.calls = append(c.calls, js)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func (c *noShowCollector) snapshot() []*model.JoinStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.JoinStatus(nil), c.calls...)
}

func liveInterview(id string) *model.InterviewInstance {
	now := time.Now()
	return &model.InterviewInstance{
		ID:             id,
		CandidateID:    "cand_1",
		RoundID:        "round_1",
		State:          model.InterviewStateInProgress,
		Slot:           model.Slot{Start: now, End: now.Add(time.Hour)},
		InterviewerIDs: []string{"int_1"},
	}
}

func waitClosed(t *testing.T, m *Monitor, interviewID string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for m.Watching(interviewID) {
		select {
		case <-deadline:
			t.Fatal("window never closed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestMonitor_NobodyJoins(t *testing.T) {
	rec := notify.NewRecorder()
	collector := newNoShowCollector()
	m := NewMonitor(fastSchedule(), rec, collector.fn, logging.Discard())

	m.Watch(context.Background(), liveInterview("iv_1"))
	waitClosed(t, m, "iv_1")

	// Exactly two retry nudges precede finalization, then the interviewer
	// no-show escalates.
	reasons := rec.EscalationReasons()
	if len(reasons) != 3 {
		t.Fatalf("escalations = %v, want retry, second retry, interviewer no-show", reasons)
	}
	if reasons[0] != "join retry" || reasons[1] != "second join retry" {
		t.Errorf("retry sequence = %v", reasons[:2])
	}
	if rec.Escalations[1].Severity != model.SeverityWarning {
		t.Errorf("second retry severity = %s, want warning", rec.Escalations[1].Severity)
	}
	if rec.Escalations[2].Severity != model.SeverityCritical {
		t.Errorf("no-show severity = %s, want critical", rec.Escalations[2].Severity)
	}

	// Both participants were declared, each exactly once.
	calls := collector.snapshot()
	if len(calls) != 2 {
		t.Fatalf("no-show declarations = %d, want 2", len(calls))
	}
	kinds := map[model.JoinKind]int{}
	for _, js := range calls {
		if !js.NoShow {
			t.Errorf("participant %s not flagged no-show", js.ParticipantID)
		}
		kinds[js.Kind]++
	}
	if kinds[model.JoinKindCandidate] != 1 || kinds[model.JoinKindInterviewer] != 1 {
		t.Errorf("declared kinds = %v", kinds)
	}
}

func TestMonitor_EveryoneJoinsBeforeFirstRetry(t *testing.T) {
	rec := notify.NewRecorder()
	collector := newNoShowCollector()
	m := NewMonitor(fastSchedule(), rec, collector.fn, logging.Discard())

	m.Watch(context.Background(), liveInterview("iv_1"))
	m.MarkJoined("iv_1", "cand_1", time.Now())
	m.MarkJoined("iv_1", "int_1", time.Now())
	waitClosed(t, m, "iv_1")

	if got := rec.EscalationReasons(); len(got) != 0 {
		t.Errorf("escalations for fully-joined interview: %v", got)
	}
	if calls := collector.snapshot(); len(calls) != 0 {
		t.Errorf("no-show declarations for fully-joined interview: %d", len(calls))
	}
}

func TestMonitor_LateJoinerSkipsRemainingRetries(t *testing.T) {
	rec := notify.NewRecorder()
	m := NewMonitor(fastSchedule(), rec, nil, logging.Discard())

	m.Watch(context.Background(), liveInterview("iv_1"))

	// Join between the first and second retry checkpoints.
	time.Sleep(45 * time.Millisecond)
	m.MarkJoined("iv_1", "cand_1", time.Now())
	m.MarkJoined("iv_1", "int_1", time.Now())
	waitClosed(t, m, "iv_1")

	reasons := rec.EscalationReasons()
	for _, r := range reasons {
		if r == "second join retry" {
			t.Errorf("second retry sent after everyone joined: %v", reasons)
		}
	}
}

func TestMonitor_CancelStopsTimers(t *testing.T) {
	rec := notify.NewRecorder()
	collector := newNoShowCollector()
	m := NewMonitor(fastSchedule(), rec, collector.fn, logging.Discard())

	m.Watch(context.Background(), liveInterview("iv_1"))
	m.Cancel("iv_1")

	time.Sleep(150 * time.Millisecond)
	if got := rec.EscalationReasons(); len(got) != 0 {
		t.Errorf("cancelled window still fired: %v", got)
	}
	if calls := collector.snapshot(); len(calls) != 0 {
		t.Errorf("cancelled window declared no-shows: %d", len(calls))
	}
}

func TestMonitor_NoShowCallbackMayCancelOwnWatch(t *testing.T) {
	rec := notify.NewRecorder()
	returned := make(chan struct{}, 2)
	var m *Monitor
	m = NewMonitor(fastSchedule(), rec, func(ctx context.Context, iv *model.InterviewInstance, js *model.JoinStatus) {
		// Downstream consumers tear the window down from inside the
		// declaration, the way the engine does after a candidate no-show.
		m.Cancel(iv.ID)
		returned <- struct{}{}
	}, logging.Discard())

	m.Watch(context.Background(), liveInterview("iv_1"))
	m.MarkJoined("iv_1", "int_1", time.Now())

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("no-show callback never returned")
	}
	waitClosed(t, m, "iv_1")
}

func TestMonitor_ManualNoShow(t *testing.T) {
	rec := notify.NewRecorder()
	collector := newNoShowCollector()
	m := NewMonitor(fastSchedule(), rec, collector.fn, logging.Discard())

	m.Watch(context.Background(), liveInterview("iv_1"))
	if err := m.MarkNoShow(context.Background(), "iv_1", "cand_1"); err != nil {
		t.Fatalf("MarkNoShow: %v", err)
	}

	select {
	case <-collector.ch:
	case <-time.After(time.Second):
		t.Fatal("manual no-show never reached the callback")
	}
	calls := collector.snapshot()
	if len(calls) != 1 || calls[0].Kind != model.JoinKindCandidate {
		t.Fatalf("calls = %+v", calls)
	}

	// The window finalize must not re-declare the same participant.
	waitClosed(t, m, "iv_1")
	candidateDeclarations := 0
	for _, js := range collector.snapshot() {
		if js.ParticipantID == "cand_1" {
			candidateDeclarations++
		}
	}
	if candidateDeclarations != 1 {
		t.Errorf("candidate declared no-show %d times, want 1", candidateDeclarations)
	}
}

func TestMonitor_ManualRetry(t *testing.T) {
	rec := notify.NewRecorder()
	m := NewMonitor(fastSchedule(), rec, nil, logging.Discard())

	m.Watch(context.Background(), liveInterview("iv_1"))
	if err := m.Retry(context.Background(), "iv_1"); err != nil {
		t.Fatalf("Retry: %v", err)
	}

	found := false
	for _, r := range rec.EscalationReasons() {
		if r == "manual join retry" {
			found = true
		}
	}
	if !found {
		t.Errorf("manual retry not emitted: %v", rec.EscalationReasons())
	}
	m.Cancel("iv_1")
}

func TestMonitor_UnknownInterview(t *testing.T) {
	m := NewMonitor(fastSchedule(), notify.NewRecorder(), nil, logging.Discard())

	if err := m.Retry(context.Background(), "iv_missing"); err == nil {
		t.Error("Retry on unknown interview succeeded")
	}
	if err := m.MarkNoShow(context.Background(), "iv_missing", "cand_1"); err == nil {
		t.Error("MarkNoShow on unknown interview succeeded")
	}
	if _, ok := m.Status("iv_missing"); ok {
		t.Error("Status reported an unknown interview")
	}
}
