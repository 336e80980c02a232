package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/logging"
	"github.com/me/interviewd/internal/notify"
	"github.com/me/interviewd/internal/store"
	"github.com/me/interviewd/pkg/model"
)

func testCoordinator(t *testing.T) (*Coordinator, store.Store, *notify.Recorder) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rec := notify.NewRecorder()
	c := NewCoordinator(st, config.Default().Engine.SLA, rec, logging.Discard())
	return c, st, rec
}

func beginInterview(t *testing.T, c *Coordinator, id string) *model.InterviewInstance {
	t.Helper()
	iv := &model.InterviewInstance{
		ID:          id,
		RequestID:   "req_1",
		CandidateID: "cand_1",
		RoundID:     "round_1",
		Slot: model.Slot{
			Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
		},
		InterviewerIDs: []string{"int_1"},
	}
	if err := c.Begin(context.Background(), iv, "assignment"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return iv
}

func TestBegin_ArmsSLA(t *testing.T) {
	c, st, _ := testCoordinator(t)
	beginInterview(t, c, "iv_1")

	iv, err := st.GetInterview(context.Background(), "iv_1")
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if iv.State != model.InterviewStateCreated {
		t.Errorf("state = %s, want CREATED", iv.State)
	}
	if len(iv.History) != 1 || iv.History[0].TriggeredBy != "assignment" {
		t.Errorf("history = %+v", iv.History)
	}
	if iv.SLADeadline == nil || iv.SLAStatus != model.SLAStatusOnTrack {
		t.Errorf("SLA not armed: deadline=%v status=%s", iv.SLADeadline, iv.SLAStatus)
	}
}

func TestApply_WalksFullLifecycle(t *testing.T) {
	c, st, _ := testCoordinator(t)
	beginInterview(t, c, "iv_1")
	ctx := context.Background()

	steps := []model.InterviewState{
		model.InterviewStateSlotsGenerated,
		model.InterviewStateSlotConfirmed,
		model.InterviewStateNotified,
		model.InterviewStateInProgress,
		model.InterviewStateCompleted,
		model.InterviewStateClosed,
	}
	for _, s := range steps {
		if _, err := c.Apply(ctx, "iv_1", s, "test"); err != nil {
			t.Fatalf("Apply(%s): %v", s, err)
		}
	}

	iv, _ := st.GetInterview(ctx, "iv_1")
	if iv.State != model.InterviewStateClosed {
		t.Fatalf("state = %s, want CLOSED", iv.State)
	}
	if iv.ClosedAt == nil {
		t.Error("ClosedAt not set on terminal state")
	}
	if len(iv.History) != len(steps)+1 {
		t.Errorf("history length = %d, want %d", len(iv.History), len(steps)+1)
	}
	for i := 1; i < len(iv.History); i++ {
		if iv.History[i].Timestamp.Before(iv.History[i-1].Timestamp) {
			t.Errorf("history timestamps not monotonic at %d", i)
		}
	}
}

func TestApply_InProgressHasNoSLA(t *testing.T) {
	c, st, _ := testCoordinator(t)
	beginInterview(t, c, "iv_1")
	ctx := context.Background()

	for _, s := range []model.InterviewState{
		model.InterviewStateSlotsGenerated,
		model.InterviewStateSlotConfirmed,
		model.InterviewStateNotified,
		model.InterviewStateInProgress,
	} {
		if _, err := c.Apply(ctx, "iv_1", s, "test"); err != nil {
			t.Fatalf("Apply(%s): %v", s, err)
		}
	}

	iv, _ := st.GetInterview(ctx, "iv_1")
	if iv.SLADeadline != nil {
		t.Errorf("in_progress carries an SLA deadline: %v", iv.SLADeadline)
	}
}

func TestApply_DuplicateTransitionIsNoOp(t *testing.T) {
	c, st, _ := testCoordinator(t)
	beginInterview(t, c, "iv_1")
	ctx := context.Background()

	if _, err := c.Apply(ctx, "iv_1", model.InterviewStateSlotsGenerated, "test"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	before, _ := st.GetInterview(ctx, "iv_1")

	_, err := c.Apply(ctx, "iv_1", model.InterviewStateSlotsGenerated, "redelivery")
	if !errors.Is(err, model.ErrDuplicateTransition) {
		t.Fatalf("err = %v, want ErrDuplicateTransition", err)
	}

	after, _ := st.GetInterview(ctx, "iv_1")
	if len(after.History) != len(before.History) {
		t.Error("duplicate transition appended to history")
	}
}

func TestApply_RejectsIllegalTransition(t *testing.T) {
	c, _, _ := testCoordinator(t)
	beginInterview(t, c, "iv_1")

	_, err := c.Apply(context.Background(), "iv_1", model.InterviewStateCompleted, "test")
	var invalid *model.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != model.InterviewStateCreated || invalid.To != model.InterviewStateCompleted {
		t.Errorf("error = %+v", invalid)
	}
}

func TestApply_NoExitFromClosed(t *testing.T) {
	c, _, _ := testCoordinator(t)
	beginInterview(t, c, "iv_1")
	ctx := context.Background()

	if _, err := c.Apply(ctx, "iv_1", model.InterviewStateCancelled, "test"); err != nil {
		t.Fatalf("Apply(cancel): %v", err)
	}
	for _, s := range []model.InterviewState{
		model.InterviewStateCreated,
		model.InterviewStateInProgress,
		model.InterviewStateClosed,
	} {
		if _, err := c.Apply(ctx, "iv_1", s, "test"); err == nil {
			t.Errorf("transition out of terminal state to %s allowed", s)
		}
	}
}

func TestSweep_OverdueEscalatesOnce(t *testing.T) {
	c, st, rec := testCoordinator(t)
	beginInterview(t, c, "iv_1")
	ctx := context.Background()

	// Jump the clock past the created-state SLA of 24h.
	c.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	if err := c.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	iv, _ := st.GetInterview(ctx, "iv_1")
	if iv.SLAStatus != model.SLAStatusOverdue {
		t.Fatalf("status = %s, want overdue", iv.SLAStatus)
	}
	if len(rec.Escalations) != 1 || rec.Escalations[0].Severity != model.SeverityCritical {
		t.Fatalf("escalations = %+v, want one critical", rec.Escalations)
	}

	// Re-sweeping must not repeat the escalation.
	if err := c.Sweep(ctx); err != nil {
		t.Fatalf("Sweep again: %v", err)
	}
	if len(rec.Escalations) != 1 {
		t.Errorf("escalation repeated: %d", len(rec.Escalations))
	}
}

func TestSweep_AtRiskWarnsBeforeBreach(t *testing.T) {
	c, st, rec := testCoordinator(t)
	beginInterview(t, c, "iv_1")
	ctx := context.Background()

	// 24h SLA with a 4h escalation lead: at +21h the clock is inside the
	// warning band but not yet breached.
	c.now = func() time.Time { return time.Now().Add(21 * time.Hour) }

	if err := c.Sweep(ctx); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	iv, _ := st.GetInterview(ctx, "iv_1")
	if iv.SLAStatus != model.SLAStatusAtRisk {
		t.Fatalf("status = %s, want at_risk", iv.SLAStatus)
	}
	if len(rec.Escalations) != 1 || rec.Escalations[0].Severity != model.SeverityWarning {
		t.Fatalf("escalations = %+v, want one warning", rec.Escalations)
	}

	// Breach later: the overdue escalation still fires.
	c.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if err := c.Sweep(ctx); err != nil {
		t.Fatalf("Sweep after breach: %v", err)
	}
	iv, _ = st.GetInterview(ctx, "iv_1")
	if iv.SLAStatus != model.SLAStatusOverdue {
		t.Fatalf("status = %s, want overdue", iv.SLAStatus)
	}
	if len(rec.Escalations) != 2 {
		t.Errorf("escalations = %d, want warning then breach", len(rec.Escalations))
	}
}

func TestSweep_OnTrackUntouched(t *testing.T) {
	c, st, rec := testCoordinator(t)
	beginInterview(t, c, "iv_1")

	if err := c.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	iv, _ := st.GetInterview(context.Background(), "iv_1")
	if iv.SLAStatus != model.SLAStatusOnTrack {
		t.Errorf("status = %s, want on_track", iv.SLAStatus)
	}
	if len(rec.Escalations) != 0 {
		t.Errorf("unexpected escalations: %+v", rec.Escalations)
	}
}
