package swap

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

var vacated = model.Slot{
	Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
}

func testResolver(t *testing.T, cfg config.SwapConfig) (*Resolver, store.Store, *notify.Recorder) {
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
	return NewResolver(st, cfg, rec, logging.Discard()), st, rec
}

func vacatedInterview() *model.InterviewInstance {
	return &model.InterviewInstance{
		ID:          "iv_1",
		CandidateID: "cand_noshow",
		RoundID:     "round_1",
		Slot:        vacated,
		State:       model.InterviewStateInProgress,
	}
}

// pendingRequest seeds a pending same-round request whose first open slot
// overlaps the vacated hour for the given share of it.
func pendingRequest(t *testing.T, st store.Store, id, candidateID string, score, matchPercent float64) *model.SchedulingRequest {
	t.Helper()
	overlapDur := time.Duration(float64(time.Hour) * matchPercent / 100)
	req := &model.SchedulingRequest{
		ID:          id,
		CandidateID: candidateID,
		RoundID:     "round_1",
		State:       model.RequestStatePending,
		Slots: []model.Slot{
			{Start: vacated.Start, End: vacated.Start.Add(overlapDur)},
		},
		Score:     &model.PriorityScore{Total: score, Tier: model.TierForScore(score)},
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := st.CreateRequest(context.Background(), req); err != nil {
		t.Fatalf("CreateRequest %s: %v", id, err)
	}
	return req
}

func TestFindBackups_RanksByScoreAndMatch(t *testing.T) {
	r, st, _ := testResolver(t, config.SwapConfig{Threshold: 85})
	pendingRequest(t, st, "req_a", "cand_a", 60, 92)
	pendingRequest(t, st, "req_b", "cand_b", 90, 76)
	pendingRequest(t, st, "req_c", "cand_c", 70, 87)

	backups, err := r.FindBackups(context.Background(), vacatedInterview())
	if err != nil {
		t.Fatalf("FindBackups: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("backups = %d, want 3", len(backups))
	}
	// Ranks: b=(90+76)/2=83, c=(70+87)/2=78.5, a=(60+92)/2=76.
	want := []string{"cand_b", "cand_c", "cand_a"}
	for i, id := range want {
		if backups[i].CandidateID != id {
			t.Errorf("backups[%d] = %s (rank %.1f), want %s", i, backups[i].CandidateID, backups[i].Rank, id)
		}
	}
}

func TestFindBackups_FiltersRoundAndNoShowCandidate(t *testing.T) {
	r, st, _ := testResolver(t, config.SwapConfig{Threshold: 85})
	pendingRequest(t, st, "req_ok", "cand_ok", 70, 90)
	other := pendingRequest(t, st, "req_other_round", "cand_other", 70, 90)
	other.RoundID = "round_2"
	if err := st.UpdateRequest(context.Background(), other); err != nil {
		t.Fatalf("UpdateRequest: %v", err)
	}
	pendingRequest(t, st, "req_noshow", "cand_noshow", 99, 100)

	backups, err := r.FindBackups(context.Background(), vacatedInterview())
	if err != nil {
		t.Fatalf("FindBackups: %v", err)
	}
	if len(backups) != 1 || backups[0].CandidateID != "cand_ok" {
		t.Errorf("backups = %+v, want only cand_ok", backups)
	}
}

func TestFindBackups_Exhausted(t *testing.T) {
	r, _, _ := testResolver(t, config.SwapConfig{Threshold: 85})

	_, err := r.FindBackups(context.Background(), vacatedInterview())
	var exhausted *model.SwapExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want SwapExhaustedError", err)
	}
	if exhausted.InterviewID != "iv_1" || exhausted.RoundID != "round_1" {
		t.Errorf("error attribution = %+v", exhausted)
	}
}

func TestPropose_AutoExecutesAboveThreshold(t *testing.T) {
	r, st, rec := testResolver(t, config.SwapConfig{AutoExecute: true, Threshold: 85})
	pendingRequest(t, st, "req_a", "cand_a", 60, 92)
	pendingRequest(t, st, "req_b", "cand_b", 50, 87)
	pendingRequest(t, st, "req_c", "cand_c", 40, 76)

	sp, err := r.Propose(context.Background(), vacatedInterview(), "candidate no-show")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if sp.State != model.SwapStateConfirmed || !sp.Auto {
		t.Fatalf("proposal = %+v, want auto-confirmed", sp)
	}
	if sp.Backup.CandidateID != "cand_a" {
		t.Errorf("backup = %s, want cand_a (match 92 over threshold 85)", sp.Backup.CandidateID)
	}

	// The backup request re-entered the pipeline claiming the vacated slot.
	req, _ := st.GetRequest(context.Background(), "req_a")
	if !req.Urgent {
		t.Error("backup request not flagged urgent")
	}
	if next := req.NextSlot(); next == nil || !next.Start.Equal(vacated.Start) || !next.End.Equal(vacated.End) {
		t.Errorf("backup next slot = %+v, want the vacated slot", next)
	}

	if len(rec.Swaps) != 1 || !rec.Swaps[0].Confirmed {
		t.Errorf("swap events = %+v, want one confirmation", rec.Swaps)
	}
}

func TestPropose_ManualWhenAutoDisabled(t *testing.T) {
	r, st, rec := testResolver(t, config.SwapConfig{AutoExecute: false, Threshold: 85})
	pendingRequest(t, st, "req_a", "cand_a", 60, 92)

	sp, err := r.Propose(context.Background(), vacatedInterview(), "candidate no-show")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if sp.State != model.SwapStatePendingApproval || sp.Auto {
		t.Fatalf("proposal = %+v, want pending approval", sp)
	}

	// No side effect on the backup request before approval.
	req, _ := st.GetRequest(context.Background(), "req_a")
	if req.Urgent {
		t.Error("backup request mutated before approval")
	}
	if len(rec.Swaps) != 1 || rec.Swaps[0].Confirmed {
		t.Errorf("swap events = %+v, want one unconfirmed proposal", rec.Swaps)
	}
}

func TestPropose_ManualWhenBelowThreshold(t *testing.T) {
	r, st, _ := testResolver(t, config.SwapConfig{AutoExecute: true, Threshold: 85})
	pendingRequest(t, st, "req_a", "cand_a", 90, 76)

	sp, err := r.Propose(context.Background(), vacatedInterview(), "candidate no-show")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if sp.State != model.SwapStatePendingApproval {
		t.Errorf("state = %s, want PENDING_APPROVAL (match 76 under threshold)", sp.State)
	}
}

func TestApprove(t *testing.T) {
	r, st, rec := testResolver(t, config.SwapConfig{AutoExecute: false, Threshold: 85})
	pendingRequest(t, st, "req_a", "cand_a", 60, 92)
	ctx := context.Background()

	sp, err := r.Propose(ctx, vacatedInterview(), "candidate no-show")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	approved, err := r.Approve(ctx, sp.ID, "operator_1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.State != model.SwapStateConfirmed || approved.DecidedBy != "operator_1" {
		t.Errorf("approved = %+v", approved)
	}

	req, _ := st.GetRequest(ctx, "req_a")
	if !req.Urgent {
		t.Error("approved backup request not requeued")
	}

	stored, _ := st.GetSwap(ctx, sp.ID)
	if stored.State != model.SwapStateConfirmed {
		t.Errorf("stored state = %s, want CONFIRMED", stored.State)
	}
	if len(rec.Swaps) != 2 || !rec.Swaps[1].Confirmed {
		t.Errorf("swap events = %+v, want proposal then confirmation", rec.Swaps)
	}

	// A decided swap cannot be decided again.
	if _, err := r.Approve(ctx, sp.ID, "operator_2"); err == nil {
		t.Error("second approval accepted")
	}
}

func TestReject(t *testing.T) {
	r, st, _ := testResolver(t, config.SwapConfig{AutoExecute: false, Threshold: 85})
	pendingRequest(t, st, "req_a", "cand_a", 60, 92)
	ctx := context.Background()

	sp, err := r.Propose(ctx, vacatedInterview(), "candidate no-show")
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	rejected, err := r.Reject(ctx, sp.ID, "operator_1", "candidate withdrew")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.State != model.SwapStateRejected || rejected.Reason != "candidate withdrew" {
		t.Errorf("rejected = %+v", rejected)
	}

	// Rejection leaves the backup request untouched in the queue.
	req, _ := st.GetRequest(ctx, "req_a")
	if req.Urgent || req.State != model.RequestStatePending {
		t.Errorf("rejected backup request mutated: %+v", req)
	}

	pending, err := r.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after rejection = %d, want 0", len(pending))
	}
}

func TestAvailabilityMatch_PartialOverlap(t *testing.T) {
	req := &model.SchedulingRequest{
		Slots: []model.Slot{
			{Start: vacated.Start.Add(30 * time.Minute), End: vacated.End.Add(time.Hour)},
		},
	}
	if got := availabilityMatch(req, vacated); got != 50 {
		t.Errorf("match = %v, want 50 (half-hour overlap of an hour slot)", got)
	}

	// Exhausted slots contribute nothing.
	req.SlotCursor = 1
	if got := availabilityMatch(req, vacated); got != 0 {
		t.Errorf("match past cursor = %v, want 0", got)
	}
}
