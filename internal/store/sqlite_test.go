package store

import (
	"context"
	"testing"
	"time"

	"github.com/me/interviewd/internal/logging"
	"github.com/me/interviewd/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(":memory:", logging.Discard())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testSlot(t *testing.T, start string) model.Slot {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("parse time %q: %v", start, err)
	}
	return model.Slot{Start: ts, End: ts.Add(time.Hour)}
}

func TestRequest_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	req := &model.SchedulingRequest{
		ID:          "req_1",
		CandidateID: "cand_1",
		JobID:       "job_1",
		RoundID:     "round_1",
		State:       model.RequestStatePending,
		Urgent:      true,
		Notice:      model.NoticeTwoWeeks,
		PipelinePos: 3,
		Slots:       []model.Slot{testSlot(t, "2026-03-02T10:00:00Z")},
		Score: &model.PriorityScore{
			Urgency: 90, Stage: 60, Availability: 20, Load: 80, Total: 70.5,
			Tier: model.TierHigh, ComputedAt: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := st.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	got, err := st.GetRequest(ctx, "req_1")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got == nil {
		t.Fatal("GetRequest returned nil")
	}
	if !got.Urgent || got.Notice != model.NoticeTwoWeeks || got.PipelinePos != 3 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Score == nil || got.Score.Total != 70.5 || got.Score.Tier != model.TierHigh {
		t.Errorf("score round-trip mismatch: %+v", got.Score)
	}
	if len(got.Slots) != 1 {
		t.Fatalf("slots round-trip: got %d slots", len(got.Slots))
	}

	got.State = model.RequestStateAssigned
	got.ResolverWins = 2
	got.UpdatedAt = now.Add(time.Minute)
	if err := st.UpdateRequest(ctx, got); err != nil {
		t.Fatalf("UpdateRequest: %v", err)
	}

	again, err := st.GetRequest(ctx, "req_1")
	if err != nil {
		t.Fatalf("GetRequest after update: %v", err)
	}
	if again.State != model.RequestStateAssigned || again.ResolverWins != 2 {
		t.Errorf("update not persisted: %+v", again)
	}
}

func TestGetRequest_NotFound(t *testing.T) {
	st := testStore(t)

	got, err := st.GetRequest(context.Background(), "req_missing")
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got != nil {
		t.Errorf("GetRequest missing = %+v, want nil", got)
	}
}

func TestGetRequestsByState(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, state := range []model.RequestState{
		model.RequestStatePending, model.RequestStatePending, model.RequestStateAssigned,
	} {
		req := &model.SchedulingRequest{
			ID:          "req_" + string(rune('a'+i)),
			CandidateID: "cand_1",
			JobID:       "job_1",
			RoundID:     "round_1",
			State:       state,
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
			UpdatedAt:   now,
		}
		if err := st.CreateRequest(ctx, req); err != nil {
			t.Fatalf("CreateRequest: %v", err)
		}
	}

	pending, err := st.GetRequestsByState(ctx, model.RequestStatePending)
	if err != nil {
		t.Fatalf("GetRequestsByState: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending count = %d, want 2", len(pending))
	}
	// Ordered by creation time.
	if len(pending) == 2 && pending[0].ID != "req_a" {
		t.Errorf("pending[0] = %s, want req_a", pending[0].ID)
	}
}

func TestInterview_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	deadline := now.Add(24 * time.Hour)

	iv := &model.InterviewInstance{
		ID:          "ivw_1",
		RequestID:   "req_1",
		CandidateID: "cand_1",
		JobID:       "job_1",
		RoundID:     "round_1",
		State:       model.InterviewStateCreated,
		History: []model.StateChange{
			{State: model.InterviewStateCreated, Timestamp: now, TriggeredBy: "engine"},
		},
		Slot:           testSlot(t, "2026-03-02T10:00:00Z"),
		InterviewerIDs: []string{"int_1", "int_2"},
		SLADeadline:    &deadline,
		SLAStatus:      model.SLAStatusOnTrack,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := st.CreateInterview(ctx, iv); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	got, err := st.GetInterview(ctx, "ivw_1")
	if err != nil {
		t.Fatalf("GetInterview: %v", err)
	}
	if got == nil {
		t.Fatal("GetInterview returned nil")
	}
	if got.State != model.InterviewStateCreated || len(got.History) != 1 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if len(got.InterviewerIDs) != 2 || got.InterviewerIDs[1] != "int_2" {
		t.Errorf("interviewer ids mismatch: %v", got.InterviewerIDs)
	}
	if got.SLADeadline == nil || !got.SLADeadline.Equal(deadline) {
		t.Errorf("sla deadline mismatch: %v", got.SLADeadline)
	}

	got.State = model.InterviewStateSlotsGenerated
	got.History = append(got.History, model.StateChange{
		State: model.InterviewStateSlotsGenerated, Timestamp: now.Add(time.Minute), TriggeredBy: "ats",
	})
	got.UpdatedAt = now.Add(time.Minute)
	if err := st.UpdateInterview(ctx, got); err != nil {
		t.Fatalf("UpdateInterview: %v", err)
	}

	again, err := st.GetInterview(ctx, "ivw_1")
	if err != nil {
		t.Fatalf("GetInterview after update: %v", err)
	}
	if again.State != model.InterviewStateSlotsGenerated || len(again.History) != 2 {
		t.Errorf("update not persisted: state=%s history=%d", again.State, len(again.History))
	}
}

func TestCapacity_Upsert(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	c := &model.InterviewerCapacity{
		InterviewerID: "int_1",
		Role:          "backend",
		Seniority:     model.SenioritySenior,
		DailyLimit:    4,
		WeeklyLimit:   15,
		Availability:  100,
		Day:           model.DayKey(now),
		Week:          model.WeekKey(now),
		UpdatedAt:     now,
	}
	if err := st.UpsertCapacity(ctx, c); err != nil {
		t.Fatalf("UpsertCapacity: %v", err)
	}

	c.TodayCount = 2
	c.Fatigue = 25
	if err := st.UpsertCapacity(ctx, c); err != nil {
		t.Fatalf("UpsertCapacity update: %v", err)
	}

	got, err := st.GetCapacity(ctx, "int_1")
	if err != nil {
		t.Fatalf("GetCapacity: %v", err)
	}
	if got.TodayCount != 2 || got.Fatigue != 25 {
		t.Errorf("upsert not applied: %+v", got)
	}

	all, err := st.ListCapacities(ctx)
	if err != nil {
		t.Fatalf("ListCapacities: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("ListCapacities = %d rows, want 1", len(all))
	}
}

func TestReplaceDirectory(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	snap := &model.DirectorySnapshot{
		Interviewers: []model.Interviewer{
			{ID: "int_1", Name: "Priya", Role: "backend", Seniority: model.SenioritySenior, DailyLimit: 4, WeeklyLimit: 15},
		},
		Candidates: []model.Candidate{
			{ID: "cand_1", Name: "Sam", Notice: model.NoticeImmediate},
		},
		Rounds: []model.Round{
			{ID: "round_1", JobID: "job_1", Name: "System Design", Type: "system_design",
				PipelinePos: 3, AllowedRoles: []string{"backend", "platform"}, MinSeniority: model.SenioritySenior},
		},
		TakenAt: time.Now().UTC(),
	}
	if err := st.ReplaceDirectory(ctx, snap); err != nil {
		t.Fatalf("ReplaceDirectory: %v", err)
	}

	round, err := st.GetRound(ctx, "round_1")
	if err != nil {
		t.Fatalf("GetRound: %v", err)
	}
	if round == nil || len(round.AllowedRoles) != 2 || round.MinSeniority != model.SenioritySenior {
		t.Errorf("round mismatch: %+v", round)
	}

	// A second snapshot replaces, not appends.
	snap.Rounds = nil
	snap.Candidates = nil
	if err := st.ReplaceDirectory(ctx, snap); err != nil {
		t.Fatalf("ReplaceDirectory second: %v", err)
	}
	round, err = st.GetRound(ctx, "round_1")
	if err != nil {
		t.Fatalf("GetRound after replace: %v", err)
	}
	if round != nil {
		t.Errorf("round survived replacement: %+v", round)
	}
	iv, err := st.GetInterviewer(ctx, "int_1")
	if err != nil {
		t.Fatalf("GetInterviewer: %v", err)
	}
	if iv == nil || iv.Name != "Priya" {
		t.Errorf("interviewer mismatch: %+v", iv)
	}
}

func TestCountWinsSince(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	req := &model.SchedulingRequest{
		ID: "req_w", CandidateID: "cand_1", JobID: "job_1", RoundID: "round_1",
		State: model.RequestStatePending, CreatedAt: now, UpdatedAt: now,
	}
	if err := st.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	for i, age := range []time.Duration{time.Hour, 48 * time.Hour} {
		resolvedAt := now.Add(-age)
		res := &model.ContestedResource{
			ID:            "res_" + string(rune('a'+i)),
			Key:           "k",
			Slot:          testSlot(t, "2026-03-02T10:00:00Z"),
			InterviewerID: "int_1",
			RequestIDs:    []string{"req_w", "req_x"},
			Strategy:      model.StrategyFair,
			WinnerID:      "req_w",
			CreatedAt:     resolvedAt,
			ResolvedAt:    &resolvedAt,
		}
		if err := st.RecordResolution(ctx, res); err != nil {
			t.Fatalf("RecordResolution: %v", err)
		}
	}

	n, err := st.CountWinsSince(ctx, "cand_1", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountWinsSince: %v", err)
	}
	if n != 1 {
		t.Errorf("CountWinsSince = %d, want 1 (old win outside window)", n)
	}
}

func TestSwap_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	sp := &model.SwapProposal{
		ID:          "swap_1",
		InterviewID: "ivw_1",
		RoundID:     "round_1",
		Vacated:     testSlot(t, "2026-03-02T10:00:00Z"),
		Replaced:    "cand_gone",
		Backup: model.BackupCandidate{
			RequestID: "req_2", CandidateID: "cand_2",
			PriorityScore: 70, AvailabilityMatch: 92, Rank: 81,
		},
		State:     model.SwapStatePendingApproval,
		CreatedAt: now,
	}
	if err := st.CreateSwap(ctx, sp); err != nil {
		t.Fatalf("CreateSwap: %v", err)
	}

	pending, err := st.GetSwapsByState(ctx, model.SwapStatePendingApproval)
	if err != nil {
		t.Fatalf("GetSwapsByState: %v", err)
	}
	if len(pending) != 1 || pending[0].Backup.AvailabilityMatch != 92 {
		t.Errorf("pending swaps mismatch: %+v", pending)
	}

	decidedAt := now.Add(time.Minute)
	sp.State = model.SwapStateConfirmed
	sp.DecidedAt = &decidedAt
	sp.DecidedBy = "operator"
	if err := st.UpdateSwap(ctx, sp); err != nil {
		t.Fatalf("UpdateSwap: %v", err)
	}

	got, err := st.GetSwap(ctx, "swap_1")
	if err != nil {
		t.Fatalf("GetSwap: %v", err)
	}
	if got.State != model.SwapStateConfirmed || got.DecidedBy != "operator" {
		t.Errorf("swap update not persisted: %+v", got)
	}
}

func TestOperatorErrors(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	oe := &model.OperatorError{
		ID:         "oe_1",
		Code:       "NO_ELIGIBLE_INTERVIEWER",
		Message:    "no eligible interviewer for round round_1",
		EntityKind: "request",
		EntityID:   "req_1",
		CreatedAt:  now,
	}
	if err := st.CreateOperatorError(ctx, oe); err != nil {
		t.Fatalf("CreateOperatorError: %v", err)
	}

	open, err := st.ListOperatorErrors(ctx, false)
	if err != nil {
		t.Fatalf("ListOperatorErrors: %v", err)
	}
	if len(open) != 1 || open[0].EntityID != "req_1" {
		t.Errorf("open errors mismatch: %+v", open)
	}

	if err := st.ResolveOperatorError(ctx, "oe_1"); err != nil {
		t.Fatalf("ResolveOperatorError: %v", err)
	}
	open, err = st.ListOperatorErrors(ctx, false)
	if err != nil {
		t.Fatalf("ListOperatorErrors after resolve: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("resolved error still listed: %+v", open)
	}
	all, err := st.ListOperatorErrors(ctx, true)
	if err != nil {
		t.Fatalf("ListOperatorErrors all: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("resolved error dropped entirely: %+v", all)
	}
}
