package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/me/interviewd/pkg/model"
)

// IngestDirectory replaces the engine's view of people and rounds and
// refreshes capacity records. Counters survive snapshots.
func (e *Engine) IngestDirectory(ctx context.Context, snap *model.DirectorySnapshot) error {
	if snap.TakenAt.IsZero() {
		snap.TakenAt = e.now().UTC()
	}
	if err := e.store.ReplaceDirectory(ctx, snap); err != nil {
		return fmt.Errorf("replace directory: %w", err)
	}
	if err := e.tracker.Sync(ctx); err != nil {
		return fmt.Errorf("sync capacities: %w", err)
	}
	e.logger.Info("directory ingested",
		"interviewers", len(snap.Interviewers),
		"candidates", len(snap.Candidates),
		"rounds", len(snap.Rounds))
	return nil
}

// SubmitRequest accepts a new scheduling request into the queue.
func (e *Engine) SubmitRequest(ctx context.Context, req *model.SchedulingRequest) error {
	if req.ID == "" {
		req.ID = "req_" + uuid.New().String()[:8]
	}
	now := e.now().UTC()
	req.State = model.RequestStatePending
	req.CreatedAt = now
	req.UpdatedAt = now

	if err := e.store.CreateRequest(ctx, req); err != nil {
		return fmt.Errorf("create request %s: %w", req.ID, err)
	}
	e.logger.Info("request submitted",
		"request_id", req.ID, "candidate_id", req.CandidateID, "round_id", req.RoundID)
	return nil
}

// OverrideRequest sets or clears the manual override pin on a request.
func (e *Engine) OverrideRequest(ctx context.Context, id string, override bool, reason string) (*model.SchedulingRequest, error) {
	req, err := e.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request %s: %w", id, err)
	}
	if req == nil {
		return nil, model.NewNotFoundError("request", id)
	}
	if req.State.IsTerminal() {
		return nil, &model.APIError{
			Code:    model.ErrConflict,
			Message: fmt.Sprintf("request %s is %s; override has no effect", id, req.State),
		}
	}

	req.ManualOverride = override
	req.OverrideReason = reason
	req.UpdatedAt = e.now().UTC()
	if err := e.store.UpdateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("update request %s: %w", id, err)
	}
	e.queue.Upsert(req)
	e.logger.Info("override updated", "request_id", id, "override", override, "reason", reason)
	return req, nil
}

// WithdrawRequest removes a request from competition. Its pipeline entry is
// kept for the audit trail.
func (e *Engine) WithdrawRequest(ctx context.Context, id string) error {
	req, err := e.store.GetRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("get request %s: %w", id, err)
	}
	if req == nil {
		return model.NewNotFoundError("request", id)
	}
	if req.State.IsTerminal() {
		return nil
	}

	req.State = model.RequestStateWithdrawn
	req.UpdatedAt = e.now().UTC()
	if err := e.store.UpdateRequest(ctx, req); err != nil {
		return fmt.Errorf("update request %s: %w", id, err)
	}
	e.queue.Remove(id)
	e.clearReported(id)
	e.logger.Info("request withdrawn", "request_id", id)
	return nil
}

// RankedQueue returns the current competitive ordering of pending requests.
func (e *Engine) RankedQueue() []*model.SchedulingRequest {
	return e.queue.Ordered()
}

// SlotConfirmed applies a candidate's slot choice: the interview moves to
// slot_confirmed, the assignment intent goes out, and the instance advances
// to notified. Duplicate deliveries are silent no-ops.
func (e *Engine) SlotConfirmed(ctx context.Context, ev *model.SlotConfirmation) (*model.InterviewInstance, error) {
	iv, err := e.findInterview(ctx, ev)
	if err != nil {
		return nil, err
	}

	switch iv.State {
	case model.InterviewStateSlotsGenerated:
		if _, err := e.coordinator.Apply(ctx, iv.ID, model.InterviewStateSlotConfirmed, "candidate confirmation"); err != nil {
			return nil, err
		}
	case model.InterviewStateSlotConfirmed:
		// Redelivery after a failed intent emission; emit again below.
	default:
		// Already notified or further along.
		return iv, nil
	}

	intent := &model.AssignmentIntent{
		InterviewID:    iv.ID,
		CandidateID:    iv.CandidateID,
		InterviewerIDs: iv.InterviewerIDs,
		Slot:           iv.Slot,
		EmittedAt:      e.now().UTC(),
	}
	if err := e.emitter.EmitAssignment(ctx, intent); err != nil {
		// Delivery failures are retryable; the instance stays in
		// slot_confirmed so the intent can be re-sent.
		return nil, fmt.Errorf("emit assignment intent for %s: %w", iv.ID, err)
	}

	iv, err = e.coordinator.Apply(ctx, iv.ID, model.InterviewStateNotified, "assignment intent emitted")
	if err != nil && !errors.Is(err, model.ErrDuplicateTransition) {
		return nil, err
	}
	return iv, nil
}

// findInterview resolves a slot confirmation to its interview, by id when
// given or by (candidate, slot) otherwise.
func (e *Engine) findInterview(ctx context.Context, ev *model.SlotConfirmation) (*model.InterviewInstance, error) {
	if ev.InterviewID != "" {
		iv, err := e.store.GetInterview(ctx, ev.InterviewID)
		if err != nil {
			return nil, fmt.Errorf("get interview %s: %w", ev.InterviewID, err)
		}
		if iv == nil {
			return nil, model.NewNotFoundError("interview", ev.InterviewID)
		}
		return iv, nil
	}

	waiting, err := e.store.GetInterviewsByState(ctx, model.InterviewStateSlotsGenerated)
	if err != nil {
		return nil, err
	}
	for _, iv := range waiting {
		if iv.CandidateID == ev.CandidateID && iv.Slot.Key() == ev.Slot.Key() {
			return iv, nil
		}
	}
	return nil, model.NewNotFoundError("interview for candidate", ev.CandidateID)
}

// Join routes a presence event to the interview's live window.
func (e *Engine) Join(ctx context.Context, ev *model.JoinEvent) {
	e.monitor.MarkJoined(ev.InterviewID, ev.ParticipantID, ev.JoinedAt)
}

// Feedback closes out an interview once the feedback collaborator reports
// in. An interview still inside its live window completes first.
func (e *Engine) Feedback(ctx context.Context, ev *model.FeedbackEvent) (*model.InterviewInstance, error) {
	iv, err := e.store.GetInterview(ctx, ev.InterviewID)
	if err != nil {
		return nil, fmt.Errorf("get interview %s: %w", ev.InterviewID, err)
	}
	if iv == nil {
		return nil, model.NewNotFoundError("interview", ev.InterviewID)
	}

	if iv.State == model.InterviewStateInProgress {
		if _, err := e.coordinator.Apply(ctx, iv.ID, model.InterviewStateCompleted, "feedback received"); err != nil &&
			!errors.Is(err, model.ErrDuplicateTransition) {
			return nil, err
		}
		e.monitor.Cancel(iv.ID)
	}

	iv, err = e.coordinator.Apply(ctx, iv.ID, model.InterviewStateClosed, "feedback received")
	if errors.Is(err, model.ErrDuplicateTransition) {
		return iv, nil
	}
	return iv, err
}
