// Package swap finds and executes backup substitutions after a candidate
// no-show or cancellation. A confirmed swap re-enters the normal scheduling
// pipeline as a high-priority request; it is never a side channel around the
// ranker and conflict resolver.
package swap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/notify"
	"github.com/me/interviewd/internal/store"
	"github.com/me/interviewd/pkg/model"
)

// Resolver searches the candidate pool for backups and drives swap proposals
// to a decision.
type Resolver struct {
	store   store.Store
	cfg     config.SwapConfig
	emitter notify.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver creates a swap resolver.
func NewResolver(st store.Store, cfg config.SwapConfig, emitter notify.Emitter, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:   st,
		cfg:     cfg,
		emitter: emitter,
		logger:  logger.With("component", "swap"),
		now:     time.Now,
	}
}

// FindBackups returns pending same-round candidates ranked by
// (priority score + availability match) / 2 descending. The no-show
// candidate is excluded. An empty pool returns SwapExhaustedError.
func (r *Resolver) FindBackups(ctx context.Context, iv *model.InterviewInstance) ([]model.BackupCandidate, error) {
	pending, err := r.store.GetRequestsByState(ctx, model.RequestStatePending)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	var backups []model.BackupCandidate
	for _, req := range pending {
		if req.RoundID != iv.RoundID || req.CandidateID == iv.CandidateID {
			continue
		}
		match := availabilityMatch(req, iv.Slot)
		score := 0.0
		if req.Score != nil {
			score = req.Score.Total
		}
		backups = append(backups, model.BackupCandidate{
			RequestID:         req.ID,
			CandidateID:       req.CandidateID,
			PriorityScore:     score,
			AvailabilityMatch: match,
			Rank:              (score + match) / 2,
		})
	}
	if len(backups) == 0 {
		return nil, &model.SwapExhaustedError{InterviewID: iv.ID, RoundID: iv.RoundID}
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Rank != backups[j].Rank {
			return backups[i].Rank > backups[j].Rank
		}
		return backups[i].CandidateID < backups[j].CandidateID
	})
	return backups, nil
}

// availabilityMatch is the 0-100 share of the vacated slot the candidate's
// remaining open slots cover, taking the best single overlap.
func availabilityMatch(req *model.SchedulingRequest, vacated model.Slot) float64 {
	total := vacated.End.Sub(vacated.Start)
	if total <= 0 {
		return 0
	}
	best := time.Duration(0)
	for i := req.SlotCursor; i < len(req.Slots); i++ {
		if o := overlap(req.Slots[i], vacated); o > best {
			best = o
		}
	}
	return float64(best) / float64(total) * 100
}

func overlap(a, b model.Slot) time.Duration {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// Propose searches for a backup after a no-show and either auto-executes the
// top candidate or parks it for operator approval. Auto-execution requires
// both auto mode and an availability match above the configured threshold.
func (r *Resolver) Propose(ctx context.Context, iv *model.InterviewInstance, reason string) (*model.SwapProposal, error) {
	backups, err := r.FindBackups(ctx, iv)
	if err != nil {
		return nil, err
	}
	top := backups[0]

	sp := &model.SwapProposal{
		ID:          uuid.New().String(),
		InterviewID: iv.ID,
		RoundID:     iv.RoundID,
		Vacated:     iv.Slot,
		Replaced:    iv.CandidateID,
		Backup:      top,
		State:       model.SwapStatePendingApproval,
		Reason:      reason,
		CreatedAt:   r.now().UTC(),
	}

	if r.cfg.AutoExecute && top.AvailabilityMatch > r.cfg.Threshold {
		sp.Auto = true
		if err := r.execute(ctx, sp, "auto"); err != nil {
			return nil, err
		}
		if err := r.store.CreateSwap(ctx, sp); err != nil {
			return nil, fmt.Errorf("create swap %s: %w", sp.ID, err)
		}
		r.logger.Info("swap auto-executed",
			"swap_id", sp.ID, "interview_id", iv.ID, "backup", top.CandidateID,
			"match", top.AvailabilityMatch)
		return sp, nil
	}

	if err := r.store.CreateSwap(ctx, sp); err != nil {
		return nil, fmt.Errorf("create swap %s: %w", sp.ID, err)
	}
	ev := &model.SwapEvent{Proposal: *sp, Confirmed: false, EmittedAt: r.now().UTC()}
	if err := r.emitter.EmitSwap(ctx, ev); err != nil {
		r.logger.Error("emit swap proposal", "swap_id", sp.ID, "error", err)
	}
	r.logger.Info("swap pending approval",
		"swap_id", sp.ID, "interview_id", iv.ID, "backup", top.CandidateID,
		"match", top.AvailabilityMatch)
	return sp, nil
}

// execute confirms the proposal and pushes the backup's request back through
// the pipeline pinned to the vacated slot. No calendar or notification side
// effect happens before this point.
func (r *Resolver) execute(ctx context.Context, sp *model.SwapProposal, decidedBy string) error {
	req, err := r.store.GetRequest(ctx, sp.Backup.RequestID)
	if err != nil {
		return fmt.Errorf("get backup request %s: %w", sp.Backup.RequestID, err)
	}
	if req == nil {
		return model.NewNotFoundError("request", sp.Backup.RequestID)
	}

	now := r.now().UTC()

	// Re-enter the pipeline: the vacated slot becomes the request's next
	// claim and the urgency flag makes the ranker treat it accordingly.
	cursor := req.SlotCursor
	if cursor > len(req.Slots) {
		cursor = len(req.Slots)
	}
	remaining := append([]model.Slot{sp.Vacated}, req.Slots[cursor:]...)
	req.Slots = append(req.Slots[:cursor:cursor], remaining...)
	req.SlotCursor = cursor
	req.Urgent = true
	req.State = model.RequestStatePending
	req.UpdatedAt = now
	if err := r.store.UpdateRequest(ctx, req); err != nil {
		return fmt.Errorf("requeue backup request %s: %w", req.ID, err)
	}

	sp.State = model.SwapStateConfirmed
	sp.DecidedAt = &now
	sp.DecidedBy = decidedBy

	ev := &model.SwapEvent{Proposal: *sp, Confirmed: true, EmittedAt: now}
	if err := r.emitter.EmitSwap(ctx, ev); err != nil {
		r.logger.Error("emit swap confirmation", "swap_id", sp.ID, "error", err)
	}
	return nil
}

// Approve confirms a pending proposal by operator decision.
func (r *Resolver) Approve(ctx context.Context, swapID, decidedBy string) (*model.SwapProposal, error) {
	sp, err := r.pending(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if err := r.execute(ctx, sp, decidedBy); err != nil {
		return nil, err
	}
	if err := r.store.UpdateSwap(ctx, sp); err != nil {
		return nil, fmt.Errorf("update swap %s: %w", swapID, err)
	}
	r.logger.Info("swap approved", "swap_id", swapID, "decided_by", decidedBy)
	return sp, nil
}

// Reject declines a pending proposal. The backup request stays in the queue
// untouched; the vacancy goes back to manual rescheduling.
func (r *Resolver) Reject(ctx context.Context, swapID, decidedBy, reason string) (*model.SwapProposal, error) {
	sp, err := r.pending(ctx, swapID)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	sp.State = model.SwapStateRejected
	sp.DecidedAt = &now
	sp.DecidedBy = decidedBy
	if reason != "" {
		sp.Reason = reason
	}
	if err := r.store.UpdateSwap(ctx, sp); err != nil {
		return nil, fmt.Errorf("update swap %s: %w", swapID, err)
	}
	r.logger.Info("swap rejected", "swap_id", swapID, "decided_by", decidedBy)
	return sp, nil
}

// Pending lists proposals awaiting operator decision.
func (r *Resolver) Pending(ctx context.Context) ([]*model.SwapProposal, error) {
	return r.store.GetSwapsByState(ctx, model.SwapStatePendingApproval)
}

func (r *Resolver) pending(ctx context.Context, swapID string) (*model.SwapProposal, error) {
	sp, err := r.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, fmt.Errorf("get swap %s: %w", swapID, err)
	}
	if sp == nil {
		return nil, model.NewNotFoundError("swap", swapID)
	}
	if sp.State != model.SwapStatePendingApproval {
		return nil, &model.APIError{
			Code:    model.ErrConflict,
			Message: fmt.Sprintf("swap %s already decided (%s)", swapID, sp.State),
		}
	}
	return sp, nil
}
