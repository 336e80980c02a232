// Package engine is the coordination core: one polling loop that scores and
// ranks pending requests, resolves contention over scarce slots, confirms
// assignments, and drives confirmed interviews through their lifecycle. The
// queue and the capacity tracker are the only shared mutable stores; every
// other component communicates through them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/conflict"
	"github.com/me/interviewd/internal/joinwatch"
	"github.com/me/interviewd/internal/lifecycle"
	"github.com/me/interviewd/internal/load"
	"github.com/me/interviewd/internal/notify"
	"github.com/me/interviewd/internal/ranker"
	"github.com/me/interviewd/internal/store"
	"github.com/me/interviewd/internal/swap"
	"github.com/me/interviewd/pkg/model"
)

// Engine owns the scheduling components and the coordination loop.
type Engine struct {
	store       store.Store
	cfg         config.EngineConfig
	queue       *ranker.Queue
	ranker      *ranker.Ranker
	tracker     *load.Tracker
	resolver    *conflict.Resolver
	coordinator *lifecycle.Coordinator
	monitor     *joinwatch.Monitor
	swapper     *swap.Resolver
	emitter     notify.Emitter
	logger      *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
	now    func() time.Time

	mu       sync.Mutex
	reported map[string]bool // request ids with an open operator error
}

// New wires the engine from validated configuration.
func New(st store.Store, cfg config.EngineConfig, emitter notify.Emitter, logger *slog.Logger) (*Engine, error) {
	rk, err := ranker.New(cfg.Weights, logger)
	if err != nil {
		return nil, err
	}
	cr, err := conflict.NewResolver(st, cfg.Strategy, cfg.FairWindow, logger)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		store:       st,
		cfg:         cfg,
		queue:       ranker.NewQueue(),
		ranker:      rk,
		tracker:     load.NewTracker(st, cfg.Load, logger),
		resolver:    cr,
		coordinator: lifecycle.NewCoordinator(st, cfg.SLA, emitter, logger),
		swapper:     swap.NewResolver(st, cfg.Swap, emitter, logger),
		emitter:     emitter,
		logger:      logger.With("component", "engine"),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		now:         time.Now,
		reported:    make(map[string]bool),
	}
	e.monitor = joinwatch.NewMonitor(cfg.Join, emitter, e.handleNoShow, logger)
	return e, nil
}

// Monitor exposes the join monitor for operator overrides and presence
// events.
func (e *Engine) Monitor() *joinwatch.Monitor { return e.monitor }

// Swapper exposes the swap resolver for approval endpoints.
func (e *Engine) Swapper() *swap.Resolver { return e.swapper }

// Tracker exposes capacity state for read endpoints.
func (e *Engine) Tracker() *load.Tracker { return e.tracker }

// Strategy reports the active conflict-resolution strategy.
func (e *Engine) Strategy() model.ResolutionStrategy { return e.resolver.Strategy() }

// Start begins the coordination loop. Blocks until ctx is cancelled or Stop
// is called.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("engine started",
		"poll_interval", e.cfg.PollInterval, "strategy", e.cfg.Strategy)
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping (context cancelled)")
			close(e.doneCh)
			return ctx.Err()
		case <-e.stopCh:
			e.logger.Info("engine stopping (stop called)")
			close(e.doneCh)
			return nil
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				e.logger.Error("tick error", "error", err)
			}
		}
	}
}

// Stop shuts the loop down and waits for the current tick to finish.
func (e *Engine) Stop() error {
	close(e.stopCh)
	<-e.doneCh
	return nil
}

// Tick runs a single coordination iteration.
func (e *Engine) Tick(ctx context.Context) error {
	// Phase 1: roll capacity periods and decay fatigue.
	if err := e.tracker.Rebalance(ctx); err != nil {
		return fmt.Errorf("phase 1 (rebalance): %w", err)
	}

	// Phase 2: re-score and re-rank the pending queue.
	if err := e.scorePending(ctx); err != nil {
		return fmt.Errorf("phase 2 (score): %w", err)
	}

	// Phase 3: plan targets, resolve contention, confirm assignments.
	if err := e.assign(ctx); err != nil {
		return fmt.Errorf("phase 3 (assign): %w", err)
	}

	// Phase 4: open live windows and close finished ones.
	if err := e.advanceLive(ctx); err != nil {
		return fmt.Errorf("phase 4 (live): %w", err)
	}

	// Phase 5: sweep SLA deadlines.
	if err := e.coordinator.Sweep(ctx); err != nil {
		return fmt.Errorf("phase 5 (sla): %w", err)
	}
	return nil
}

// scorePending recomputes every pending request's priority against the
// current load snapshot and rebuilds the queue.
func (e *Engine) scorePending(ctx context.Context) error {
	pending, err := e.store.GetRequestsByState(ctx, model.RequestStatePending)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(pending))
	for _, req := range pending {
		round, err := e.store.GetRound(ctx, req.RoundID)
		if err != nil {
			return fmt.Errorf("get round %s: %w", req.RoundID, err)
		}
		avgLoad := 100.0
		if round != nil {
			avgLoad, err = e.tracker.AverageLoad(ctx, round)
			if err != nil {
				return fmt.Errorf("average load for round %s: %w", req.RoundID, err)
			}
		}
		req.Score = e.ranker.Score(req, avgLoad)
		if err := e.store.UpdateRequest(ctx, req); err != nil {
			return fmt.Errorf("persist score for %s: %w", req.ID, err)
		}
		e.queue.Upsert(req)
		seen[req.ID] = true
	}

	// Drop queue entries whose requests are no longer pending.
	for _, q := range e.queue.Ordered() {
		if !seen[q.ID] {
			e.queue.Remove(q.ID)
		}
	}
	return nil
}

// target is a request's desired (slot, interviewer) claim this tick.
type target struct {
	req         *model.SchedulingRequest
	round       *model.Round
	slot        model.Slot
	interviewer string
}

// assign walks the ranked queue, groups claims on the same scarce resource,
// resolves contention, and confirms winners.
func (e *Engine) assign(ctx context.Context) error {
	byResource := make(map[string][]target)
	var order []string

	for _, req := range e.queue.Ordered() {
		slot := req.NextSlot()
		if slot == nil {
			e.reportOnce(ctx, req.ID, "SLOTS_EXHAUSTED", "request",
				fmt.Sprintf("request %s has no compatible slot left", req.ID))
			continue
		}
		round, err := e.store.GetRound(ctx, req.RoundID)
		if err != nil {
			return fmt.Errorf("get round %s: %w", req.RoundID, err)
		}
		if round == nil {
			e.reportOnce(ctx, req.ID, "UNKNOWN_ROUND", "request",
				fmt.Sprintf("request %s names unknown round %s", req.ID, req.RoundID))
			continue
		}
		panel, err := e.tracker.EligiblePanel(ctx, round, true)
		if err != nil {
			return fmt.Errorf("eligible panel for round %s: %w", round.ID, err)
		}
		if len(panel) == 0 {
			e.reportOnce(ctx, req.ID, "NO_ELIGIBLE_INTERVIEWER", "request",
				(&model.NoEligibleInterviewerError{RoundID: round.ID, RequestID: req.ID,
					Detail: "every interviewer is blocked or at capacity"}).Error())
			continue
		}

		t := target{req: req, round: round, slot: *slot, interviewer: panel[0].InterviewerID}
		key := model.ResourceKey(t.slot, t.interviewer)
		if _, ok := byResource[key]; !ok {
			order = append(order, key)
		}
		byResource[key] = append(byResource[key], t)
	}

	for _, key := range order {
		claims := byResource[key]
		if len(claims) == 1 {
			e.confirm(ctx, claims[0])
			continue
		}
		e.resolveContention(ctx, key, claims)
	}
	return nil
}

// resolveContention hands a multi-claimant resource to the conflict
// resolver and confirms the winner.
func (e *Engine) resolveContention(ctx context.Context, key string, claims []target) {
	contested := &model.ContestedResource{
		ID:            "cfl_" + uuid.New().String()[:8],
		Key:           key,
		Slot:          claims[0].slot,
		InterviewerID: claims[0].interviewer,
		Phase:         model.ConflictPhaseOpen,
		CreatedAt:     e.now().UTC(),
	}
	reqs := make([]*model.SchedulingRequest, len(claims))
	for i, c := range claims {
		contested.RequestIDs = append(contested.RequestIDs, c.req.ID)
		reqs[i] = c.req
		c.req.State = model.RequestStateContested
	}

	res, err := e.resolver.Resolve(ctx, contested, reqs)
	if err != nil {
		e.logger.Error("resolve contention", "resource", key, "error", err)
		var noEligible *model.NoEligibleInterviewerError
		if errors.As(err, &noEligible) {
			e.reportOnce(ctx, key, "NO_ELIGIBLE_INTERVIEWER", "resource", err.Error())
		}
		return
	}

	for _, c := range claims {
		if c.req.ID == res.Winner.ID {
			e.confirm(ctx, c)
			return
		}
	}
}

// confirm records load, creates the interview instance, and emits the
// assignment intent. A capacity refusal sends the request back to the queue
// for the next tick.
func (e *Engine) confirm(ctx context.Context, t target) {
	ev := load.Event{
		InterviewerID: t.interviewer,
		Kind:          load.EventAssignment,
		Slot:          t.slot,
		Override:      t.req.ManualOverride,
	}
	if err := e.tracker.Record(ctx, ev); err != nil {
		var capErr *model.CapacityExceededError
		if errors.As(err, &capErr) {
			e.logger.Warn("assignment refused at capacity",
				"request_id", t.req.ID, "interviewer_id", t.interviewer, "load", capErr.Load)
			return
		}
		e.logger.Error("record assignment", "request_id", t.req.ID, "error", err)
		return
	}

	iv := &model.InterviewInstance{
		ID:             "ivw_" + uuid.New().String()[:8],
		RequestID:      t.req.ID,
		CandidateID:    t.req.CandidateID,
		JobID:          t.req.JobID,
		RoundID:        t.req.RoundID,
		Slot:           t.slot,
		InterviewerIDs: []string{t.interviewer},
	}
	if err := e.coordinator.Begin(ctx, iv, "assignment confirmed"); err != nil {
		e.logger.Error("begin interview", "request_id", t.req.ID, "error", err)
		return
	}
	// Slot options already exist on the request, so the instance moves
	// straight to awaiting candidate confirmation.
	if _, err := e.coordinator.Apply(ctx, iv.ID, model.InterviewStateSlotsGenerated, "scheduler"); err != nil {
		e.logger.Error("advance to slots_generated", "interview_id", iv.ID, "error", err)
	}

	now := e.now().UTC()
	t.req.State = model.RequestStateAssigned
	t.req.UpdatedAt = now
	if err := e.store.UpdateRequest(ctx, t.req); err != nil {
		e.logger.Error("mark request assigned", "request_id", t.req.ID, "error", err)
		return
	}
	e.queue.Remove(t.req.ID)
	e.clearReported(t.req.ID)

	e.logger.Info("assignment confirmed",
		"request_id", t.req.ID, "interview_id", iv.ID,
		"interviewer_id", t.interviewer, "slot", t.slot.Key())
}

// advanceLive opens the live window for notified interviews whose slot has
// started and completes in-progress interviews whose slot has ended.
func (e *Engine) advanceLive(ctx context.Context) error {
	now := e.now().UTC()

	notified, err := e.store.GetInterviewsByState(ctx, model.InterviewStateNotified)
	if err != nil {
		return err
	}
	for _, iv := range notified {
		if now.Before(iv.Slot.Start) {
			continue
		}
		if _, err := e.coordinator.Apply(ctx, iv.ID, model.InterviewStateInProgress, "slot started"); err != nil {
			e.logger.Error("open live window", "interview_id", iv.ID, "error", err)
			continue
		}
		e.monitor.Watch(ctx, iv)
	}

	inProgress, err := e.store.GetInterviewsByState(ctx, model.InterviewStateInProgress)
	if err != nil {
		return err
	}
	for _, iv := range inProgress {
		if now.Before(iv.Slot.End) {
			continue
		}
		if _, err := e.coordinator.Apply(ctx, iv.ID, model.InterviewStateCompleted, "slot ended"); err != nil {
			e.logger.Error("complete interview", "interview_id", iv.ID, "error", err)
			continue
		}
		e.monitor.Cancel(iv.ID)
		if err := e.tracker.Record(ctx, load.Event{
			InterviewerID: iv.InterviewerIDs[0],
			Kind:          load.EventCompletion,
			Slot:          iv.Slot,
		}); err != nil {
			e.logger.Error("record completion", "interview_id", iv.ID, "error", err)
		}
	}
	return nil
}

// handleNoShow is the join monitor's downstream: candidate no-shows cancel
// the interview and go to the swap resolver, interviewer no-shows land in
// the operator queue on top of the monitor's escalation.
func (e *Engine) handleNoShow(ctx context.Context, iv *model.InterviewInstance, js *model.JoinStatus) {
	if js.Kind == model.JoinKindInterviewer {
		e.reportOnce(ctx, iv.ID+"/"+js.ParticipantID, "INTERVIEWER_NO_SHOW", "interviewer",
			fmt.Sprintf("interviewer %s absent for interview %s", js.ParticipantID, iv.ID))
		return
	}

	if _, err := e.coordinator.Apply(ctx, iv.ID, model.InterviewStateCancelled, "candidate no-show"); err != nil &&
		!errors.Is(err, model.ErrDuplicateTransition) {
		e.logger.Error("cancel after no-show", "interview_id", iv.ID, "error", err)
	}

	// Teardown comes last: on the timer path this callback runs on the
	// watch goroutine itself, and the proposal must be recorded before the
	// window disappears.
	if _, err := e.swapper.Propose(ctx, iv, "candidate no-show"); err != nil {
		var exhausted *model.SwapExhaustedError
		if errors.As(err, &exhausted) {
			e.reportOnce(ctx, iv.ID, "SWAP_EXHAUSTED", "interview", err.Error())
		} else {
			e.logger.Error("propose swap", "interview_id", iv.ID, "error", err)
		}
	}
	e.monitor.Cancel(iv.ID)
}

// reportOnce surfaces an attributed error to the operator queue, once per
// entity until the condition clears.
func (e *Engine) reportOnce(ctx context.Context, key, code, entityKind, msg string) {
	e.mu.Lock()
	if e.reported[key] {
		e.mu.Unlock()
		return
	}
	e.reported[key] = true
	e.mu.Unlock()

	oe := &model.OperatorError{
		ID:         "err_" + uuid.New().String()[:8],
		Code:       code,
		Message:    msg,
		EntityKind: entityKind,
		EntityID:   key,
		CreatedAt:  e.now().UTC(),
	}
	if err := e.store.CreateOperatorError(ctx, oe); err != nil {
		e.logger.Error("surface operator error", "code", code, "error", err)
		return
	}
	e.logger.Warn("operator error surfaced", "code", code, "entity", key)
}

func (e *Engine) clearReported(key string) {
	e.mu.Lock()
	delete(e.reported, key)
	e.mu.Unlock()
}
