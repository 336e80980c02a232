// Package conflict resolves contention over scarce (slot, interviewer)
// resources. Each contested resource moves through open, resolving and
// resolved exactly once; losers are requeued against their next compatible
// slot, never dropped.
package conflict

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/me/interviewd/internal/store"
	"github.com/me/interviewd/pkg/model"
)

// fairBump is added to a loser's availability bonus under the fair strategy
// so denied requests rank higher on the next pass.
const fairBump = 10

// Resolver applies the configured resolution strategy to contested resources.
type Resolver struct {
	mu         sync.Mutex
	store      store.Store
	strategy   model.ResolutionStrategy
	fairWindow time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewResolver creates a resolver. The strategy is engine-level configuration
// and is validated once here.
func NewResolver(st store.Store, strategy model.ResolutionStrategy, fairWindow time.Duration, logger *slog.Logger) (*Resolver, error) {
	if !strategy.Valid() {
		return nil, &model.ConfigurationError{
			Field:   "strategy",
			Message: "unknown resolution strategy",
			Value:   string(strategy),
		}
	}
	return &Resolver{
		store:      st,
		strategy:   strategy,
		fairWindow: fairWindow,
		logger:     logger.With("component", "conflict"),
		now:        time.Now,
	}, nil
}

// Strategy returns the configured resolution strategy.
func (r *Resolver) Strategy() model.ResolutionStrategy {
	return r.strategy
}

// Resolve picks a winner among the claimants of one contested resource,
// requeues the losers against their next compatible slot and records the
// outcome. The resource must be open; resolution of a resource is atomic and
// happens at most once.
func (r *Resolver) Resolve(ctx context.Context, contested *model.ContestedResource, claimants []*model.SchedulingRequest) (*model.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if contested.Phase != model.ConflictPhaseOpen {
		return nil, fmt.Errorf("contested resource %s is %s, not open", contested.Key, contested.Phase)
	}
	if err := contested.Validate(); err != nil {
		return nil, err
	}
	if len(claimants) == 0 {
		return nil, &model.NoEligibleInterviewerError{
			RequestID: contested.RequestIDs[0],
			Detail:    fmt.Sprintf("no resolvable claimant for resource %s", contested.Key),
		}
	}

	contested.Phase = model.ConflictPhaseResolving

	winner, err := r.pickWinner(ctx, claimants)
	if err != nil {
		contested.Phase = model.ConflictPhaseOpen
		return nil, err
	}

	now := r.now().UTC()
	res := &model.Resolution{
		ResourceKey: contested.Key,
		Strategy:    r.strategy,
		Winner:      winner,
		ResolvedAt:  now,
	}
	for _, c := range claimants {
		if c.ID == winner.ID {
			continue
		}
		res.Losers = append(res.Losers, c)
		r.requeue(c, now)
		if err := r.store.UpdateRequest(ctx, c); err != nil {
			return nil, fmt.Errorf("requeue loser %s: %w", c.ID, err)
		}
	}

	contested.Phase = model.ConflictPhaseResolved
	contested.WinnerID = winner.ID
	contested.Strategy = r.strategy
	contested.ResolvedAt = &now
	if err := r.store.RecordResolution(ctx, contested); err != nil {
		return nil, fmt.Errorf("record resolution %s: %w", contested.Key, err)
	}

	r.logger.Info("conflict resolved",
		"resource", contested.Key,
		"strategy", r.strategy,
		"winner", winner.ID,
		"losers", len(res.Losers))
	return res, nil
}

// requeue moves a loser onto its next compatible slot. Under the fair
// strategy the loser also receives an availability bump so repeated denial
// cannot starve it.
func (r *Resolver) requeue(req *model.SchedulingRequest, now time.Time) {
	req.SlotCursor++
	req.State = model.RequestStatePending
	if r.strategy == model.StrategyFair {
		req.AvailabilityBonus += fairBump
	}
	req.UpdatedAt = now
}

func (r *Resolver) pickWinner(ctx context.Context, claimants []*model.SchedulingRequest) (*model.SchedulingRequest, error) {
	switch r.strategy {
	case model.StrategyUrgency:
		urgent := filter(claimants, func(c *model.SchedulingRequest) bool { return c.Urgent })
		if len(urgent) > 0 {
			return pickPriority(urgent), nil
		}
		return pickPriority(claimants), nil

	case model.StrategyStage:
		top := claimants[0].PipelinePos
		for _, c := range claimants[1:] {
			if c.PipelinePos > top {
				top = c.PipelinePos
			}
		}
		atTop := filter(claimants, func(c *model.SchedulingRequest) bool { return c.PipelinePos == top })
		return pickPriority(atTop), nil

	case model.StrategyFair:
		return r.pickFair(ctx, claimants)

	default:
		return pickPriority(claimants), nil
	}
}

// pickFair selects the claimant with the fewest resolution wins inside the
// rolling window, counted per candidate so scarce slots spread across people
// rather than requests.
func (r *Resolver) pickFair(ctx context.Context, claimants []*model.SchedulingRequest) (*model.SchedulingRequest, error) {
	since := r.now().UTC().Add(-r.fairWindow)

	wins := make(map[string]int, len(claimants))
	for _, c := range claimants {
		if _, seen := wins[c.CandidateID]; seen {
			continue
		}
		n, err := r.store.CountWinsSince(ctx, c.CandidateID, since)
		if err != nil {
			return nil, fmt.Errorf("count wins for candidate %s: %w", c.CandidateID, err)
		}
		wins[c.CandidateID] = n
		c.ResolverWins = n
	}

	fewest := claimants[0]
	for _, c := range claimants[1:] {
		c.ResolverWins = wins[c.CandidateID]
		if wins[c.CandidateID] < wins[fewest.CandidateID] {
			fewest = c
		}
	}
	tied := filter(claimants, func(c *model.SchedulingRequest) bool {
		return wins[c.CandidateID] == wins[fewest.CandidateID]
	})
	return pickPriority(tied), nil
}

// pickPriority returns the claimant with the highest total score, breaking
// ties on the earliest creation time, then id for determinism.
func pickPriority(claimants []*model.SchedulingRequest) *model.SchedulingRequest {
	sorted := make([]*model.SchedulingRequest, len(claimants))
	copy(sorted, claimants)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		at, bt := totalScore(a), totalScore(b)
		if at != bt {
			return at > bt
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted[0]
}

func totalScore(req *model.SchedulingRequest) float64 {
	if req.Score == nil {
		return 0
	}
	return req.Score.Total
}

func filter(reqs []*model.SchedulingRequest, keep func(*model.SchedulingRequest) bool) []*model.SchedulingRequest {
	var out []*model.SchedulingRequest
	for _, r := range reqs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
