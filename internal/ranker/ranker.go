// Package ranker computes priority scores for scheduling requests and keeps
// the ranked queue they compete in. Scoring is pure given a load snapshot;
// callers re-rank after any load tracker mutation.
package ranker

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/me/interviewd/pkg/model"
)

// Ranker scores and orders scheduling requests under a fixed weight vector.
type Ranker struct {
	weights model.Weights
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a ranker. The weight vector is validated once here; scoring
// never re-validates per request.
func New(weights model.Weights, logger *slog.Logger) (*Ranker, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{
		weights: weights,
		logger:  logger.With("component", "ranker"),
		now:     time.Now,
	}, nil
}

// Score computes the request's priority from its own fields plus the average
// load of the round's eligible panel. Sub-scores and the total are all in
// [0,100].
func (r *Ranker) Score(req *model.SchedulingRequest, avgLoad float64) *model.PriorityScore {
	s := &model.PriorityScore{
		Urgency:      urgencyScore(req),
		Stage:        clamp(float64(req.PipelinePos) * 20),
		Availability: clamp(float64(req.AvailabilityCount()*20 + req.AvailabilityBonus)),
		Load:         clamp(100 - avgLoad),
		Overridden:   req.ManualOverride,
		ComputedAt:   r.now().UTC(),
	}
	s.Total = (s.Urgency*float64(r.weights.Urgency) +
		s.Stage*float64(r.weights.Stage) +
		s.Availability*float64(r.weights.Availability) +
		s.Load*float64(r.weights.Load)) / 100
	s.Tier = model.TierForScore(s.Total)
	return s
}

// urgencyScore maps the urgency signals to a sub-score. The explicit flag is
// checked before the notice period; when both are present the flag wins.
func urgencyScore(req *model.SchedulingRequest) float64 {
	if req.Urgent {
		return 90
	}
	switch req.Notice {
	case model.NoticeImmediate:
		return 95
	case model.NoticeTwoWeeks:
		return 75
	case model.NoticeOneMonth:
		return 50
	default:
		return 25
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Rank orders requests in place: tier first, then manual overrides pinned to
// the top of their tier, then total score descending, with earliest creation
// time breaking ties. Requests without a score sort last.
func Rank(reqs []*model.SchedulingRequest) {
	sort.SliceStable(reqs, func(i, j int) bool {
		a, b := reqs[i], reqs[j]
		if a.Score == nil || b.Score == nil {
			return b.Score == nil && a.Score != nil
		}
		if a.Score.Tier != b.Score.Tier {
			return a.Score.Tier.Above(b.Score.Tier)
		}
		if a.ManualOverride != b.ManualOverride {
			return a.ManualOverride
		}
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Queue is the in-memory competitive queue of pending requests. It holds the
// engine's working set between ticks; the store remains the durable copy.
type Queue struct {
	mu   sync.RWMutex
	reqs map[string]*model.SchedulingRequest
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{reqs: make(map[string]*model.SchedulingRequest)}
}

// Upsert adds or replaces a request in the queue.
func (q *Queue) Upsert(req *model.SchedulingRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs[req.ID] = req
}

// Remove drops a request from the queue, if present.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.reqs, id)
}

// Get returns a copy of the queued request with the given id, or nil.
func (q *Queue) Get(id string) *model.SchedulingRequest {
	q.mu.RLock()
	defer q.mu.RUnlock()
	r, ok := q.reqs[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.reqs)
}

// Ordered returns the queued requests ranked for assignment. Both the slice
// and the requests are copies; callers may mutate them without affecting the
// queue or each other. The durable copy stays in the store.
func (q *Queue) Ordered() []*model.SchedulingRequest {
	q.mu.RLock()
	out := make([]*model.SchedulingRequest, 0, len(q.reqs))
	for _, r := range q.reqs {
		cp := *r
		out = append(out, &cp)
	}
	q.mu.RUnlock()

	Rank(out)
	return out
}
