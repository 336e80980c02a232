package model

import "time"

// NoticeCategory classifies how soon a candidate can start.
type NoticeCategory string

const (
	NoticeImmediate NoticeCategory = "immediate"
	NoticeTwoWeeks  NoticeCategory = "2_weeks"
	NoticeOneMonth  NoticeCategory = "1_month"
	NoticeLonger    NoticeCategory = "longer"
)

// SchedulingRequest is a candidate's claim on an interviewer and a time slot
// for a given round. Requests compete in the scheduling queue until assigned
// or withdrawn.
type SchedulingRequest struct {
	ID            string         `json:"id"`
	CandidateID   string         `json:"candidate_id"`
	JobID         string         `json:"job_id"`
	RoundID       string         `json:"round_id"`
	State         RequestState   `json:"state"`
	Urgent        bool           `json:"urgent"`
	Notice        NoticeCategory `json:"notice"`
	PipelinePos   int            `json:"pipeline_pos"` // 1=screening .. 5=final
	Slots         []Slot         `json:"slots,omitempty"`
	SlotCursor    int            `json:"slot_cursor"` // index of the next slot to claim
	ManualOverride bool          `json:"manual_override"`
	OverrideReason string        `json:"override_reason,omitempty"`

	// AvailabilityBonus is added to the availability sub-score. The fair
	// resolution strategy bumps it for losers so they are treated as less
	// flexible on the next pass.
	AvailabilityBonus int `json:"availability_bonus"`

	// ResolverWins counts prior conflict-resolution wins inside the fair
	// strategy's rolling window.
	ResolverWins int `json:"resolver_wins"`

	Score *PriorityScore `json:"score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NextSlot returns the slot the request currently claims, or nil when the
// candidate's compatible slots are exhausted.
func (r *SchedulingRequest) NextSlot() *Slot {
	if r.SlotCursor < 0 || r.SlotCursor >= len(r.Slots) {
		return nil
	}
	return &r.Slots[r.SlotCursor]
}

// AvailabilityCount returns the number of compatible slots still open to the
// request.
func (r *SchedulingRequest) AvailabilityCount() int {
	n := len(r.Slots) - r.SlotCursor
	if n < 0 {
		return 0
	}
	return n
}

// Tier buckets a total priority score into a named band. Manual overrides pin
// a request to the top of its band, not the whole queue.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// TierForScore maps a total score to its band.
func TierForScore(total float64) Tier {
	switch {
	case total >= 80:
		return TierCritical
	case total >= 60:
		return TierHigh
	case total >= 40:
		return TierMedium
	default:
		return TierLow
	}
}

// rank orders tiers for sorting, highest first.
func (t Tier) rank() int {
	switch t {
	case TierCritical:
		return 3
	case TierHigh:
		return 2
	case TierMedium:
		return 1
	}
	return 0
}

// Above returns true if t sorts before other in the queue.
func (t Tier) Above(other Tier) bool {
	return t.rank() > other.rank()
}

// Weights is the percentage split across the four priority sub-scores.
// Components must sum to exactly 100.
type Weights struct {
	Urgency      int `json:"urgency" yaml:"urgency"`
	Stage        int `json:"stage" yaml:"stage"`
	Availability int `json:"availability" yaml:"availability"`
	Load         int `json:"load" yaml:"load"`
}

// DefaultWeights returns the standard weight split.
func DefaultWeights() Weights {
	return Weights{Urgency: 40, Stage: 25, Availability: 20, Load: 15}
}

// Validate rejects weight vectors that do not sum to exactly 100. This is a
// configuration-time check; scoring never re-validates per request.
func (w Weights) Validate() error {
	sum := w.Urgency + w.Stage + w.Availability + w.Load
	if sum != 100 {
		return &ConfigurationError{
			Field:   "weights",
			Message: "weight components must sum to exactly 100",
			Value:   sum,
		}
	}
	for _, c := range []struct {
		name  string
		value int
	}{
		{"urgency", w.Urgency},
		{"stage", w.Stage},
		{"availability", w.Availability},
		{"load", w.Load},
	} {
		if c.value < 0 {
			return &ConfigurationError{
				Field:   "weights." + c.name,
				Message: "weight component must not be negative",
				Value:   c.value,
			}
		}
	}
	return nil
}

// PriorityScore is the composite priority of a SchedulingRequest. Sub-scores
// are each in [0,100]; Total is their weighted sum and therefore also in
// [0,100]. A request has exactly one active PriorityScore at any time.
type PriorityScore struct {
	Urgency      float64   `json:"urgency"`
	Stage        float64   `json:"stage"`
	Availability float64   `json:"availability"`
	Load         float64   `json:"load"`
	Total        float64   `json:"total"`
	Tier         Tier      `json:"tier"`
	Overridden   bool      `json:"overridden"`
	ComputedAt   time.Time `json:"computed_at"`
}
