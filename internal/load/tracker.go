// Package load maintains live per-interviewer capacity state and exposes the
// filtered, ranked panel used for assignment. The tracker is one of the two
// shared mutable stores in the engine; all writes go through its mutex so
// each capacity record has a single writer at a time.
package load

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/eligibility"
	"github.com/me/interviewd/internal/store"
	"github.com/me/interviewd/pkg/model"
)

// Event is a capacity-relevant occurrence recorded against an interviewer.
type Event struct {
	InterviewerID string
	Kind          EventKind
	Slot          model.Slot
	// Override permits recording past the daily limit; the overrun is
	// flagged as a soft violation, never silently absorbed.
	Override bool
}

// EventKind distinguishes assignments from completions.
type EventKind string

const (
	EventAssignment EventKind = "assignment"
	EventCompletion EventKind = "completion"
)

// Tracker owns the capacity store.
type Tracker struct {
	mu     sync.Mutex
	store  store.Store
	cfg    config.LoadConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewTracker creates a load tracker over the given store.
func NewTracker(st store.Store, cfg config.LoadConfig, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:  st,
		cfg:    cfg,
		logger: logger.With("component", "load"),
		now:    time.Now,
	}
}

// Sync creates capacity records for directory interviewers that lack one and
// refreshes role/seniority/limits on existing records. Counters survive
// directory snapshots.
func (t *Tracker) Sync(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	interviewers, err := t.store.ListInterviewers(ctx)
	if err != nil {
		return fmt.Errorf("list interviewers: %w", err)
	}

	now := t.now().UTC()
	for _, iv := range interviewers {
		c, err := t.store.GetCapacity(ctx, iv.ID)
		if err != nil {
			return fmt.Errorf("get capacity %s: %w", iv.ID, err)
		}
		if c == nil {
			c = &model.InterviewerCapacity{
				InterviewerID: iv.ID,
				Availability:  100,
				Day:           model.DayKey(now),
				Week:          model.WeekKey(now),
			}
		}
		c.Role = iv.Role
		c.Seniority = iv.Seniority
		c.RoundTypes = iv.RoundTypes
		c.BackupPanel = iv.BackupPanel
		c.DailyLimit = iv.DailyLimit
		c.WeeklyLimit = iv.WeeklyLimit
		if c.DailyLimit <= 0 {
			c.DailyLimit = t.cfg.DefaultDailyLimit
		}
		if c.WeeklyLimit <= 0 {
			c.WeeklyLimit = t.cfg.DefaultWeeklyLimit
		}
		c.UpdatedAt = now
		if err := t.store.UpsertCapacity(ctx, c); err != nil {
			return fmt.Errorf("upsert capacity %s: %w", iv.ID, err)
		}
	}
	t.logger.Debug("capacity records synced", "count", len(interviewers))
	return nil
}

// Capacity returns the live capacity record for one interviewer.
func (t *Tracker) Capacity(ctx context.Context, interviewerID string) (*model.InterviewerCapacity, error) {
	return t.store.GetCapacity(ctx, interviewerID)
}

// EligiblePanel returns the capacity records of interviewers who may serve
// the round, ranked by (100-load) + availability + (100-fatigue) descending.
// Ties break on the smallest seniority distance to the round requirement,
// then on interviewer id for determinism. With excludeOverloaded set,
// interviewers at or above the capacity threshold are dropped entirely.
func (t *Tracker) EligiblePanel(ctx context.Context, round *model.Round, excludeOverloaded bool) ([]*model.InterviewerCapacity, error) {
	caps, err := t.store.ListCapacities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list capacities: %w", err)
	}

	var panel []*model.InterviewerCapacity
	for _, c := range caps {
		iv := &model.Interviewer{
			ID:         c.InterviewerID,
			Role:       c.Role,
			Seniority:  c.Seniority,
			RoundTypes: c.RoundTypes,
		}
		if !iv.ServesRound(round.Type) {
			continue
		}
		if v := eligibility.Validate(round, iv); v != nil {
			continue
		}
		if excludeOverloaded && c.AtCapacity() {
			continue
		}
		panel = append(panel, c)
	}

	target := round.MinSeniority.Rank()
	sort.SliceStable(panel, func(i, j int) bool {
		si, sj := panel[i].PanelScore(), panel[j].PanelScore()
		if si != sj {
			return si > sj
		}
		di := seniorityDistance(panel[i].Seniority, target)
		dj := seniorityDistance(panel[j].Seniority, target)
		if di != dj {
			return di < dj
		}
		return panel[i].InterviewerID < panel[j].InterviewerID
	})
	return panel, nil
}

// AverageLoad returns the mean load percentage across the round's eligible
// panel (overloaded members included; they still represent real load).
// An empty panel reports 100 so the load sub-score bottoms out.
func (t *Tracker) AverageLoad(ctx context.Context, round *model.Round) (float64, error) {
	panel, err := t.EligiblePanel(ctx, round, false)
	if err != nil {
		return 0, err
	}
	if len(panel) == 0 {
		return 100, nil
	}
	var sum float64
	for _, c := range panel {
		sum += c.LoadPercent()
	}
	return sum / float64(len(panel)), nil
}

// Record applies an assignment or completion event to the interviewer's
// capacity record. Assignments against an at-capacity interviewer are
// refused with CapacityExceededError unless the event carries an override,
// in which case the overrun is flagged as a soft violation.
func (t *Tracker) Record(ctx context.Context, ev Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, err := t.store.GetCapacity(ctx, ev.InterviewerID)
	if err != nil {
		return fmt.Errorf("get capacity %s: %w", ev.InterviewerID, err)
	}
	if c == nil {
		return fmt.Errorf("no capacity record for interviewer %s", ev.InterviewerID)
	}

	now := t.now().UTC()
	t.rollover(c, now)

	switch ev.Kind {
	case EventAssignment:
		if c.AtCapacity() && !ev.Override {
			return &model.CapacityExceededError{InterviewerID: c.InterviewerID, Load: c.LoadPercent()}
		}

		sameDay := c.LastAssignedAt != nil && model.DayKey(*c.LastAssignedAt) == model.DayKey(now)
		c.TodayCount++
		c.WeekCount++
		c.Fatigue += t.cfg.FatigueBase
		if sameDay {
			c.Fatigue += t.cfg.FatigueConsecutive
		}
		if c.Fatigue > 100 {
			c.Fatigue = 100
		}
		if c.TodayCount > c.DailyLimit {
			c.SoftViolation = true
			t.logger.Warn("daily limit exceeded under override",
				"interviewer_id", c.InterviewerID, "today", c.TodayCount, "limit", c.DailyLimit)
		}
		c.LastAssignedAt = &now

	case EventCompletion:
		// Counts never decrease on completion; only the idle clock
		// restarts for fatigue decay.
		c.LastAssignedAt = &now

	default:
		return fmt.Errorf("unknown load event kind %q", ev.Kind)
	}

	c.UpdatedAt = now
	return t.store.UpsertCapacity(ctx, c)
}

// Rebalance rolls capacity periods forward and decays fatigue with idle
// time. It only adjusts projections; confirmed interviews are untouched.
func (t *Tracker) Rebalance(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	caps, err := t.store.ListCapacities(ctx)
	if err != nil {
		return fmt.Errorf("list capacities: %w", err)
	}

	now := t.now().UTC()
	for _, c := range caps {
		before := c.Fatigue
		t.rollover(c, now)

		if c.LastAssignedAt != nil {
			idle := now.Sub(*c.LastAssignedAt).Hours()
			if idle > 0 {
				c.Fatigue -= idle * t.cfg.FatigueDecayHourly
				if c.Fatigue < 0 {
					c.Fatigue = 0
				}
			}
		}
		if c.TodayCount <= c.DailyLimit {
			c.SoftViolation = false
		}

		c.UpdatedAt = now
		if err := t.store.UpsertCapacity(ctx, c); err != nil {
			return fmt.Errorf("upsert capacity %s: %w", c.InterviewerID, err)
		}
		if c.Fatigue != before {
			t.logger.Debug("fatigue decayed", "interviewer_id", c.InterviewerID,
				"from", before, "to", c.Fatigue)
		}
	}
	return nil
}

// rollover resets the daily and weekly counters when their period ends.
// Callers hold the tracker mutex.
func (t *Tracker) rollover(c *model.InterviewerCapacity, now time.Time) {
	if day := model.DayKey(now); c.Day != day {
		c.Day = day
		c.TodayCount = 0
	}
	if week := model.WeekKey(now); c.Week != week {
		c.Week = week
		c.WeekCount = 0
	}
}

func seniorityDistance(s model.Seniority, target int) int {
	d := s.Rank() - target
	if d < 0 {
		return -d
	}
	return d
}
