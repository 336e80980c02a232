// Package lifecycle drives interview instances through their state machine
// and watches each state's SLA clock. Transitions come from external events
// only; the coordinator never invents one on its own.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/interviewd/internal/config"
	"github.com/me/interviewd/internal/notify"
	"github.com/me/interviewd/internal/store"
	"github.com/me/interviewd/pkg/model"
)

// Coordinator applies state transitions and sweeps SLA deadlines.
type Coordinator struct {
	store   store.Store
	sla     map[model.InterviewState]config.SLAEntry
	emitter notify.Emitter
	logger  *slog.Logger
	now     func() time.Time
}

// NewCoordinator creates a lifecycle coordinator. The SLA map is validated
// with the rest of the engine configuration before it gets here.
func NewCoordinator(st store.Store, sla map[model.InterviewState]config.SLAEntry, emitter notify.Emitter, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:   st,
		sla:     sla,
		emitter: emitter,
		logger:  logger.With("component", "lifecycle"),
		now:     time.Now,
	}
}

// Begin persists a freshly-confirmed interview in the created state with its
// first history entry and SLA clock armed.
func (c *Coordinator) Begin(ctx context.Context, iv *model.InterviewInstance, triggeredBy string) error {
	now := c.now().UTC()
	iv.State = model.InterviewStateCreated
	iv.History = []model.StateChange{{
		State:       model.InterviewStateCreated,
		Timestamp:   now,
		TriggeredBy: triggeredBy,
	}}
	c.armSLA(iv, now)
	iv.CreatedAt = now
	iv.UpdatedAt = now

	if err := c.store.CreateInterview(ctx, iv); err != nil {
		return fmt.Errorf("create interview %s: %w", iv.ID, err)
	}
	c.logger.Info("interview created",
		"interview_id", iv.ID, "candidate_id", iv.CandidateID, "triggered_by", triggeredBy)
	return nil
}

// Apply transitions an interview to the given state, appending an immutable
// history entry and arming the new state's SLA clock. Re-delivering a
// transition to the state the interview is already in returns
// ErrDuplicateTransition, which callers treat as a silent success; an
// illegal transition returns InvalidTransitionError.
func (c *Coordinator) Apply(ctx context.Context, interviewID string, to model.InterviewState, triggeredBy string) (*model.InterviewInstance, error) {
	iv, err := c.store.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("get interview %s: %w", interviewID, err)
	}
	if iv == nil {
		return nil, model.NewNotFoundError("interview", interviewID)
	}

	if iv.State == to {
		c.logger.Debug("duplicate transition ignored",
			"interview_id", interviewID, "state", to, "triggered_by", triggeredBy)
		return iv, model.ErrDuplicateTransition
	}
	if !iv.State.CanTransitionTo(to) {
		return nil, &model.InvalidTransitionError{InterviewID: interviewID, From: iv.State, To: to}
	}

	now := c.now().UTC()
	iv.State = to
	iv.History = append(iv.History, model.StateChange{
		State:       to,
		Timestamp:   now,
		TriggeredBy: triggeredBy,
	})
	c.armSLA(iv, now)
	if to.IsTerminal() {
		iv.ClosedAt = &now
	}
	iv.UpdatedAt = now

	if err := c.store.UpdateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("update interview %s: %w", interviewID, err)
	}

	c.logger.Info("interview transitioned",
		"interview_id", interviewID, "state", to, "triggered_by", triggeredBy)
	return iv, nil
}

// armSLA resets the SLA clock for the interview's new state. States without
// an SLA entry (in_progress, terminals) carry no deadline.
func (c *Coordinator) armSLA(iv *model.InterviewInstance, now time.Time) {
	iv.Escalated = false
	iv.EarlyWarned = false

	entry, ok := c.sla[iv.State]
	if !ok {
		iv.SLADeadline = nil
		iv.SLAStatus = ""
		return
	}
	deadline := now.Add(entry.Duration())
	iv.SLADeadline = &deadline
	iv.SLAStatus = model.SLAStatusOnTrack
}

// Sweep checks every SLA-bearing interview against its deadline, marking
// at-risk and overdue statuses and emitting each escalation at most once per
// state. An SLA breach is non-fatal; the interview keeps moving.
func (c *Coordinator) Sweep(ctx context.Context) error {
	now := c.now().UTC()

	for state := range c.sla {
		interviews, err := c.store.GetInterviewsByState(ctx, state)
		if err != nil {
			return fmt.Errorf("list %s interviews: %w", state, err)
		}
		for _, iv := range interviews {
			if err := c.sweepOne(ctx, iv, now); err != nil {
				c.logger.Error("sla sweep", "interview_id", iv.ID, "error", err)
			}
		}
	}
	return nil
}

func (c *Coordinator) sweepOne(ctx context.Context, iv *model.InterviewInstance, now time.Time) error {
	if iv.SLADeadline == nil {
		return nil
	}
	entry := c.sla[iv.State]

	switch {
	case now.After(*iv.SLADeadline):
		if iv.SLAStatus == model.SLAStatusOverdue && iv.Escalated {
			return nil
		}
		iv.SLAStatus = model.SLAStatusOverdue
		if !iv.Escalated {
			ev := &model.EscalationEvent{
				InterviewID: iv.ID,
				Reason:      fmt.Sprintf("sla breached in state %s", iv.State),
				Severity:    model.SeverityCritical,
				EmittedAt:   now,
			}
			if err := c.emitter.EmitEscalation(ctx, ev); err != nil {
				return fmt.Errorf("emit overdue escalation: %w", err)
			}
			iv.Escalated = true
		}

	case entry.EscalationHours > 0 && now.After(iv.SLADeadline.Add(-entry.EscalationLead())):
		if iv.SLAStatus == model.SLAStatusAtRisk && iv.EarlyWarned {
			return nil
		}
		iv.SLAStatus = model.SLAStatusAtRisk
		if !iv.EarlyWarned {
			ev := &model.EscalationEvent{
				InterviewID: iv.ID,
				Reason:      fmt.Sprintf("sla at risk in state %s", iv.State),
				Severity:    model.SeverityWarning,
				EmittedAt:   now,
			}
			if err := c.emitter.EmitEscalation(ctx, ev); err != nil {
				return fmt.Errorf("emit early warning: %w", err)
			}
			iv.EarlyWarned = true
		}

	default:
		return nil
	}

	iv.UpdatedAt = now
	return c.store.UpdateInterview(ctx, iv)
}
