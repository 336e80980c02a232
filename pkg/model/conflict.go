package model

import (
	"fmt"
	"time"
)

// ResolutionStrategy selects how a ContestedResource picks its winner.
// The strategy is engine-level configuration, not per-conflict.
type ResolutionStrategy string

const (
	StrategyPriority ResolutionStrategy = "priority"
	StrategyUrgency  ResolutionStrategy = "urgency"
	StrategyStage    ResolutionStrategy = "stage"
	StrategyFair     ResolutionStrategy = "fair"
)

// Valid reports whether s names a known strategy.
func (s ResolutionStrategy) Valid() bool {
	switch s {
	case StrategyPriority, StrategyUrgency, StrategyStage, StrategyFair:
		return true
	}
	return false
}

// ResourceKey identifies a scarce (slot, interviewer) pair.
func ResourceKey(slot Slot, interviewerID string) string {
	return slot.Key() + "/" + interviewerID
}

// ContestedResource is a (date, time, interviewer) tuple claimed by two or
// more scheduling requests. It exists only while contention is unresolved;
// a single claimant is an assignment, not a conflict.
type ContestedResource struct {
	ID            string        `json:"id"`
	Key           string        `json:"key"`
	Slot          Slot          `json:"slot"`
	InterviewerID string        `json:"interviewer_id"`
	RequestIDs    []string      `json:"request_ids"`
	Phase         ConflictPhase `json:"phase"`
	CreatedAt     time.Time     `json:"created_at"`
	ResolvedAt    *time.Time    `json:"resolved_at,omitempty"`
	WinnerID      string        `json:"winner_id,omitempty"`
	Strategy      ResolutionStrategy `json:"strategy,omitempty"`
}

// Validate enforces the ≥2 claimant definition.
func (c *ContestedResource) Validate() error {
	if len(c.RequestIDs) < 2 {
		return fmt.Errorf("contested resource %s has %d claimants; a single claimant is an assignment, not a conflict", c.Key, len(c.RequestIDs))
	}
	return nil
}

// Resolution is the outcome of resolving one ContestedResource.
type Resolution struct {
	ResourceKey string               `json:"resource_key"`
	Strategy    ResolutionStrategy   `json:"strategy"`
	Winner      *SchedulingRequest   `json:"winner"`
	Losers      []*SchedulingRequest `json:"losers"`
	ResolvedAt  time.Time            `json:"resolved_at"`
}
