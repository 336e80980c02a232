package model

import (
	"fmt"
	"time"
)

// AtCapacityLoad is the load percentage at which auto-assignment to an
// interviewer is refused until rebalanced or the next period opens.
const AtCapacityLoad = 90.0

// InterviewerCapacity is the live load state of one interviewer. Each record
// has a single writer at a time; the load tracker serializes mutations.
type InterviewerCapacity struct {
	InterviewerID string    `json:"interviewer_id"`
	Role          string    `json:"role"`
	Seniority     Seniority `json:"seniority"`

	TodayCount  int `json:"today_count"`
	WeekCount   int `json:"week_count"`
	DailyLimit  int `json:"daily_limit"`
	WeeklyLimit int `json:"weekly_limit"`

	// Availability is a rolling 0-100 score of open calendar time.
	Availability float64 `json:"availability"`

	// Fatigue is 0-100, higher means more tired. It rises with consecutive
	// same-day assignments and decays with idle time.
	Fatigue float64 `json:"fatigue"`

	RoundTypes  []string `json:"round_types,omitempty"`
	BackupPanel bool     `json:"backup_panel"`

	// SoftViolation is set when a recording pushed the today count past the
	// daily limit under a manual override. Violations are flagged, never
	// silently permitted.
	SoftViolation bool `json:"soft_violation,omitempty"`

	LastAssignedAt *time.Time `json:"last_assigned_at,omitempty"`
	Day            string     `json:"day"`  // YYYY-MM-DD of the today counter
	Week           string     `json:"week"` // ISO year-week of the week counter
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LoadPercent is max(today/daily, week/weekly) * 100 capped at 100.
func (c *InterviewerCapacity) LoadPercent() float64 {
	var today, week float64
	if c.DailyLimit > 0 {
		today = float64(c.TodayCount) / float64(c.DailyLimit)
	}
	if c.WeeklyLimit > 0 {
		week = float64(c.WeekCount) / float64(c.WeeklyLimit)
	}
	load := today
	if week > load {
		load = week
	}
	load *= 100
	if load > 100 {
		load = 100
	}
	return load
}

// AtCapacity reports whether further auto-assignment is refused.
func (c *InterviewerCapacity) AtCapacity() bool {
	return c.LoadPercent() >= AtCapacityLoad
}

// PanelScore is the composite ranking used by EligiblePanel:
// (100-load) + availability + (100-fatigue), higher is better.
func (c *InterviewerCapacity) PanelScore() float64 {
	return (100 - c.LoadPercent()) + c.Availability + (100 - c.Fatigue)
}

// DayKey formats t as the capacity day bucket.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WeekKey formats t as the capacity ISO week bucket.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
