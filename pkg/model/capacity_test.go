package model

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return ts
}

func TestInterviewerCapacity_LoadPercent(t *testing.T) {
	tests := []struct {
		name string
		cap  InterviewerCapacity
		want float64
	}{
		{"idle", InterviewerCapacity{DailyLimit: 4, WeeklyLimit: 12}, 0},
		{"half day", InterviewerCapacity{TodayCount: 2, DailyLimit: 4, WeeklyLimit: 12, WeekCount: 2}, 50},
		{"week dominates", InterviewerCapacity{TodayCount: 1, DailyLimit: 4, WeekCount: 9, WeeklyLimit: 12}, 75},
		{"full day", InterviewerCapacity{TodayCount: 4, DailyLimit: 4, WeeklyLimit: 12}, 100},
		{"soft overrun capped", InterviewerCapacity{TodayCount: 6, DailyLimit: 4, WeeklyLimit: 12}, 100},
		{"no limits", InterviewerCapacity{TodayCount: 3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cap.LoadPercent(); got != tt.want {
				t.Errorf("LoadPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInterviewerCapacity_AtCapacity(t *testing.T) {
	under := InterviewerCapacity{TodayCount: 3, DailyLimit: 4, WeeklyLimit: 20}
	if under.AtCapacity() {
		t.Errorf("AtCapacity() at %v%% load = true, want false", under.LoadPercent())
	}

	at := InterviewerCapacity{TodayCount: 4, DailyLimit: 4, WeeklyLimit: 20}
	if !at.AtCapacity() {
		t.Errorf("AtCapacity() at %v%% load = false, want true", at.LoadPercent())
	}
}

func TestInterviewerCapacity_PanelScore(t *testing.T) {
	// Fully rested and available: (100-0) + 100 + (100-0) = 300.
	fresh := InterviewerCapacity{DailyLimit: 4, WeeklyLimit: 20, Availability: 100}
	if got := fresh.PanelScore(); got != 300 {
		t.Errorf("PanelScore() fresh = %v, want 300", got)
	}

	tired := InterviewerCapacity{TodayCount: 2, DailyLimit: 4, WeeklyLimit: 20, Availability: 60, Fatigue: 40}
	// (100-50) + 60 + (100-40) = 170.
	if got := tired.PanelScore(); got != 170 {
		t.Errorf("PanelScore() tired = %v, want 170", got)
	}
}

func TestDayAndWeekKeys(t *testing.T) {
	ts := mustTime(t, "2026-03-02T15:04:05Z")
	if got := DayKey(ts); got != "2026-03-02" {
		t.Errorf("DayKey() = %q, want 2026-03-02", got)
	}
	if got := WeekKey(ts); got != "2026-W10" {
		t.Errorf("WeekKey() = %q, want 2026-W10", got)
	}
}
