package model

import "testing"

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{"even split", Weights{Urgency: 25, Stage: 25, Availability: 25, Load: 25}, false},
		{"single component", Weights{Urgency: 100}, false},
		{"sum 99", Weights{Urgency: 40, Stage: 25, Availability: 20, Load: 14}, true},
		{"sum 101", Weights{Urgency: 40, Stage: 25, Availability: 20, Load: 16}, true},
		{"zero vector", Weights{}, true},
		{"negative component", Weights{Urgency: 120, Stage: -20}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(*ConfigurationError); !ok {
					t.Errorf("Validate() error type = %T, want *ConfigurationError", err)
				}
			}
		})
	}
}

func TestTierForScore(t *testing.T) {
	tests := []struct {
		total float64
		want  Tier
	}{
		{100, TierCritical},
		{80, TierCritical},
		{79.9, TierHigh},
		{60, TierHigh},
		{59.9, TierMedium},
		{40, TierMedium},
		{39.9, TierLow},
		{0, TierLow},
	}
	for _, tt := range tests {
		if got := TierForScore(tt.total); got != tt.want {
			t.Errorf("TierForScore(%v) = %v, want %v", tt.total, got, tt.want)
		}
	}
}

func TestSchedulingRequest_NextSlot(t *testing.T) {
	req := &SchedulingRequest{
		Slots: []Slot{
			{Start: mustTime(t, "2026-03-02T10:00:00Z")},
			{Start: mustTime(t, "2026-03-03T10:00:00Z")},
		},
	}

	if s := req.NextSlot(); s == nil || !s.Start.Equal(mustTime(t, "2026-03-02T10:00:00Z")) {
		t.Errorf("NextSlot() = %v, want first slot", s)
	}
	if got := req.AvailabilityCount(); got != 2 {
		t.Errorf("AvailabilityCount() = %d, want 2", got)
	}

	req.SlotCursor = 2
	if s := req.NextSlot(); s != nil {
		t.Errorf("NextSlot() past end = %v, want nil", s)
	}
	if got := req.AvailabilityCount(); got != 0 {
		t.Errorf("AvailabilityCount() past end = %d, want 0", got)
	}
}
