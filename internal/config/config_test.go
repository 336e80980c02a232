package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/me/interviewd/pkg/model"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() config invalid: %v", err)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interviewd.yaml")
	content := `
server:
  addr: ":9090"
engine:
  strategy: fair
  weights:
    urgency: 50
    stage: 20
    availability: 20
    load: 10
  swap:
    auto_execute: true
    threshold: 90
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Engine.Strategy != model.StrategyFair {
		t.Errorf("strategy = %q, want fair", cfg.Engine.Strategy)
	}
	if cfg.Engine.Weights.Urgency != 50 {
		t.Errorf("weights.urgency = %d, want 50", cfg.Engine.Weights.Urgency)
	}
	if !cfg.Engine.Swap.AutoExecute || cfg.Engine.Swap.Threshold != 90 {
		t.Errorf("swap = %+v, want auto at 90", cfg.Engine.Swap)
	}
	// Untouched sections keep their defaults.
	if cfg.Engine.Join.Window != 10*time.Minute {
		t.Errorf("join.window = %s, want 10m", cfg.Engine.Join.Window)
	}
}

func TestLoad_RejectsBadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interviewd.yaml")
	content := `
engine:
  weights:
    urgency: 50
    stage: 20
    availability: 20
    load: 20
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load accepted weights summing to 110")
	}
	if _, ok := err.(*model.ConfigurationError); !ok {
		t.Errorf("error type = %T, want *model.ConfigurationError", err)
	}
}

func TestValidate_RejectsBadPolicy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown strategy", func(c *Config) { c.Engine.Strategy = "coinflip" }},
		{"threshold above 100", func(c *Config) { c.Engine.Swap.Threshold = 120 }},
		{"sla on in_progress", func(c *Config) {
			c.Engine.SLA[model.InterviewStateInProgress] = SLAEntry{Hours: 1}
		}},
		{"negative sla", func(c *Config) {
			c.Engine.SLA[model.InterviewStateCreated] = SLAEntry{Hours: -1}
		}},
		{"escalation exceeds sla", func(c *Config) {
			c.Engine.SLA[model.InterviewStateCreated] = SLAEntry{Hours: 2, EscalationHours: 3}
		}},
		{"unordered retry schedule", func(c *Config) {
			c.Engine.Join.SecondRetry = c.Engine.Join.FirstRetry
		}},
		{"zero daily limit", func(c *Config) { c.Engine.Load.DefaultDailyLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}
