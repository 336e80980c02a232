package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/interviewd/pkg/model"
)

// ServerConfig holds configuration for the interviewd server process.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
	DBPath    string `yaml:"db_path"`    // SQLite path (":memory:" for testing)
}

// SLAEntry is the allowed dwell time for one lifecycle state.
type SLAEntry struct {
	Hours float64 `yaml:"hours"`
	// EscalationHours is how long before breach the at_risk warning fires.
	// Zero disables the early warning for the state.
	EscalationHours float64 `yaml:"escalation_hours"`
}

// Duration returns the SLA window as a time.Duration.
func (e SLAEntry) Duration() time.Duration {
	return time.Duration(e.Hours * float64(time.Hour))
}

// EscalationLead returns the early-warning lead as a time.Duration.
func (e SLAEntry) EscalationLead() time.Duration {
	return time.Duration(e.EscalationHours * float64(time.Hour))
}

// SwapConfig controls backup substitution after no-shows.
type SwapConfig struct {
	// AutoExecute enables executing the top backup without operator
	// approval when its availability match clears Threshold.
	AutoExecute bool    `yaml:"auto_execute"`
	Threshold   float64 `yaml:"threshold"` // availability match percent, default 85
}

// JoinConfig fixes the live-monitoring retry schedule. Tests shrink these.
type JoinConfig struct {
	FirstRetry  time.Duration `yaml:"first_retry"`  // default 3m
	SecondRetry time.Duration `yaml:"second_retry"` // default 5m
	Window      time.Duration `yaml:"window"`       // default 10m
}

// LoadConfig holds capacity and fatigue tuning.
type LoadConfig struct {
	DefaultDailyLimit  int     `yaml:"default_daily_limit"`
	DefaultWeeklyLimit int     `yaml:"default_weekly_limit"`
	FatigueBase        float64 `yaml:"fatigue_base"`        // per assignment
	FatigueConsecutive float64 `yaml:"fatigue_consecutive"` // extra per same-day back-to-back
	FatigueDecayHourly float64 `yaml:"fatigue_decay_hourly"`
}

// WebhookConfig names outbound collaborator endpoints. Empty URLs fall back
// to log-only emission.
type WebhookConfig struct {
	Calendar string        `yaml:"calendar"` // assignment intents
	Alerting string        `yaml:"alerting"` // escalations
	ATS      string        `yaml:"ats"`      // swap proposals/confirmations
	Timeout  time.Duration `yaml:"timeout"`
}

// EngineConfig is the coordination engine's tenant-level policy.
type EngineConfig struct {
	Weights      model.Weights            `yaml:"weights"`
	Strategy     model.ResolutionStrategy `yaml:"strategy"`
	PollInterval time.Duration            `yaml:"poll_interval"`
	// FairWindow is the rolling window the fair strategy counts wins in.
	FairWindow time.Duration `yaml:"fair_window"`

	SLA  map[model.InterviewState]SLAEntry `yaml:"sla"`
	Swap SwapConfig                        `yaml:"swap"`
	Join JoinConfig                        `yaml:"join"`
	Load LoadConfig                        `yaml:"load"`
}

// Config is the full interviewd configuration.
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Engine   EngineConfig  `yaml:"engine"`
	Webhooks WebhookConfig `yaml:"webhooks"`
}

// Default returns sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8080",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Engine: EngineConfig{
			Weights:      model.DefaultWeights(),
			Strategy:     model.StrategyPriority,
			PollInterval: 5 * time.Second,
			FairWindow:   7 * 24 * time.Hour,
			SLA: map[model.InterviewState]SLAEntry{
				model.InterviewStateCreated:        {Hours: 24, EscalationHours: 4},
				model.InterviewStateSlotsGenerated: {Hours: 48, EscalationHours: 8},
				model.InterviewStateSlotConfirmed:  {Hours: 24, EscalationHours: 4},
				model.InterviewStateNotified:       {Hours: 72, EscalationHours: 12},
				model.InterviewStateCompleted:      {Hours: 48, EscalationHours: 8},
			},
			Swap: SwapConfig{
				AutoExecute: false,
				Threshold:   85,
			},
			Join: JoinConfig{
				FirstRetry:  3 * time.Minute,
				SecondRetry: 5 * time.Minute,
				Window:      10 * time.Minute,
			},
			Load: LoadConfig{
				DefaultDailyLimit:  4,
				DefaultWeeklyLimit: 15,
				FatigueBase:        10,
				FatigueConsecutive: 15,
				FatigueDecayHourly: 5,
			},
		},
		Webhooks: WebhookConfig{
			Timeout: 10 * time.Second,
		},
	}
}

// Load reads a YAML config file over the defaults and validates the result.
// An empty path returns validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects bad policy at configuration time so request handling
// never has to.
func (c *Config) Validate() error {
	if err := c.Engine.Weights.Validate(); err != nil {
		return err
	}
	if !c.Engine.Strategy.Valid() {
		return &model.ConfigurationError{
			Field:   "engine.strategy",
			Message: "unknown resolution strategy",
			Value:   string(c.Engine.Strategy),
		}
	}
	if c.Engine.Swap.Threshold < 0 || c.Engine.Swap.Threshold > 100 {
		return &model.ConfigurationError{
			Field:   "engine.swap.threshold",
			Message: "threshold must be within [0,100]",
			Value:   c.Engine.Swap.Threshold,
		}
	}
	for state, entry := range c.Engine.SLA {
		if state == model.InterviewStateInProgress {
			return &model.ConfigurationError{
				Field:   "engine.sla",
				Message: "in_progress has no SLA; the join monitor owns that window",
				Value:   state.String(),
			}
		}
		if entry.Hours <= 0 {
			return &model.ConfigurationError{
				Field:   "engine.sla." + state.String(),
				Message: "sla hours must be positive",
				Value:   entry.Hours,
			}
		}
		if entry.EscalationHours < 0 || entry.EscalationHours >= entry.Hours {
			return &model.ConfigurationError{
				Field:   "engine.sla." + state.String(),
				Message: "escalation lead must be non-negative and shorter than the SLA",
				Value:   entry.EscalationHours,
			}
		}
	}
	j := c.Engine.Join
	if j.FirstRetry <= 0 || j.SecondRetry <= j.FirstRetry || j.Window <= j.SecondRetry {
		return &model.ConfigurationError{
			Field:   "engine.join",
			Message: "retry schedule must be ordered: 0 < first < second < window",
			Value:   fmt.Sprintf("%s/%s/%s", j.FirstRetry, j.SecondRetry, j.Window),
		}
	}
	if c.Engine.Load.DefaultDailyLimit <= 0 || c.Engine.Load.DefaultWeeklyLimit <= 0 {
		return &model.ConfigurationError{
			Field:   "engine.load",
			Message: "capacity limits must be positive",
			Value:   fmt.Sprintf("%d/%d", c.Engine.Load.DefaultDailyLimit, c.Engine.Load.DefaultWeeklyLimit),
		}
	}
	return nil
}
