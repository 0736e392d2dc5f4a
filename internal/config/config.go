// Package config holds all quorum configuration: selection thresholds,
// dispatch deadlines, validation penalties, and the tracker learning rate.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all quorum configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Specialist selection
	Selection SelectionConfig `yaml:"selection"`

	// Parallel dispatch
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Cross-source validation
	Validation ValidationConfig `yaml:"validation"`

	// Reliability tracking
	Tracker TrackerConfig `yaml:"tracker"`

	// Session store
	Session SessionConfig `yaml:"session"`

	// Reliability snapshot persistence
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SelectionConfig configures the selection engine.
type SelectionConfig struct {
	// ScoreCutoff is the combined-score threshold above which candidates
	// are taken (subject to Min/Max bounds).
	ScoreCutoff float64 `yaml:"score_cutoff"`

	// MinSpecialists is always selected when that many candidates exist.
	MinSpecialists int `yaml:"min_specialists"`

	// MaxSpecialists bounds fan-out per query.
	MaxSpecialists int `yaml:"max_specialists"`

	// RelevanceFloor is the registry candidacy threshold.
	RelevanceFloor float64 `yaml:"relevance_floor"`
}

// DispatchConfig configures the dispatch engine.
type DispatchConfig struct {
	// Deadline is the single shared deadline for one query round.
	Deadline string `yaml:"deadline"`
}

// ValidationConfig configures the cross-source validator.
type ValidationConfig struct {
	// ConflictPenalty is subtracted from confidence per detected conflict.
	ConflictPenalty float64 `yaml:"conflict_penalty"`

	// ConfidenceFloor is the minimum fragment confidence to survive validation.
	ConfidenceFloor float64 `yaml:"confidence_floor"`

	// ConsistencyWarning triggers the cross-validation recommendation.
	ConsistencyWarning float64 `yaml:"consistency_warning"`
}

// TrackerConfig configures the performance tracker.
type TrackerConfig struct {
	// LearningRate is the EMA alpha for response time and confidence.
	LearningRate float64 `yaml:"learning_rate"`

	// RecencyDecay is the per-hour decay base for the recency score.
	RecencyDecay float64 `yaml:"recency_decay"`

	// RecencyFloor is the lowest the recency score can decay to.
	RecencyFloor float64 `yaml:"recency_floor"`
}

// SessionConfig configures the session store.
type SessionConfig struct {
	// HistoryLimit bounds per-session query history.
	HistoryLimit int `yaml:"history_limit"`

	// IdleTTL is how long an idle session survives before eviction.
	IdleTTL string `yaml:"idle_ttl"`
}

// StoreConfig configures reliability snapshot persistence.
type StoreConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "quorum",
		Version: "0.3.0",

		Selection: SelectionConfig{
			ScoreCutoff:    0.6,
			MinSpecialists: 2,
			MaxSpecialists: 4,
			RelevanceFloor: 0.3,
		},

		Dispatch: DispatchConfig{
			Deadline: "30s",
		},

		Validation: ValidationConfig{
			ConflictPenalty:    0.2,
			ConfidenceFloor:    0.6,
			ConsistencyWarning: 0.7,
		},

		Tracker: TrackerConfig{
			LearningRate: 0.2,
			RecencyDecay: 0.9,
			RecencyFloor: 0.1,
		},

		Session: SessionConfig{
			HistoryLimit: 10,
			IdleTTL:      "30m",
		},

		Store: StoreConfig{
			Enabled:      false,
			DatabasePath: "data/quorum.db",
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QUORUM_DISPATCH_DEADLINE"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			c.Dispatch.Deadline = v
		}
	}
	if v := os.Getenv("QUORUM_SCORE_CUTOFF"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Selection.ScoreCutoff = f
		}
	}
	if v := os.Getenv("QUORUM_MAX_SPECIALISTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Selection.MaxSpecialists = n
		}
	}
	if v := os.Getenv("QUORUM_DB"); v != "" {
		c.Store.DatabasePath = v
		c.Store.Enabled = true
	}
	if v := os.Getenv("QUORUM_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}

// GetDispatchDeadline returns the shared dispatch deadline as a duration.
func (c *Config) GetDispatchDeadline() time.Duration {
	d, err := time.ParseDuration(c.Dispatch.Deadline)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetSessionIdleTTL returns the session idle TTL as a duration.
func (c *Config) GetSessionIdleTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.IdleTTL)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.Selection.MinSpecialists < 1 {
		return fmt.Errorf("selection.min_specialists must be >= 1, got %d", c.Selection.MinSpecialists)
	}
	if c.Selection.MaxSpecialists < c.Selection.MinSpecialists {
		return fmt.Errorf("selection.max_specialists %d < min_specialists %d",
			c.Selection.MaxSpecialists, c.Selection.MinSpecialists)
	}
	if c.Selection.ScoreCutoff < 0 || c.Selection.ScoreCutoff > 1 {
		return fmt.Errorf("selection.score_cutoff must be in [0,1], got %f", c.Selection.ScoreCutoff)
	}
	if c.Tracker.LearningRate <= 0 || c.Tracker.LearningRate > 1 {
		return fmt.Errorf("tracker.learning_rate must be in (0,1], got %f", c.Tracker.LearningRate)
	}
	if c.Validation.ConfidenceFloor < 0 || c.Validation.ConfidenceFloor > 1 {
		return fmt.Errorf("validation.confidence_floor must be in [0,1], got %f", c.Validation.ConfidenceFloor)
	}
	if c.Session.HistoryLimit < 1 {
		return fmt.Errorf("session.history_limit must be >= 1, got %d", c.Session.HistoryLimit)
	}
	return nil
}
