package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.6, cfg.Selection.ScoreCutoff)
	assert.Equal(t, 2, cfg.Selection.MinSpecialists)
	assert.Equal(t, 4, cfg.Selection.MaxSpecialists)
	assert.Equal(t, 0.3, cfg.Selection.RelevanceFloor)
	assert.Equal(t, 30*time.Second, cfg.GetDispatchDeadline())
	assert.Equal(t, 0.2, cfg.Validation.ConflictPenalty)
	assert.Equal(t, 0.6, cfg.Validation.ConfidenceFloor)
	assert.Equal(t, 0.2, cfg.Tracker.LearningRate)
	assert.Equal(t, 10, cfg.Session.HistoryLimit)
	assert.Equal(t, 30*time.Minute, cfg.GetSessionIdleTTL())
	assert.False(t, cfg.Store.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Selection, cfg.Selection)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quorum.yaml")
	content := `
selection:
  score_cutoff: 0.5
  min_specialists: 1
  max_specialists: 3
  relevance_floor: 0.2
dispatch:
  deadline: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Selection.ScoreCutoff)
	assert.Equal(t, 3, cfg.Selection.MaxSpecialists)
	assert.Equal(t, 10*time.Second, cfg.GetDispatchDeadline())
	// untouched sections keep their defaults
	assert.Equal(t, 0.2, cfg.Tracker.LearningRate)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quorum.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selection: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quorum.yaml")

	cfg := DefaultConfig()
	cfg.Selection.ScoreCutoff = 0.55
	cfg.Session.HistoryLimit = 5
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.55, loaded.Selection.ScoreCutoff)
	assert.Equal(t, 5, loaded.Session.HistoryLimit)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("dispatch deadline", func(t *testing.T) {
		t.Setenv("QUORUM_DISPATCH_DEADLINE", "45s")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, cfg.GetDispatchDeadline())
	})

	t.Run("invalid deadline ignored", func(t *testing.T) {
		t.Setenv("QUORUM_DISPATCH_DEADLINE", "not-a-duration")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, cfg.GetDispatchDeadline())
	})

	t.Run("score cutoff", func(t *testing.T) {
		t.Setenv("QUORUM_SCORE_CUTOFF", "0.75")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 0.75, cfg.Selection.ScoreCutoff)
	})

	t.Run("max specialists", func(t *testing.T) {
		t.Setenv("QUORUM_MAX_SPECIALISTS", "6")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 6, cfg.Selection.MaxSpecialists)
	})

	t.Run("database path enables the store", func(t *testing.T) {
		t.Setenv("QUORUM_DB", "/tmp/custom.db")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.Store.Enabled)
		assert.Equal(t, "/tmp/custom.db", cfg.Store.DatabasePath)
	})

	t.Run("debug flag", func(t *testing.T) {
		t.Setenv("QUORUM_DEBUG", "1")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.True(t, cfg.Logging.DebugMode)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"min below one", func(c *Config) { c.Selection.MinSpecialists = 0 }},
		{"max below min", func(c *Config) { c.Selection.MaxSpecialists = 1; c.Selection.MinSpecialists = 2 }},
		{"cutoff out of range", func(c *Config) { c.Selection.ScoreCutoff = 1.5 }},
		{"learning rate zero", func(c *Config) { c.Tracker.LearningRate = 0 }},
		{"confidence floor negative", func(c *Config) { c.Validation.ConfidenceFloor = -0.1 }},
		{"history limit zero", func(c *Config) { c.Session.HistoryLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
