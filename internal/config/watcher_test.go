package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path string, cutoff string) {
	t.Helper()
	content := "selection:\n  score_cutoff: " + cutoff + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorum.yaml")
	writeConfig(t, path, "0.6")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial)
	require.NoError(t, err)

	reloaded := make(chan *Config, 1)
	w.OnReload(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeConfig(t, path, "0.45")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 0.45, cfg.Selection.ScoreCutoff)
		assert.Equal(t, 0.45, w.Current().Selection.ScoreCutoff)
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatcherRapidSavesLoadFinalContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorum.yaml")
	writeConfig(t, path, "0.6")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial)
	require.NoError(t, err)

	reloaded := make(chan *Config, 8)
	w.OnReload(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// An atomic-save editor emits several events back to back; the trailing
	// write is the one that must end up loaded.
	writeConfig(t, path, "0.41")
	writeConfig(t, path, "0.42")
	writeConfig(t, path, "0.43")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if cfg.Selection.ScoreCutoff == 0.43 {
				assert.Equal(t, 0.43, w.Current().Selection.ScoreCutoff)
				return
			}
		case <-deadline:
			t.Fatalf("final write never loaded (current cutoff %v)", w.Current().Selection.ScoreCutoff)
		}
	}
}

func TestWatcherRejectsInvalidReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorum.yaml")
	writeConfig(t, path, "0.6")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial)
	require.NoError(t, err)

	fired := make(chan struct{}, 1)
	w.OnReload(func(*Config) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// out-of-range cutoff fails validation and must be dropped
	writeConfig(t, path, "7.0")

	select {
	case <-fired:
		t.Fatal("invalid config must not reach subscribers")
	case <-time.After(1500 * time.Millisecond):
	}
	assert.Equal(t, 0.6, w.Current().Selection.ScoreCutoff)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorum.yaml")
	writeConfig(t, path, "0.6")

	initial, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(path, initial)
	require.NoError(t, err)

	fired := make(chan struct{}, 1)
	w.OnReload(func(*Config) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))

	select {
	case <-fired:
		t.Fatal("unrelated file must not trigger a reload")
	case <-time.After(1500 * time.Millisecond):
	}
}
