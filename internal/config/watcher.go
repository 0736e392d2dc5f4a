package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"quorum/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a config file for changes and reloads tuning knobs at
// runtime. Subscribers receive the freshly loaded Config; a reload that
// fails validation is dropped and the previous config stays in effect.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	path        string
	current     *Config
	onReload    []func(*Config)
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string, initial *Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     fw,
		path:        path,
		current:     initial,
		debounceDur: 500 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after every successful reload.
// Must be called before Start.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = append(w.onReload, fn)
}

// Current returns the most recently loaded config.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching. Non-blocking; the loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: editors replace files on save.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		logging.Get(logging.CategoryBoot).Warn("config watcher: initial watch failed: %v", err)
	} else {
		logging.Boot("config watcher: watching %s", dir)
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryBoot).Error("config watcher: error closing: %v", err)
	}
}

// run is the main event loop for the watcher. Reloads are debounced on the
// trailing edge: every event resets the timer, and the reload runs once the
// file has been quiet for the debounce window, so the last write of a rapid
// save sequence is always the one loaded.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounce := time.NewTimer(w.debounceDur)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if pending && !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(w.debounceDur)
			pending = true

		case <-debounce.C:
			pending = false
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Error("config watcher error: %v", err)
		}
	}
}

// relevant reports whether the event is a write to the watched config file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

// reload loads the config file and, if it validates, swaps it in and
// notifies subscribers.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("config reload failed: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		logging.Get(logging.CategoryBoot).Warn("config reload rejected: %v", err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*Config), len(w.onReload))
	copy(callbacks, w.onReload)
	w.mu.Unlock()

	logging.Boot("config reloaded from %s", w.path)
	for _, fn := range callbacks {
		fn(cfg)
	}
}
