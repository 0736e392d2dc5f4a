// Package session provides the per-session context store: a bounded query
// history and temporal context keyed by session ID. A session is only ever
// mutated by the orchestrator handling that session's query; there is no
// cross-session sharing.
package session

import (
	"sync"
	"time"

	"quorum/internal/logging"
)

// HistoryEntry is one past query in a session.
type HistoryEntry struct {
	QueryID    string
	Content    string
	Confidence float64
	AskedAt    time.Time
}

// Context is the per-session state.
type Context struct {
	SessionID       string
	History         []HistoryEntry
	TemporalContext map[string]string
	CreatedAt       time.Time
	LastActive      time.Time
}

// Store holds session contexts with bounded history and idle eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Context

	historyLimit int
	idleTTL      time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates a session store.
func NewStore(historyLimit int, idleTTL time.Duration) *Store {
	if historyLimit < 1 {
		historyLimit = 10
	}
	return &Store{
		sessions:     make(map[string]*Context),
		historyLimit: historyLimit,
		idleTTL:      idleTTL,
		now:          time.Now,
	}
}

// Touch returns the session context, creating it on first use.
func (s *Store) Touch(sessionID string) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.sessions[sessionID]
	if !ok {
		ctx = &Context{
			SessionID:       sessionID,
			TemporalContext: make(map[string]string),
			CreatedAt:       s.now(),
		}
		s.sessions[sessionID] = ctx
		logging.Session("created session %s", sessionID)
	}
	ctx.LastActive = s.now()
	return ctx
}

// Append records one completed query in the session history, trimming to
// the bounded limit.
func (s *Store) Append(sessionID string, entry HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.sessions[sessionID]
	if !ok {
		return
	}

	ctx.History = append(ctx.History, entry)
	if len(ctx.History) > s.historyLimit {
		ctx.History = ctx.History[len(ctx.History)-s.historyLimit:]
	}
	ctx.LastActive = s.now()
}

// History returns a copy of the session's history, nil for unknown sessions.
func (s *Store) History(sessionID string) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]HistoryEntry, len(ctx.History))
	copy(out, ctx.History)
	return out
}

// SetTemporal records a temporal context key for the session.
func (s *Store) SetTemporal(sessionID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx, ok := s.sessions[sessionID]; ok {
		ctx.TemporalContext[key] = value
		ctx.LastActive = s.now()
	}
}

// Sweep evicts sessions idle longer than the TTL. Returns how many were
// removed. Callers run this periodically; the store does not own a timer.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	removed := 0
	for id, ctx := range s.sessions {
		if ctx.LastActive.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		logging.SessionDebug("evicted %d idle sessions", removed)
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
