// Package tracker maintains the per-specialist reliability table that feeds
// selection. Each completed query round records one outcome per collected
// specialist; the table is the only state shared across query rounds.
package tracker

import (
	"math"
	"sort"
	"sync"
	"time"

	"quorum/internal/logging"
	"quorum/internal/types"
)

// Reliability score weights. The remaining 0.2 lives in the selection
// engine's relevance term, not here, so it is not double counted.
const (
	successRateWeight = 0.3
	confidenceWeight  = 0.2
	recencyWeight     = 0.3
)

// Config holds tracker tuning knobs.
type Config struct {
	// LearningRate is the EMA alpha for avg response time and confidence.
	LearningRate float64

	// RecencyDecay is the per-hour decay base for the recency score.
	RecencyDecay float64

	// RecencyFloor is the lowest the recency score can decay to.
	RecencyFloor float64
}

// DefaultConfig returns the default tracker knobs.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.2,
		RecencyDecay: 0.9,
		RecencyFloor: 0.1,
	}
}

// entry pairs one specialist's record with its own lock, so updates to
// unrelated specialists never serialize against each other.
type entry struct {
	mu  sync.Mutex
	rec types.ReliabilityRecord
}

// Tracker records round outcomes and computes decaying reliability scores.
type Tracker struct {
	mu      sync.RWMutex // guards the entries map itself
	entries map[string]*entry
	cfg     Config
	store   types.ReliabilityStore // optional persistence, may be nil

	// now is swappable for tests.
	now func() time.Time
}

// New creates a tracker. store may be nil for in-memory-only operation;
// when present, existing records are loaded from it at startup.
func New(cfg Config, store types.ReliabilityStore) *Tracker {
	t := &Tracker{
		entries: make(map[string]*entry),
		cfg:     cfg,
		store:   store,
		now:     time.Now,
	}

	if store != nil {
		recs, err := store.LoadRecords()
		if err != nil {
			logging.Get(logging.CategoryTracker).Warn("failed to load reliability records: %v", err)
			return t
		}
		for _, rec := range recs {
			t.entries[rec.SpecialistID] = &entry{rec: rec}
		}
		if len(recs) > 0 {
			logging.Tracker("loaded %d reliability records", len(recs))
		}
	}

	return t
}

// SetConfig swaps the tuning knobs (config hot reload).
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
}

// Record updates one specialist's record after a completed round. Called
// exactly once per collected specialist per round by the orchestrator; the
// per-specialist lock serializes writers so the EMA math stays correct.
func (t *Tracker) Record(specialistID string, responseTime time.Duration, confidence float64, validationSuccess bool) {
	e := t.entry(specialistID)

	t.mu.RLock()
	cfg := t.cfg
	t.mu.RUnlock()

	e.mu.Lock()
	rec := &e.rec
	now := t.now()

	rec.SpecialistID = specialistID
	rec.TotalQueries++
	if confidence > 0.5 {
		rec.SuccessfulResponses++
	}

	if rec.TotalQueries == 1 {
		rec.AvgResponseTime = responseTime
		rec.AvgConfidence = confidence
	} else {
		alpha := cfg.LearningRate
		rec.AvgResponseTime = time.Duration((1-alpha)*float64(rec.AvgResponseTime) + alpha*float64(responseTime))
		rec.AvgConfidence = (1-alpha)*rec.AvgConfidence + alpha*confidence
	}

	rec.ValidationAttempts++
	if validationSuccess {
		rec.ValidationSuccesses++
	}
	rec.ValidationSuccessRate = float64(rec.ValidationSuccesses) / float64(rec.ValidationAttempts)

	rec.LastUsed = now
	rec.ReliabilityScore = t.score(rec, cfg, now)

	snapshot := *rec
	e.mu.Unlock()

	logging.TrackerDebug("recorded %s: total=%d avg_conf=%.3f score=%.3f",
		specialistID, snapshot.TotalQueries, snapshot.AvgConfidence, snapshot.ReliabilityScore)

	if t.store != nil {
		if err := t.store.SaveRecord(snapshot); err != nil {
			logging.Get(logging.CategoryTracker).Warn("failed to persist record for %s: %v", specialistID, err)
		}
	}
}

// Score returns the current reliability score, recomputed with recency decay
// against the current time. A specialist with no history scores 0 and
// competes purely on relevance.
func (t *Tracker) Score(specialistID string) float64 {
	t.mu.RLock()
	e, ok := t.entries[specialistID]
	cfg := t.cfg
	t.mu.RUnlock()
	if !ok {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec.TotalQueries == 0 {
		return 0
	}
	return t.score(&e.rec, cfg, t.now())
}

// Snapshot returns a copy of the reliability record, false if none exists.
func (t *Tracker) Snapshot(specialistID string) (types.ReliabilityRecord, bool) {
	t.mu.RLock()
	e, ok := t.entries[specialistID]
	t.mu.RUnlock()
	if !ok {
		return types.ReliabilityRecord{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, true
}

// All returns copies of every record, sorted by specialist ID.
func (t *Tracker) All() []types.ReliabilityRecord {
	t.mu.RLock()
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	sort.Strings(ids)

	out := make([]types.ReliabilityRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := t.Snapshot(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// score computes the decaying reliability score. Bounded: the three weights
// sum to 0.8, each factor is in [0,1], so the score stays in [0,1].
func (t *Tracker) score(rec *types.ReliabilityRecord, cfg Config, now time.Time) float64 {
	successRate := 0.0
	if rec.TotalQueries > 0 {
		successRate = float64(rec.SuccessfulResponses) / float64(rec.TotalQueries)
	}

	recency := cfg.RecencyFloor
	if !rec.LastUsed.IsZero() {
		hours := now.Sub(rec.LastUsed).Hours()
		if hours < 0 {
			hours = 0
		}
		recency = math.Pow(cfg.RecencyDecay, hours)
		if recency < cfg.RecencyFloor {
			recency = cfg.RecencyFloor
		}
	}

	score := successRateWeight*successRate + confidenceWeight*rec.AvgConfidence + recencyWeight*recency
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// entry returns (creating if needed) the locked entry for a specialist.
func (t *Tracker) entry(specialistID string) *entry {
	t.mu.RLock()
	e, ok := t.entries[specialistID]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok = t.entries[specialistID]; ok {
		return e
	}
	e = &entry{}
	t.entries[specialistID] = e
	return e
}
