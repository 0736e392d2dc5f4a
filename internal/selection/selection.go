// Package selection implements performance-aware specialist selection: it
// combines registry relevance, historical reliability, and query keyword
// overlap to choose a bounded subset of specialists to dispatch.
package selection

import (
	"sort"
	"sync"

	"quorum/internal/logging"
	"quorum/internal/registry"
	"quorum/internal/tokenize"
	"quorum/internal/types"
)

// Combined score weights. Relevance dominates; reliability and direct
// keyword overlap split the rest evenly.
const (
	relevanceWeight   = 0.4
	reliabilityWeight = 0.3
	keywordWeight     = 0.3
)

// Config bounds how many specialists one query may fan out to.
type Config struct {
	ScoreCutoff    float64 // candidates scoring >= this are taken
	MinSpecialists int     // always take at least this many (when available)
	MaxSpecialists int     // never take more than this many
}

// DefaultConfig returns the default selection bounds.
func DefaultConfig() Config {
	return Config{
		ScoreCutoff:    0.6,
		MinSpecialists: 2,
		MaxSpecialists: 4,
	}
}

// Scored is one candidate with its combined selection score.
type Scored struct {
	SpecialistID string
	Relevance    float64
	Reliability  float64
	KeywordMatch float64
	Score        float64
}

// Engine ranks candidates and applies the min/max selection bounds.
type Engine struct {
	reg         *registry.Registry
	reliability types.ReliabilityReader

	mu  sync.RWMutex // guards cfg against hot reload during a round
	cfg Config
}

// New creates a selection engine.
func New(reg *registry.Registry, reliability types.ReliabilityReader, cfg Config) *Engine {
	if cfg.MinSpecialists < 1 {
		cfg.MinSpecialists = 1
	}
	if cfg.MaxSpecialists < cfg.MinSpecialists {
		cfg.MaxSpecialists = cfg.MinSpecialists
	}
	return &Engine{reg: reg, reliability: reliability, cfg: cfg}
}

// SetConfig swaps the selection bounds (config hot reload).
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

// Select chooses which candidates to dispatch for the query. All candidates
// scoring at or above the cutoff are taken, but at least the top
// MinSpecialists are always taken and at most MaxSpecialists ever are.
// Deterministic given fixed registry and reliability state: ties fall back
// to registration order via the candidate ordering.
func (e *Engine) Select(q types.Query, candidates []registry.Candidate) []Scored {
	if len(candidates) == 0 {
		logging.Selection("query %s: no capable specialist", q.ID)
		return nil
	}

	// One config snapshot per round: a reload mid-round must not mix bounds.
	e.mu.RLock()
	cfg := e.cfg
	e.mu.RUnlock()

	keywords := tokenize.Set(q.Content)

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		rel := e.reliability.Score(c.SpecialistID)
		kw := e.keywordMatch(c.SpecialistID, keywords)

		scored = append(scored, Scored{
			SpecialistID: c.SpecialistID,
			Relevance:    c.Relevance,
			Reliability:  rel,
			KeywordMatch: kw,
			Score:        relevanceWeight*c.Relevance + reliabilityWeight*rel + keywordWeight*kw,
		})
	}

	// Candidates arrive relevance-ordered; re-rank by combined score.
	// Stable sort keeps registration order as the tie-break.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	take := 0
	for i, s := range scored {
		if s.Score >= cfg.ScoreCutoff || i < cfg.MinSpecialists {
			take = i + 1
		}
	}
	if take > cfg.MaxSpecialists {
		take = cfg.MaxSpecialists
	}
	if take > len(scored) {
		take = len(scored)
	}

	chosen := scored[:take]
	for _, s := range chosen {
		logging.SelectionDebug("query %s: chose %s (score=%.3f rel=%.2f rely=%.2f kw=%.2f)",
			q.ID, s.SpecialistID, s.Score, s.Relevance, s.Reliability, s.KeywordMatch)
	}
	logging.Selection("query %s: selected %d/%d candidates", q.ID, len(chosen), len(candidates))

	return chosen
}

// keywordMatch is the fraction of the specialist's declared tags present in
// the query's stop-word-stripped keyword set.
func (e *Engine) keywordMatch(specialistID string, keywords map[string]struct{}) float64 {
	s, ok := e.reg.Get(specialistID)
	if !ok {
		return 0
	}
	tags := s.DomainTags()
	if len(tags) == 0 {
		return 0
	}

	matched := 0
	for _, tag := range tags {
		for _, tok := range tokenize.Words(tag) {
			if _, hit := keywords[tok]; hit {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(tags))
}
