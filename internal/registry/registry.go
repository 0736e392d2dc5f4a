// Package registry implements the capability registry: it owns every
// registered specialist for process lifetime and answers which of them are
// plausibly relevant to a query, and how relevant.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"quorum/internal/logging"
	"quorum/internal/tokenize"
	"quorum/internal/types"
)

// Relevance weighting. Tag matches dominate; structured context hints add a
// bounded bonus so a well-annotated query can lift a borderline specialist.
const (
	tagMatchIncrement = 0.2
	tagMatchCap       = 0.6
	contextIncrement  = 0.2
	contextBonusCap   = 0.4
)

// recognizedContextKeys are the structured hints a caller can attach to a
// query that count toward the context-relevance bonus.
var recognizedContextKeys = map[string]bool{
	"affected_services": true,
	"component":         true,
	"environment":       true,
	"error_code":        true,
	"topic":             true,
}

// Candidate is one registered specialist judged plausibly relevant to a query.
type Candidate struct {
	SpecialistID string
	Relevance    float64 // 0-1
	// RegistrationOrder breaks ties deterministically downstream.
	RegistrationOrder int
}

// Registry holds all registered specialists. Registration happens at startup;
// Candidates is a pure function of the current registrations and the query.
type Registry struct {
	mu          sync.RWMutex
	specialists map[string]types.Specialist
	order       []string // registration order

	relevanceFloor float64
}

// New creates an empty registry with the given candidacy floor.
func New(relevanceFloor float64) *Registry {
	return &Registry{
		specialists:    make(map[string]types.Specialist),
		relevanceFloor: relevanceFloor,
	}
}

// Register adds a specialist. Specialist IDs are unique; re-registering an
// ID is a caller bug and returns an error.
func (r *Registry) Register(s types.Specialist) error {
	if s == nil || s.ID() == "" {
		return fmt.Errorf("specialist must have a non-empty ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specialists[s.ID()]; exists {
		return fmt.Errorf("specialist already registered: %s", s.ID())
	}

	r.specialists[s.ID()] = s
	r.order = append(r.order, s.ID())

	logging.Registry("registered specialist %s (tags: %v)", s.ID(), s.DomainTags())
	return nil
}

// Get returns a registered specialist by ID.
func (r *Registry) Get(id string) (types.Specialist, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specialists[id]
	return s, ok
}

// List returns all specialists in registration order.
func (r *Registry) List() []types.Specialist {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Specialist, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.specialists[id])
	}
	return out
}

// Len returns the number of registered specialists.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.specialists)
}

// Candidates returns specialists plausibly relevant to the query, ordered by
// relevance descending (registration order breaks ties). A specialist is a
// candidate only if its relevance exceeds the candidacy floor and its own
// CanHandle agrees.
func (r *Registry) Candidates(q types.Query) []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queryTokens := tokenize.Set(q.Content)

	var candidates []Candidate
	for idx, id := range r.order {
		s := r.specialists[id]

		relevance := r.relevance(s, queryTokens, q.Context)
		if relevance <= r.relevanceFloor {
			continue
		}
		if ok, _ := s.CanHandle(q); !ok {
			continue
		}

		candidates = append(candidates, Candidate{
			SpecialistID:      id,
			Relevance:         relevance,
			RegistrationOrder: idx,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Relevance != candidates[j].Relevance {
			return candidates[i].Relevance > candidates[j].Relevance
		}
		return candidates[i].RegistrationOrder < candidates[j].RegistrationOrder
	})

	logging.RegistryDebug("query %s: %d/%d candidates above floor %.2f",
		q.ID, len(candidates), len(r.order), r.relevanceFloor)

	return candidates
}

// relevance computes keyword overlap between query tokens and declared
// domain tags, plus a capped bonus for recognized structured context keys.
func (r *Registry) relevance(s types.Specialist, queryTokens map[string]struct{}, context map[string]string) float64 {
	var tagScore float64
	for _, tag := range s.DomainTags() {
		if matchesTag(queryTokens, tag) {
			tagScore += tagMatchIncrement
		}
	}
	if tagScore > tagMatchCap {
		tagScore = tagMatchCap
	}

	// Context hints only count toward the specialist whose tags they name;
	// a uniform presence bonus would lift irrelevant specialists past the
	// candidacy floor.
	tagTokens := make(map[string]struct{})
	for _, tag := range s.DomainTags() {
		for _, tok := range tokenize.Words(tag) {
			tagTokens[tok] = struct{}{}
		}
	}

	var ctxScore float64
	for key, value := range context {
		if !recognizedContextKeys[key] || value == "" {
			continue
		}
		if matchesTag(tagTokens, value) {
			ctxScore += contextIncrement
		}
	}
	if ctxScore > contextBonusCap {
		ctxScore = contextBonusCap
	}

	return tagScore + ctxScore
}

// matchesTag reports whether any token of the (possibly multi-word) tag
// appears in the query token set.
func matchesTag(queryTokens map[string]struct{}, tag string) bool {
	for _, tok := range tokenize.Words(tag) {
		if _, ok := queryTokens[tok]; ok {
			return true
		}
	}
	return false
}
