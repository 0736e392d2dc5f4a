// Package validation implements cross-source validation: pairwise content
// similarity across fragments, antonym conflict detection, and the overall
// confidence computation for one query round. Validation is a pure,
// synchronous computation over already-gathered fragments; it never retries
// and never fails the query.
package validation

import (
	"fmt"
	"sync"

	"quorum/internal/logging"
	"quorum/internal/tokenize"
	"quorum/internal/types"
)

// AntonymPair is one entry in the conflict table. Two fragments conflict
// when one contains A and the other contains B.
type AntonymPair struct {
	A string
	B string
}

// DefaultAntonyms is the built-in conflict table. It is a heuristic policy,
// not a semantic analysis: it misses real contradictions and can flag
// superficial ones, so it is injectable rather than fixed.
var DefaultAntonyms = []AntonymPair{
	{"enabled", "disabled"},
	{"true", "false"},
	{"healthy", "unhealthy"},
	{"up", "down"},
	{"connected", "disconnected"},
	{"increase", "decrease"},
	{"success", "failure"},
	{"available", "unavailable"},
}

// Config holds validation tuning knobs.
type Config struct {
	// ConflictPenalty is the confidence reduction per detected conflict.
	ConflictPenalty float64

	// ConfidenceFloor is the minimum fragment confidence to be validated;
	// fragments below it are rejected and excluded from synthesis.
	ConfidenceFloor float64

	// ConsistencyWarning is the consistency score below which the
	// cross-validation recommendation is emitted.
	ConsistencyWarning float64
}

// DefaultConfig returns the default validation knobs.
func DefaultConfig() Config {
	return Config{
		ConflictPenalty:    0.2,
		ConfidenceFloor:    0.6,
		ConsistencyWarning: 0.7,
	}
}

// Validator cross-checks fragments from different specialists.
type Validator struct {
	mu       sync.RWMutex // guards cfg and antonyms against hot reload
	cfg      Config
	antonyms []AntonymPair
}

// New creates a validator with the default antonym table.
func New(cfg Config) *Validator {
	return &Validator{cfg: cfg, antonyms: DefaultAntonyms}
}

// WithAntonyms replaces the conflict table.
func (v *Validator) WithAntonyms(pairs []AntonymPair) *Validator {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.antonyms = pairs
	return v
}

// SetConfig swaps the tuning knobs (config hot reload).
func (v *Validator) SetConfig(cfg Config) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg = cfg
}

// Validate cross-checks the fragments and computes the round's confidence.
// Each fragment's Status is written exactly once: pending -> validated or
// pending -> rejected.
func (v *Validator) Validate(fragments []types.KnowledgeFragment) *types.ValidationResult {
	result := &types.ValidationResult{}

	// One config snapshot per round; a hot reload applies to the next round.
	v.mu.RLock()
	cfg := v.cfg
	antonyms := v.antonyms
	v.mu.RUnlock()

	if len(fragments) == 0 {
		result.ConsistencyScore = 1.0
		return result
	}

	// A single source cannot disagree with itself.
	if len(fragments) == 1 {
		result.ConsistencyScore = 1.0
		result.OverallConfidence = fragments[0].Confidence
		partition(fragments, cfg, result)
		result.Recommendations = recommendations(fragments, cfg, result)
		return result
	}

	tokenSets := make([]map[string]struct{}, len(fragments))
	for i, f := range fragments {
		tokenSets[i] = tokenize.Set(f.Content)
	}

	// Mean pairwise token-set overlap.
	var similaritySum float64
	pairs := 0
	for i := 0; i < len(fragments); i++ {
		for j := i + 1; j < len(fragments); j++ {
			similaritySum += tokenize.Jaccard(tokenSets[i], tokenSets[j])
			pairs++
		}
	}
	result.ConsistencyScore = similaritySum / float64(pairs)

	// Conflict terms are matched against raw words: the stop-word filter
	// drops short terms like "up" that the antonym table needs.
	rawSets := make([]map[string]struct{}, len(fragments))
	for i, f := range fragments {
		rawSets[i] = rawWordSet(f.Content)
	}
	result.Conflicts = detectConflicts(fragments, rawSets, antonyms)

	var confidenceSum float64
	for _, f := range fragments {
		confidenceSum += f.Confidence
	}
	meanConfidence := confidenceSum / float64(len(fragments))

	penalty := 1.0 - cfg.ConflictPenalty*float64(len(result.Conflicts))
	if penalty < 0 {
		penalty = 0
	}
	result.OverallConfidence = meanConfidence * penalty * result.ConsistencyScore

	partition(fragments, cfg, result)
	result.Recommendations = recommendations(fragments, cfg, result)

	logging.Validation("validated %d fragments: consistency=%.3f conflicts=%d overall=%.3f",
		len(fragments), result.ConsistencyScore, len(result.Conflicts), result.OverallConfidence)

	return result
}

// detectConflicts scans every fragment pair against the antonym table.
func detectConflicts(fragments []types.KnowledgeFragment, tokenSets []map[string]struct{}, antonyms []AntonymPair) []types.Conflict {
	var conflicts []types.Conflict

	contains := func(set map[string]struct{}, term string) bool {
		_, ok := set[term]
		return ok
	}

	for i := 0; i < len(fragments); i++ {
		for j := i + 1; j < len(fragments); j++ {
			for _, pair := range antonyms {
				switch {
				case contains(tokenSets[i], pair.A) && contains(tokenSets[j], pair.B):
					conflicts = append(conflicts, types.Conflict{
						FragmentA: i, FragmentB: j, TermA: pair.A, TermB: pair.B,
					})
				case contains(tokenSets[i], pair.B) && contains(tokenSets[j], pair.A):
					conflicts = append(conflicts, types.Conflict{
						FragmentA: i, FragmentB: j, TermA: pair.B, TermB: pair.A,
					})
				}
			}
		}
	}

	return conflicts
}

// rawWordSet lowercases and splits on non-alphanumerics without the
// stop-word filter.
func rawWordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	word := make([]rune, 0, 16)
	flush := func() {
		if len(word) > 0 {
			set[string(word)] = struct{}{}
			word = word[:0]
		}
	}
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			word = append(word, r)
		case r >= 'A' && r <= 'Z':
			word = append(word, r+('a'-'A'))
		default:
			flush()
		}
	}
	flush()
	return set
}

// partition marks each fragment validated or rejected by the confidence
// floor and splits them into the result lists.
func partition(fragments []types.KnowledgeFragment, cfg Config, result *types.ValidationResult) {
	for _, f := range fragments {
		if f.Confidence >= cfg.ConfidenceFloor {
			f.Status = types.ValidationValidated
			result.ValidatedFragments = append(result.ValidatedFragments, f)
		} else {
			f.Status = types.ValidationRejected
			result.RejectedFragments = append(result.RejectedFragments, f)
		}
	}
}

// recommendations are deterministic: same inputs, same advice.
func recommendations(fragments []types.KnowledgeFragment, cfg Config, result *types.ValidationResult) []string {
	var recs []string

	if len(fragments) >= 2 && result.ConsistencyScore < cfg.ConsistencyWarning {
		recs = append(recs, "Low consistency across sources - cross-validate from additional sources")
	}
	if len(result.Conflicts) > 0 {
		recs = append(recs, fmt.Sprintf("Review conflicting information (%d conflict(s) detected)", len(result.Conflicts)))
	}
	if len(fragments) == 1 {
		recs = append(recs, "Single-source result - consider cross-validation")
	}
	for _, f := range fragments {
		if f.Confidence < cfg.ConfidenceFloor {
			recs = append(recs, "Some information has low confidence - verify accuracy")
			break
		}
	}

	return recs
}
