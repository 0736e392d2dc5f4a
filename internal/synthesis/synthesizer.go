// Package synthesis composes the single narrative answer from validated
// fragments: grouped by theme, ranked by confidence, with a reasoning trace
// and closing recommendations. Synthesis is deterministic; given the same
// validation result it always produces the same text.
package synthesis

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"quorum/internal/logging"
	"quorum/internal/types"
)

const (
	// maxSupporting bounds lower-confidence bullet lines per theme group.
	maxSupporting = 2

	// supportingFloor is the minimum confidence for a supporting line.
	supportingFloor = 0.6

	// maxRecommendations bounds the closing section.
	maxRecommendations = 3
)

// Synthesizer builds the final answer text.
type Synthesizer struct {
	mu sync.RWMutex

	// consistencyWarning mirrors the validator's threshold; below it the
	// answer opens with a validation notice.
	consistencyWarning float64
}

// New creates a synthesizer.
func New(consistencyWarning float64) *Synthesizer {
	return &Synthesizer{consistencyWarning: consistencyWarning}
}

// SetConsistencyWarning swaps the preamble threshold (config hot reload).
// It must track the validator's threshold or the narrative note and the
// cross-validation recommendation would disagree.
func (s *Synthesizer) SetConsistencyWarning(threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consistencyWarning = threshold
}

// group is one theme's fragments, ranked by confidence.
type group struct {
	tag       string
	fragments []types.KnowledgeFragment
}

// Synthesize merges the validated fragments into one narrative answer.
func (s *Synthesizer) Synthesize(result *types.ValidationResult, q types.Query) (string, types.ReasoningTrace) {
	fragments := result.ValidatedFragments

	trace := types.ReasoningTrace{
		SourcesConsulted: len(fragments),
		Specialists:      specialistsOf(fragments),
		ConflictCount:    len(result.Conflicts),
		ConfidenceLabel:  ConfidenceLabel(result.OverallConfidence),
	}

	if len(fragments) == 0 {
		return "No validated knowledge was available for this query.", trace
	}

	groups := groupByTheme(fragments)

	var sb strings.Builder

	s.mu.RLock()
	consistencyWarning := s.consistencyWarning
	s.mu.RUnlock()

	if result.ConsistencyScore < consistencyWarning {
		sb.WriteString("Note: sources showed limited agreement on this topic; treat details below with care.\n\n")
	}

	for _, g := range groups {
		primary := g.fragments[0]

		if g.tag != "general" {
			sb.WriteString(fmt.Sprintf("**%s**: ", g.tag))
		}
		sb.WriteString(strings.TrimSpace(primary.Content))
		sb.WriteString("\n")

		supporting := 0
		for _, f := range g.fragments[1:] {
			if supporting >= maxSupporting {
				break
			}
			if f.Confidence < supportingFloor {
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s\n", strings.TrimSpace(f.Content)))
			supporting++
		}
		sb.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		sb.WriteString("Recommendations:\n")
		recs := result.Recommendations
		if len(recs) > maxRecommendations {
			recs = recs[:maxRecommendations]
		}
		for _, r := range recs {
			sb.WriteString(fmt.Sprintf("- %s\n", r))
		}
	}

	text := strings.TrimRight(sb.String(), "\n")

	logging.Synthesis("synthesized %d fragments across %d themes (confidence: %s)",
		len(fragments), len(groups), trace.ConfidenceLabel)

	return text, trace
}

// groupByTheme buckets fragments by primary tag, emitting groups in the
// order first encountered. Within a group fragments are sorted by
// confidence descending; input order (specialist registration order via the
// dispatch pipeline) breaks ties.
func groupByTheme(fragments []types.KnowledgeFragment) []group {
	index := make(map[string]int)
	var groups []group

	for _, f := range fragments {
		tag := f.PrimaryTag()
		i, ok := index[tag]
		if !ok {
			i = len(groups)
			index[tag] = i
			groups = append(groups, group{tag: tag})
		}
		groups[i].fragments = append(groups[i].fragments, f)
	}

	for i := range groups {
		sort.SliceStable(groups[i].fragments, func(a, b int) bool {
			return groups[i].fragments[a].Confidence > groups[i].fragments[b].Confidence
		})
	}

	return groups
}

// specialistsOf lists contributing specialists, deduplicated, in fragment
// order.
func specialistsOf(fragments []types.KnowledgeFragment) []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range fragments {
		if f.SpecialistID == "" || seen[f.SpecialistID] {
			continue
		}
		seen[f.SpecialistID] = true
		out = append(out, f.SpecialistID)
	}
	return out
}

// ConfidenceLabel maps a confidence value to its qualitative label.
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.6:
		return "moderate"
	case confidence >= 0.3:
		return "low"
	default:
		return "very low"
	}
}
