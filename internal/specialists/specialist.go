// Package specialists provides the built-in knowledge specialists. Each is
// a swappable pattern-matching strategy over a small curated knowledge base;
// the orchestrator core only ever sees the types.Specialist interface.
package specialists

import (
	"context"
	"fmt"
	"time"

	"quorum/internal/tokenize"
	"quorum/internal/types"
)

// Entry is one knowledge-base item a specialist can surface.
type Entry struct {
	// Keywords trigger the entry when they appear in the query.
	Keywords []string

	// Content is the fragment text emitted.
	Content string

	// Source names where the knowledge comes from.
	Source string

	// Confidence is the base confidence of the entry.
	Confidence float64

	// Tags are ordered; the first is the synthesis theme.
	Tags []string
}

// KnowledgeBase is a rule-driven specialist: it matches query tokens against
// entry keywords and emits the entries that fire. All built-in specialists
// are KnowledgeBase instances with different curated entries.
type KnowledgeBase struct {
	id        string
	tags      []string
	threshold float64 // minimum fragment confidence the specialist stands by
	entries   []Entry
}

// NewKnowledgeBase creates a rule-driven specialist.
func NewKnowledgeBase(id string, tags []string, threshold float64, entries []Entry) *KnowledgeBase {
	return &KnowledgeBase{id: id, tags: tags, threshold: threshold, entries: entries}
}

// ID returns the unique specialist identifier.
func (k *KnowledgeBase) ID() string { return k.id }

// DomainTags returns the declared capability tags.
func (k *KnowledgeBase) DomainTags() []string { return k.tags }

// CanHandle reports tag overlap with the query as relevance.
func (k *KnowledgeBase) CanHandle(q types.Query) (bool, float64) {
	if len(k.tags) == 0 {
		return false, 0
	}

	queryTokens := tokenize.Set(q.Content)
	matched := 0
	for _, tag := range k.tags {
		for _, tok := range tokenize.Words(tag) {
			if _, ok := queryTokens[tok]; ok {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return false, 0
	}
	return true, float64(matched) / float64(len(k.tags))
}

// Process matches the query against the knowledge base and returns the
// entries that fire as fragments.
func (k *KnowledgeBase) Process(ctx context.Context, q types.Query) (*types.SpecialistResponse, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("specialist %s: %w", k.id, err)
	}

	queryTokens := tokenize.Set(q.Content)

	var fragments []types.KnowledgeFragment
	var confidenceSum float64

	for _, entry := range k.entries {
		hits := 0
		for _, kw := range entry.Keywords {
			if _, ok := queryTokens[kw]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		// More matched keywords, more certain the entry applies.
		confidence := entry.Confidence * (0.7 + 0.3*float64(hits)/float64(len(entry.Keywords)))
		if confidence > 1 {
			confidence = 1
		}

		fragments = append(fragments, types.KnowledgeFragment{
			Content:      entry.Content,
			Source:       entry.Source,
			Confidence:   confidence,
			SpecialistID: k.id,
			Tags:         entry.Tags,
			Status:       types.ValidationPending,
		})
		confidenceSum += confidence
	}

	resp := &types.SpecialistResponse{
		QueryID:        q.ID,
		SpecialistID:   k.id,
		Fragments:      fragments,
		ProcessingTime: time.Since(start),
		Metadata:       map[string]string{"entries_matched": fmt.Sprintf("%d", len(fragments))},
	}
	if len(fragments) > 0 {
		resp.Confidence = confidenceSum / float64(len(fragments))
	}

	return resp, nil
}

// ValidateFragment is the specialist's self-consistency check: it only
// stands by fragments at or above its own confidence threshold.
func (k *KnowledgeBase) ValidateFragment(f types.KnowledgeFragment) bool {
	if f.Content == "" {
		return false
	}
	return f.Confidence >= k.threshold
}
