// Package types defines the shared data model for the quorum orchestrator:
// queries, knowledge fragments, specialist responses, validation results,
// and the per-specialist reliability records that feed selection.
package types

import (
	"time"
)

// =============================================================================
// QUERY
// =============================================================================

// Query is one natural-language question routed through the orchestrator.
// Immutable once dispatched.
type Query struct {
	ID          string            `json:"id"`
	Content     string            `json:"content"`
	Context     map[string]string `json:"context,omitempty"`
	RequesterID string            `json:"requester_id,omitempty"`
	Priority    Priority          `json:"priority"`
	Timeout     time.Duration     `json:"timeout,omitempty"`
}

// Priority indicates urgency of a query.
type Priority int

const (
	// PriorityBackground - async, can wait for an opportune moment
	PriorityBackground Priority = iota
	// PriorityNormal - standard priority
	PriorityNormal
	// PriorityUrgent - answer before anything else
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityBackground:
		return "background"
	case PriorityNormal:
		return "normal"
	case PriorityUrgent:
		return "urgent"
	default:
		return "unknown"
	}
}

// =============================================================================
// KNOWLEDGE FRAGMENTS
// =============================================================================

// ValidationStatus tracks a fragment through cross-source validation.
// Transitions only pending -> validated or pending -> rejected.
type ValidationStatus string

const (
	ValidationPending   ValidationStatus = "pending"
	ValidationValidated ValidationStatus = "validated"
	ValidationRejected  ValidationStatus = "rejected"
)

// KnowledgeFragment is one atomic piece of candidate content produced by
// exactly one specialist for one query. Only Status is written after
// creation, exactly once, by the validator.
type KnowledgeFragment struct {
	Content      string           `json:"content"`
	Source       string           `json:"source"`
	Confidence   float64          `json:"confidence"` // 0-1
	SpecialistID string           `json:"specialist_id"`
	Tags         []string         `json:"tags,omitempty"` // ordered; first tag is the theme
	Status       ValidationStatus `json:"status"`
}

// PrimaryTag returns the fragment's theme: its first tag, or "general".
func (f *KnowledgeFragment) PrimaryTag() string {
	if len(f.Tags) == 0 {
		return "general"
	}
	return f.Tags[0]
}

// SpecialistResponse carries everything one specialist produced for one query.
// Discarded after synthesis; never persisted.
type SpecialistResponse struct {
	QueryID        string              `json:"query_id"`
	SpecialistID   string              `json:"specialist_id"`
	Fragments      []KnowledgeFragment `json:"fragments"`
	Confidence     float64             `json:"confidence"` // 0-1, specialist's own estimate
	ProcessingTime time.Duration       `json:"processing_time"`
	Metadata       map[string]string   `json:"metadata,omitempty"`
}

// =============================================================================
// VALIDATION
// =============================================================================

// Conflict records an antonym clash between two fragments.
type Conflict struct {
	FragmentA int    `json:"fragment_a"` // index into the fragment list as validated
	FragmentB int    `json:"fragment_b"`
	TermA     string `json:"term_a"`
	TermB     string `json:"term_b"`
}

// ValidationResult is the cross-source validation verdict for one query round.
// Computed fresh per query; not persisted.
type ValidationResult struct {
	OverallConfidence  float64             `json:"overall_confidence"`
	ConsistencyScore   float64             `json:"consistency_score"` // 0-1 mean pairwise token overlap
	Conflicts          []Conflict          `json:"conflicts,omitempty"`
	ValidatedFragments []KnowledgeFragment `json:"validated_fragments"`
	RejectedFragments  []KnowledgeFragment `json:"rejected_fragments,omitempty"`
	Recommendations    []string            `json:"recommendations,omitempty"`
}

// =============================================================================
// RELIABILITY
// =============================================================================

// ReliabilityRecord is the rolling performance history for one specialist.
// This is the only state that persists across queries. Mutated only by the
// tracker, exactly once per completed round, single writer per specialist.
type ReliabilityRecord struct {
	SpecialistID          string        `json:"specialist_id"`
	TotalQueries          int           `json:"total_queries"`
	SuccessfulResponses   int           `json:"successful_responses"`
	AvgResponseTime       time.Duration `json:"avg_response_time"`
	AvgConfidence         float64       `json:"avg_confidence"`
	ValidationAttempts    int           `json:"validation_attempts"`
	ValidationSuccesses   int           `json:"validation_successes"`
	ValidationSuccessRate float64       `json:"validation_success_rate"`
	LastUsed              time.Time     `json:"last_used"`
	ReliabilityScore      float64       `json:"reliability_score"` // 0-1
}

// =============================================================================
// SYNTHESIS OUTPUT
// =============================================================================

// SourceAttribution summarizes one specialist's contribution to an answer.
type SourceAttribution struct {
	SpecialistID  string  `json:"specialist_id"`
	Confidence    float64 `json:"confidence"`
	FragmentCount int     `json:"fragment_count"`
}

// ReasoningTrace records how an answer was assembled.
type ReasoningTrace struct {
	SourcesConsulted int      `json:"sources_consulted"`
	Specialists      []string `json:"specialists"`
	ConflictCount    int      `json:"conflict_count"`
	ConfidenceLabel  string   `json:"confidence_label"` // high/moderate/low/very low
}

// Answer is the single synthesized response returned by ProcessQuery.
type Answer struct {
	QueryID         string              `json:"query_id"`
	Text            string              `json:"text"`
	Confidence      float64             `json:"confidence"` // 0-1
	Sources         []SourceAttribution `json:"sources"`
	ProcessingTime  time.Duration       `json:"processing_time"`
	Recommendations []string            `json:"recommendations,omitempty"`
	Trace           ReasoningTrace      `json:"trace"`
}
