package types

import (
	"context"
)

// Specialist is the single polymorphic interface every knowledge specialist
// implements. Concrete domain specialists are selected at registration time,
// never via runtime type inspection.
type Specialist interface {
	// ID returns the unique specialist identifier.
	ID() string

	// DomainTags returns the declared capability tags used for matching.
	DomainTags() []string

	// CanHandle reports whether the specialist is relevant to the query and
	// how relevant (0-1). Must be cheap and side-effect free.
	CanHandle(q Query) (bool, float64)

	// Process answers the query. Blocking; must honor ctx cancellation.
	Process(ctx context.Context, q Query) (*SpecialistResponse, error)

	// ValidateFragment is a self-consistency check a specialist runs on its
	// own output. It is not cross-source validation.
	ValidateFragment(f KnowledgeFragment) bool
}

// ReliabilityReader exposes the tracker's read side to the selection engine.
// Reads are snapshot-semantics; no locking is visible to callers.
type ReliabilityReader interface {
	// Score returns the reliability score for a specialist, 0 if never used.
	Score(specialistID string) float64

	// Snapshot returns a copy of the reliability record, false if none exists.
	Snapshot(specialistID string) (ReliabilityRecord, bool)
}

// ReliabilityStore persists reliability records across restarts.
// The tracker works without one (nil store = in-memory only).
type ReliabilityStore interface {
	SaveRecord(rec ReliabilityRecord) error
	LoadRecords() ([]ReliabilityRecord, error)
	Close() error
}
