// Package orchestrator wires the full query pipeline: capability lookup,
// performance-aware selection, parallel dispatch under a shared deadline,
// cross-source validation, synthesis, and the reliability feedback loop.
// ProcessQuery degrades instead of failing: no capable specialist or a fully
// timed-out round produces a confidence-zero answer, not an error.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quorum/internal/config"
	"quorum/internal/dispatch"
	"quorum/internal/logging"
	"quorum/internal/registry"
	"quorum/internal/selection"
	"quorum/internal/session"
	"quorum/internal/synthesis"
	"quorum/internal/tracker"
	"quorum/internal/types"
	"quorum/internal/validation"
)

// Orchestrator owns the pipeline stages and the session store.
type Orchestrator struct {
	registry    *registry.Registry
	selector    *selection.Engine
	dispatcher  *dispatch.Engine
	validator   *validation.Validator
	synthesizer *synthesis.Synthesizer
	tracker     *tracker.Tracker
	sessions    *session.Store

	store types.ReliabilityStore // optional, closed on Close
}

// New builds an orchestrator from configuration. store may be nil; when
// present the tracker loads persisted reliability records from it and the
// orchestrator takes ownership of closing it.
func New(cfg *config.Config, store types.ReliabilityStore) *Orchestrator {
	reg := registry.New(cfg.Selection.RelevanceFloor)

	trk := tracker.New(tracker.Config{
		LearningRate: cfg.Tracker.LearningRate,
		RecencyDecay: cfg.Tracker.RecencyDecay,
		RecencyFloor: cfg.Tracker.RecencyFloor,
	}, store)

	return &Orchestrator{
		registry: reg,
		selector: selection.New(reg, trk, selection.Config{
			ScoreCutoff:    cfg.Selection.ScoreCutoff,
			MinSpecialists: cfg.Selection.MinSpecialists,
			MaxSpecialists: cfg.Selection.MaxSpecialists,
		}),
		dispatcher: dispatch.New(cfg.GetDispatchDeadline()),
		validator: validation.New(validation.Config{
			ConflictPenalty:    cfg.Validation.ConflictPenalty,
			ConfidenceFloor:    cfg.Validation.ConfidenceFloor,
			ConsistencyWarning: cfg.Validation.ConsistencyWarning,
		}),
		synthesizer: synthesis.New(cfg.Validation.ConsistencyWarning),
		tracker:     trk,
		sessions:    session.NewStore(cfg.Session.HistoryLimit, cfg.GetSessionIdleTTL()),
		store:       store,
	}
}

// RegisterSpecialist adds a specialist to the capability registry.
func (o *Orchestrator) RegisterSpecialist(s types.Specialist) error {
	return o.registry.Register(s)
}

// Registry exposes the capability registry for inspection.
func (o *Orchestrator) Registry() *registry.Registry { return o.registry }

// Tracker exposes the reliability tracker for inspection.
func (o *Orchestrator) Tracker() *tracker.Tracker { return o.tracker }

// Sessions exposes the session store.
func (o *Orchestrator) Sessions() *session.Store { return o.sessions }

// ApplyConfig pushes reloaded tuning knobs into the pipeline stages. The
// registry candidacy floor is fixed at construction; everything else is
// hot-swappable.
func (o *Orchestrator) ApplyConfig(cfg *config.Config) {
	o.selector.SetConfig(selection.Config{
		ScoreCutoff:    cfg.Selection.ScoreCutoff,
		MinSpecialists: cfg.Selection.MinSpecialists,
		MaxSpecialists: cfg.Selection.MaxSpecialists,
	})
	o.dispatcher.SetDeadline(cfg.GetDispatchDeadline())
	o.validator.SetConfig(validation.Config{
		ConflictPenalty:    cfg.Validation.ConflictPenalty,
		ConfidenceFloor:    cfg.Validation.ConfidenceFloor,
		ConsistencyWarning: cfg.Validation.ConsistencyWarning,
	})
	o.tracker.SetConfig(tracker.Config{
		LearningRate: cfg.Tracker.LearningRate,
		RecencyDecay: cfg.Tracker.RecencyDecay,
		RecencyFloor: cfg.Tracker.RecencyFloor,
	})
	o.synthesizer.SetConsistencyWarning(cfg.Validation.ConsistencyWarning)
	logging.Boot("configuration reapplied to pipeline")
}

// ProcessQuery runs one query through the full pipeline and returns the
// synthesized answer. It returns an error only for context cancellation
// before work begins; pipeline shortfalls degrade to low-confidence answers.
func (o *Orchestrator) ProcessQuery(ctx context.Context, q types.Query) (*types.Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	sessionID := q.RequesterID
	if sessionID != "" {
		o.sessions.Touch(sessionID)
	}

	// Capability lookup. No candidate means no specialist claims the query;
	// that is an honest empty answer, not an error.
	candidates := o.registry.Candidates(q)
	if len(candidates) == 0 {
		return o.finish(q, sessionID, start, o.emptyAnswer(q, "No registered specialist covers this query.")), nil
	}

	chosen := o.selector.Select(q, candidates)

	specialists := make([]types.Specialist, 0, len(chosen))
	for _, s := range chosen {
		if sp, ok := o.registry.Get(s.SpecialistID); ok {
			specialists = append(specialists, sp)
		}
	}

	round := o.dispatcher.Dispatch(ctx, specialists, q)

	// Everything observed before the deadline feeds the reliability table.
	// Abandoned specialists are not recorded; their outcome was never seen.
	var fragments []types.KnowledgeFragment
	for _, resp := range round.Responses {
		fragments = append(fragments, resp.Fragments...)
	}

	result := o.validator.Validate(fragments)

	validatedBy := make(map[string]bool)
	for _, f := range result.ValidatedFragments {
		validatedBy[f.SpecialistID] = true
	}
	for _, resp := range round.Responses {
		o.tracker.Record(resp.SpecialistID, resp.ProcessingTime, resp.Confidence, validatedBy[resp.SpecialistID])
	}
	for _, f := range round.Failures {
		o.tracker.Record(f.SpecialistID, f.Duration, 0, false)
	}

	text, trace := o.synthesizer.Synthesize(result, q)

	answer := &types.Answer{
		QueryID:         q.ID,
		Text:            text,
		Confidence:      result.OverallConfidence,
		Sources:         attributions(result.ValidatedFragments),
		Recommendations: result.Recommendations,
		Trace:           trace,
	}

	// A round where nothing came back in time still answers, at zero
	// confidence, so callers can distinguish "no answer" from "failed".
	if len(round.Responses) == 0 {
		answer.Confidence = 0
		answer.Text = "No specialist responded before the deadline."
	}

	return o.finish(q, sessionID, start, answer), nil
}

// Sweep evicts idle sessions; callers drive the cadence.
func (o *Orchestrator) Sweep() int {
	return o.sessions.Sweep()
}

// Close releases the reliability store, if any.
func (o *Orchestrator) Close() error {
	if o.store != nil {
		return o.store.Close()
	}
	return nil
}

// finish stamps timing, records session history, and returns the answer.
func (o *Orchestrator) finish(q types.Query, sessionID string, start time.Time, answer *types.Answer) *types.Answer {
	answer.ProcessingTime = time.Since(start)

	if sessionID != "" {
		o.sessions.Append(sessionID, session.HistoryEntry{
			QueryID:    q.ID,
			Content:    q.Content,
			Confidence: answer.Confidence,
			AskedAt:    start,
		})
	}

	logging.Boot("query %s answered in %v (confidence %.2f, %d sources)",
		q.ID, answer.ProcessingTime, answer.Confidence, len(answer.Sources))

	return answer
}

// emptyAnswer is the degraded result for a capability miss: zero confidence,
// no sources, an explanatory text.
func (o *Orchestrator) emptyAnswer(q types.Query, text string) *types.Answer {
	return &types.Answer{
		QueryID:    q.ID,
		Text:       text,
		Confidence: 0,
		Trace: types.ReasoningTrace{
			ConfidenceLabel: synthesis.ConfidenceLabel(0),
		},
	}
}

// attributions summarizes each specialist's validated contribution.
func attributions(fragments []types.KnowledgeFragment) []types.SourceAttribution {
	index := make(map[string]int)
	var out []types.SourceAttribution

	for _, f := range fragments {
		i, ok := index[f.SpecialistID]
		if !ok {
			i = len(out)
			index[f.SpecialistID] = i
			out = append(out, types.SourceAttribution{SpecialistID: f.SpecialistID})
		}
		out[i].FragmentCount++
		// Attribution carries the specialist's strongest validated fragment.
		if f.Confidence > out[i].Confidence {
			out[i].Confidence = f.Confidence
		}
	}

	return out
}
