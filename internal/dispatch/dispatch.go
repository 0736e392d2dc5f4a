// Package dispatch runs chosen specialists concurrently under one shared
// deadline and gathers whatever responses arrive in time. Classic fan-out /
// fan-in with bounded wait: units still running at the deadline are
// abandoned and their eventual results are never read.
package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quorum/internal/logging"
	"quorum/internal/types"
)

// Failure records one specialist that errored before the deadline.
type Failure struct {
	SpecialistID string
	Err          error
	Duration     time.Duration
}

// Result is everything one dispatch round produced.
type Result struct {
	// Responses collected before the deadline, in completion order.
	Responses []types.SpecialistResponse

	// Failures are specialists that errored in time. Their outcome was
	// observed, so the tracker still records them.
	Failures []Failure

	// Abandoned are specialists that neither responded nor errored before
	// the deadline. Never recorded: their outcome was not observed.
	Abandoned []string
}

// Engine dispatches specialists with a shared deadline.
type Engine struct {
	mu       sync.RWMutex // guards deadline against hot reload mid-flight
	deadline time.Duration
}

// New creates a dispatch engine with the given default deadline.
func New(deadline time.Duration) *Engine {
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	return &Engine{deadline: deadline}
}

// SetDeadline swaps the default deadline (config hot reload).
func (e *Engine) SetDeadline(d time.Duration) {
	if d <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deadline = d
}

// outcome is what one unit reports back to the collector.
type outcome struct {
	specialistID string
	resp         *types.SpecialistResponse
	err          error
	duration     time.Duration
}

// Dispatch fans the query out to the specialists and collects what returns
// in time. A per-query timeout on the query overrides the engine default.
// Dispatch itself never fails: zero collected responses is a valid result
// the orchestrator degrades from.
func (e *Engine) Dispatch(ctx context.Context, specialists []types.Specialist, q types.Query) Result {
	if len(specialists) == 0 {
		return Result{}
	}

	e.mu.RLock()
	deadline := e.deadline
	e.mu.RUnlock()
	if q.Timeout > 0 {
		deadline = q.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	logging.Dispatch("query %s: dispatching %d specialists (deadline %v)", q.ID, len(specialists), deadline)

	outcomes := make(chan outcome, len(specialists))

	eg, egCtx := errgroup.WithContext(ctx)
	for _, s := range specialists {
		s := s
		eg.Go(func() error {
			start := time.Now()
			resp, err := e.invoke(egCtx, s, q)
			// The channel is buffered to len(specialists), so this send
			// never blocks and a late unit cannot hang after abandonment.
			outcomes <- outcome{
				specialistID: s.ID(),
				resp:         resp,
				err:          err,
				duration:     time.Since(start),
			}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		// Errors are carried per-outcome; eg.Wait only signals completion.
		_ = eg.Wait()
		close(done)
	}()

	var result Result
	collected := make(map[string]bool)

	collect := func(o outcome) {
		collected[o.specialistID] = true
		switch {
		case o.err != nil:
			logging.DispatchWarn("query %s: specialist %s failed after %v: %v", q.ID, o.specialistID, o.duration, o.err)
			result.Failures = append(result.Failures, Failure{
				SpecialistID: o.specialistID,
				Err:          o.err,
				Duration:     o.duration,
			})
		case o.resp != nil:
			logging.DispatchDebug("query %s: collected %s in %v (%d fragments, conf %.2f)",
				q.ID, o.specialistID, o.duration, len(o.resp.Fragments), o.resp.Confidence)
			result.Responses = append(result.Responses, *o.resp)
		}
	}

gather:
	for range specialists {
		select {
		case o := <-outcomes:
			collect(o)
		case <-done:
			// All units finished; drain anything already buffered.
			for {
				select {
				case o := <-outcomes:
					collect(o)
				default:
					break gather
				}
			}
		case <-ctx.Done():
			// Deadline fired. Outcomes already buffered arrived in time and
			// are kept; whatever has not reported is abandoned, and its late
			// outcome is never read.
			for {
				select {
				case o := <-outcomes:
					collect(o)
				default:
					break gather
				}
			}
		}
	}

	for _, s := range specialists {
		if !collected[s.ID()] {
			result.Abandoned = append(result.Abandoned, s.ID())
		}
	}

	if len(result.Abandoned) > 0 {
		logging.DispatchWarn("query %s: abandoned %d specialists at deadline: %v",
			q.ID, len(result.Abandoned), result.Abandoned)
	}
	logging.Dispatch("query %s: collected %d responses, %d failures, %d abandoned",
		q.ID, len(result.Responses), len(result.Failures), len(result.Abandoned))

	return result
}

// invoke runs one specialist and applies its own self-consistency check to
// each returned fragment. Fragments the specialist itself disowns are
// dropped before cross-source validation ever sees them.
func (e *Engine) invoke(ctx context.Context, s types.Specialist, q types.Query) (*types.SpecialistResponse, error) {
	resp, err := s.Process(ctx, q)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &types.SpecialistResponse{QueryID: q.ID, SpecialistID: s.ID()}, nil
	}

	kept := resp.Fragments[:0]
	for _, f := range resp.Fragments {
		if f.Status == "" {
			f.Status = types.ValidationPending
		}
		if s.ValidateFragment(f) {
			kept = append(kept, f)
		}
	}
	resp.Fragments = kept

	return resp, nil
}
