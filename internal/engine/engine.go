// Package engine implements the phase advancement engine: after any
// requirement-completion write it decides whether the owning project's phase
// should advance, and performs the transition as part of the caller's
// transaction.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/repository"
)

// Result is the outcome of one advancement evaluation. "Held" (Advanced ==
// false with unmet requirements) is a normal outcome, never an error.
type Result struct {
	Advanced             bool
	Terminal             bool
	AllMandatoryComplete bool
	NewPhase             domain.PhaseKey
	NewPhaseName         string
	Transition           *Transition
}

// Transition describes a committed phase change, for notification fan-out.
type Transition struct {
	ProjectID  string
	From       domain.PhaseKey
	To         domain.PhaseKey
	Progress   int
	OccurredAt time.Time
}

// TransitionObserver receives committed phase transitions. Observers run
// after the surrounding transaction commits, via Publish.
type TransitionObserver interface {
	ObserveTransition(ctx context.Context, tr Transition)
}

// ObserverFunc adapts a function to TransitionObserver.
type ObserverFunc func(ctx context.Context, tr Transition)

func (f ObserverFunc) ObserveTransition(ctx context.Context, tr Transition) { f(ctx, tr) }

// Engine evaluates phase advancement. It is stateless apart from its
// observer list and safe for concurrent use.
type Engine struct {
	observers []TransitionObserver
	now       func() time.Time
}

// New creates an Engine with the given transition observers.
func New(observers ...TransitionObserver) *Engine {
	return &Engine{observers: observers, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the engine clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate runs one advancement evaluation for the project against tx.
// It holds when any mandatory requirement of the current phase is
// unsatisfied, and otherwise advances exactly one phase: the single phase
// write is the only side effect. Calling it again with no new completions is
// a no-op, so every trigger adapter can invoke it unconditionally.
//
// Evaluation never cascades: if the next phase is itself immediately
// satisfiable, a subsequent trigger (or the check-advancement endpoint)
// performs the next step.
func (e *Engine) Evaluate(ctx context.Context, tx db.DBTX, projectID string) (Result, error) {
	states := repository.NewSQLitePhaseStateRepo(tx)
	completions := repository.NewSQLiteCompletionRepo(tx)

	state, err := states.GetByProject(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("loading phase state: %w", err)
	}

	mandatory, err := domain.MandatoryRequirements(state.CurrentPhase)
	if err != nil {
		return Result{}, err
	}

	for _, req := range mandatory {
		satisfied, err := completions.IsSatisfied(ctx, projectID, req.ID)
		if err != nil {
			return Result{}, fmt.Errorf("checking requirement %s: %w", req.ID, err)
		}
		if !satisfied {
			return Result{}, nil // hold: at least one mandatory gate is open
		}
	}

	if state.CurrentPhase.IsTerminal() {
		return Result{Terminal: true, AllMandatoryComplete: true}, nil
	}

	next, ok, err := domain.NextPhase(state.CurrentPhase)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Terminal: true, AllMandatoryComplete: true}, nil
	}

	now := e.now()
	from := state.CurrentPhase
	state.CurrentPhase = next.Key
	state.EnteredAt = now
	state.UpdatedAt = now
	// CompletionPercent markers are strictly increasing, so this write keeps
	// progress monotonic.
	if next.CompletionPercent > state.ProgressPercent {
		state.ProgressPercent = next.CompletionPercent
	}
	if next.Key.IsTerminal() {
		state.CompletedAt = &now
	}

	if err := states.Update(ctx, state); err != nil {
		return Result{}, fmt.Errorf("advancing phase: %w", err)
	}

	return Result{
		Advanced:             true,
		AllMandatoryComplete: true,
		NewPhase:             next.Key,
		NewPhaseName:         next.DisplayName,
		Transition: &Transition{
			ProjectID:  projectID,
			From:       from,
			To:         next.Key,
			Progress:   state.ProgressPercent,
			OccurredAt: now,
		},
	}, nil
}

// Publish fans a committed transition out to the observers. Callers invoke
// it after their transaction commits; a nil transition is ignored.
func (e *Engine) Publish(ctx context.Context, tr *Transition) {
	if tr == nil {
		return
	}
	for _, obs := range e.observers {
		obs.ObserveTransition(ctx, *tr)
	}
}
