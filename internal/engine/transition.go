package engine

import (
	"fmt"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/validation"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// TransitionOptions controls how strictly a transition is checked.
type TransitionOptions struct {
	// Force applies the transition even when the validator fails. The
	// transition table and the review gate still apply.
	Force bool
	// SkipValidation applies without running the validator. It is accepted
	// only for loop-backs into implementation; any other target fails with
	// ErrSkipNotAllowed.
	SkipValidation bool
}

// TransitionResult describes what a transition attempt did.
type TransitionResult struct {
	Feature    ledger.Feature
	From       workflow.Phase
	To         workflow.Phase
	Applied    bool
	NoOp       bool
	Bypassed   bool
	Validation validation.Result
}

// Validate checks whether id may enter target without touching storage.
func (e *Engine) Validate(id string, target workflow.Phase) (validation.Result, error) {
	f, err := e.Get(id)
	if err != nil {
		return validation.Result{}, err
	}
	if err := checkTable(f, target); err != nil {
		return validation.Result{}, err
	}
	return e.runValidator(f, target), nil
}

// Apply moves id to target after checking only the transition table. Every
// phase change goes through it except Repair, which writes the detected phase
// directly and records a repair event instead.
func (e *Engine) Apply(id string, target workflow.Phase) (ledger.Feature, error) {
	l, err := e.store.Load()
	if err != nil {
		return ledger.Feature{}, err
	}
	f, err := l.Find(id)
	if err != nil {
		return ledger.Feature{}, err
	}
	if f.Phase == target {
		return f, nil
	}
	if err := checkTable(f, target); err != nil {
		return ledger.Feature{}, err
	}
	return e.apply(l, f, target)
}

// Transition validates and applies a move to target.
func (e *Engine) Transition(id string, target workflow.Phase, opts TransitionOptions) (TransitionResult, error) {
	l, err := e.store.Load()
	if err != nil {
		return TransitionResult{}, err
	}
	f, err := l.Find(id)
	if err != nil {
		return TransitionResult{}, err
	}
	result := TransitionResult{Feature: f, From: f.Phase, To: target}
	if f.Phase == target {
		result.NoOp = true
		result.Validation = validation.Pass()
		return result, nil
	}
	if err := checkTable(f, target); err != nil {
		return result, err
	}

	now := e.now()
	if reviewGateDenies(e.layout.FeatureDir(id), f.Phase, target) {
		res := e.runValidator(f, target)
		result.Validation = res
		if err := e.record(history.NewValidation(now, id, target, false, gateErrors(res), res.Warnings)); err != nil {
			return result, err
		}
		return result, ErrReviewFailed
	}

	if opts.SkipValidation {
		if !workflow.IsLoopBack(f.Phase, target) {
			return result, fmt.Errorf("%w: %s to %s", ErrSkipNotAllowed, f.Phase, target)
		}
		result.Validation = validation.Pass()
	} else {
		res := e.runValidator(f, target)
		result.Validation = res
		switch {
		case res.Valid:
			if err := e.record(history.NewValidation(now, id, target, true, nil, res.Warnings)); err != nil {
				return result, err
			}
		case opts.Force:
			if err := e.record(history.NewValidationBypass(now, id, f.Phase, target, res.Errors, res.Warnings)); err != nil {
				return result, err
			}
			result.Bypassed = true
		default:
			if err := e.record(history.NewValidation(now, id, target, false, res.Errors, res.Warnings)); err != nil {
				return result, err
			}
			e.recompute(id, false)
			return result, nil
		}
	}

	updated, err := e.apply(l, f, target)
	if err != nil {
		return result, err
	}
	result.Feature = updated
	result.Applied = true
	return result, nil
}

// Complete transitions id to complete and archives its directory. Calling it
// on a feature that is already complete retries the archive step only.
func (e *Engine) Complete(id string, opts TransitionOptions) (TransitionResult, error) {
	result, err := e.Transition(id, workflow.PhaseComplete, opts)
	if err != nil {
		return result, err
	}
	if !result.Applied && !result.NoOp {
		return result, nil
	}
	if e.archiver != nil {
		if err := e.archiver.Archive(id); err != nil {
			return result, fmt.Errorf("engine: archive %s: %w", id, err)
		}
	}
	return result, nil
}

func (e *Engine) apply(l ledger.Ledger, f ledger.Feature, target workflow.Phase) (ledger.Feature, error) {
	from := f.Phase
	now := e.now()
	f.Phase = target
	f.BlockedReason = nil
	f.UpdatedAt = now
	if err := l.Replace(f); err != nil {
		return ledger.Feature{}, err
	}
	if err := e.store.Save(l); err != nil {
		return ledger.Feature{}, err
	}
	if err := e.record(history.NewPhaseTransition(now, f.ID, from, target)); err != nil {
		return f, err
	}
	terminal := target.IsTerminal()
	if terminal {
		if err := e.record(history.NewFeatureCompleted(now, f.ID)); err != nil {
			return f, err
		}
	}
	e.recompute(f.ID, terminal)
	return f.Clone(), nil
}

func (e *Engine) runValidator(f ledger.Feature, target workflow.Phase) validation.Result {
	dir := e.layout.FeatureDir(f.ID)
	return validation.Run(dir, target, f.Type, validation.WithMinContentLength(e.minLength))
}

func checkTable(f ledger.Feature, target workflow.Phase) error {
	if !target.Valid() {
		return fmt.Errorf("%w: %q", workflow.ErrInvalidPhase, target)
	}
	if !f.Phase.Valid() {
		return fmt.Errorf("%w: %q", workflow.ErrInvalidPhase, f.Phase)
	}
	if f.Phase.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalPhase, f.ID)
	}
	if !workflow.CanTransition(f.Phase, target) {
		return &TransitionError{ID: f.ID, From: f.Phase, To: target, Allowed: workflow.Next(f.Phase)}
	}
	return nil
}

func reviewGateDenies(dir string, from, to workflow.Phase) bool {
	if from != workflow.PhaseReview || to != workflow.PhaseTesting {
		return false
	}
	return artifact.ReviewOutcome(workflow.ReviewPath(dir)) == artifact.VerdictFail
}

func gateErrors(res validation.Result) []string {
	if len(res.Errors) > 0 {
		return res.Errors
	}
	return []string{"review verdict is FAIL"}
}
