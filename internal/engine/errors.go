package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

var (
	// ErrFeatureNotFound is returned when no feature carries the requested id.
	ErrFeatureNotFound = ledger.ErrFeatureNotFound
	// ErrFeatureExists is returned by Create for a duplicate id.
	ErrFeatureExists = ledger.ErrFeatureExists
	// ErrTerminalPhase is returned for any transition out of complete.
	ErrTerminalPhase = errors.New("engine: feature is complete and cannot transition")
	// ErrReviewFailed is returned when review.md carries a FAIL verdict and the
	// feature tries to enter testing. Force does not override it.
	ErrReviewFailed = errors.New("engine: review verdict is FAIL; loop back to implementation")
	// ErrSkipNotAllowed is returned when SkipValidation is used for anything
	// other than a loop-back into implementation.
	ErrSkipNotAllowed = errors.New("engine: validation can only be skipped on a loop-back to implementation")
	// ErrInvalidID rejects ids that cannot double as directory names.
	ErrInvalidID = errors.New("engine: invalid feature id")
	// ErrReasonRequired is returned by Block without a reason.
	ErrReasonRequired = errors.New("engine: block reason is required")
)

// TransitionError reports a move the transition table does not allow.
type TransitionError struct {
	ID      string
	From    workflow.Phase
	To      workflow.Phase
	Allowed []workflow.Phase
}

func (e *TransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, p := range e.Allowed {
		allowed[i] = string(p)
	}
	hint := "none"
	if len(allowed) > 0 {
		hint = strings.Join(allowed, ", ")
	}
	return fmt.Sprintf("engine: %s cannot move from %s to %s (allowed: %s)", e.ID, e.From, e.To, hint)
}
