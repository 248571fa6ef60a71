// Package validation decides whether a feature's artifacts allow it to enter a
// phase. Validators only read the feature directory; they never change state.
package validation

import (
	"fmt"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// Result is the outcome of one validator run. Warnings never block.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Pass returns a valid result with no findings.
func Pass() Result {
	return Result{Valid: true}
}

func (r *Result) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator checks a feature directory before a transition.
type Validator interface {
	Validate(featureDir string) Result
}

// Func adapts a plain function to the Validator interface.
type Func func(featureDir string) Result

// Validate calls f.
func (f Func) Validate(featureDir string) Result {
	return f(featureDir)
}

// Option tunes validator construction.
type Option func(*options)

type options struct {
	minLength int
}

// WithMinContentLength sets how many non-whitespace-trimmed characters a
// document needs to count as meaningful.
func WithMinContentLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minLength = n
		}
	}
}

// For returns the validator run before a feature of type t enters target.
func For(target workflow.Phase, t ledger.Type, opts ...Option) Validator {
	o := options{minLength: artifact.DefaultMinContentLength}
	for _, opt := range opts {
		opt(&o)
	}
	c := checker{minLength: o.minLength, featureType: t}
	switch target {
	case workflow.PhaseProductRefinement:
		return Func(c.productRefinement)
	case workflow.PhaseTechSpec:
		return Func(c.techSpec)
	case workflow.PhaseImplementation:
		return Func(c.implementation)
	case workflow.PhaseReview:
		return Func(c.review)
	case workflow.PhaseTesting:
		return Func(c.testing)
	case workflow.PhaseComplete:
		return Func(c.complete)
	default:
		return Func(func(string) Result { return Pass() })
	}
}

// Run is shorthand for For(target, t, opts...).Validate(featureDir).
func Run(featureDir string, target workflow.Phase, t ledger.Type, opts ...Option) Result {
	return For(target, t, opts...).Validate(featureDir)
}
