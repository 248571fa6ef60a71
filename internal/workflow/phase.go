// internal/workflow/phase.go
//
// The fixed phase sequence every feature moves through, and the transition
// table that says which phase may follow which.

package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPhase is returned when a string does not name one of the seven phases.
var ErrInvalidPhase = errors.New("workflow: invalid phase")

// Phase represents a stage in the feature lifecycle
type Phase string

const (
	PhaseCreated           Phase = "created"
	PhaseProductRefinement Phase = "product_refinement"
	PhaseTechSpec          Phase = "tech_spec"
	PhaseImplementation    Phase = "implementation"
	PhaseReview            Phase = "review"
	PhaseTesting           Phase = "testing"
	PhaseComplete          Phase = "complete"
)

var sequence = []Phase{
	PhaseCreated,
	PhaseProductRefinement,
	PhaseTechSpec,
	PhaseImplementation,
	PhaseReview,
	PhaseTesting,
	PhaseComplete,
}

// transitions lists the phases directly reachable from each phase. Everything is
// linear except review and testing, which may loop back to implementation.
var transitions = map[Phase][]Phase{
	PhaseCreated:           {PhaseProductRefinement},
	PhaseProductRefinement: {PhaseTechSpec},
	PhaseTechSpec:          {PhaseImplementation},
	PhaseImplementation:    {PhaseReview},
	PhaseReview:            {PhaseTesting, PhaseImplementation},
	PhaseTesting:           {PhaseComplete, PhaseImplementation},
	PhaseComplete:          {},
}

// Phases returns the ordered phase sequence.
func Phases() []Phase {
	out := make([]Phase, len(sequence))
	copy(out, sequence)
	return out
}

// ParsePhase converts user or file input into a Phase.
func ParsePhase(value string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(value)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhase, value)
	}
	return p, nil
}

// Valid reports whether the phase is part of the sequence.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}

// Index returns the position of the phase in the sequence, or -1.
func (p Phase) Index() int {
	for i, candidate := range sequence {
		if candidate == p {
			return i
		}
	}
	return -1
}

// IsTerminal returns true if this phase represents workflow completion
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete
}

// String returns the wire name of the phase.
func (p Phase) String() string {
	return string(p)
}

// FriendlyName returns a short label suitable for status display
func (p Phase) FriendlyName() string {
	switch p {
	case PhaseCreated:
		return "Created"
	case PhaseProductRefinement:
		return "Product Refinement"
	case PhaseTechSpec:
		return "Tech Spec"
	case PhaseImplementation:
		return "Implementation"
	case PhaseReview:
		return "Review"
	case PhaseTesting:
		return "Testing"
	case PhaseComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Next returns the phases directly reachable from p. The terminal phase and
// unknown phases return an empty slice.
func Next(p Phase) []Phase {
	targets := transitions[p]
	out := make([]Phase, len(targets))
	copy(out, targets)
	return out
}

// Forward returns the default successor of p (the first entry of the table),
// or false when p is terminal.
func Forward(p Phase) (Phase, bool) {
	targets := transitions[p]
	if len(targets) == 0 {
		return "", false
	}
	return targets[0], true
}

// CanTransition reports whether to is directly reachable from from.
func CanTransition(from, to Phase) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsLoopBack reports whether from to is one of the backward edges of the
// table: review or testing returning to implementation.
func IsLoopBack(from, to Phase) bool {
	return to == PhaseImplementation && (from == PhaseReview || from == PhaseTesting)
}
