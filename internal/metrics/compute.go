// Package metrics derives per-feature timing and quality figures by replaying
// the history log, and rolls them up into a project summary. Everything here
// is rebuildable; nothing is a source of truth.
package metrics

import (
	"sort"
	"time"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// PhaseSpan is the time a feature spent in one phase. Repeated visits are
// folded together: entered_at is the first entry, exited_at the last exit and
// duration_ms the sum of every closed visit.
type PhaseSpan struct {
	Phase      workflow.Phase `json:"phase"`
	Visits     int            `json:"visits"`
	EnteredAt  time.Time      `json:"entered_at"`
	ExitedAt   *time.Time     `json:"exited_at,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// ReviewMetrics counts review loop-backs.
type ReviewMetrics struct {
	Iterations int `json:"iterations"`
}

// TestingMetrics reconciles transition history with testing.md sessions.
type TestingMetrics struct {
	Attempts       int `json:"attempts"`
	Failures       int `json:"failures"`
	SessionsPassed int `json:"sessions_passed"`
	SessionsFailed int `json:"sessions_failed"`
}

// ValidationMetrics tallies validator outcomes.
type ValidationMetrics struct {
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Bypassed int `json:"bypassed"`
}

// FeatureMetrics is the derived view of one feature.
type FeatureMetrics struct {
	FeatureID        string            `json:"feature_id"`
	Title            string            `json:"title"`
	Type             ledger.Type       `json:"type"`
	Phase            workflow.Phase    `json:"phase"`
	CreatedAt        time.Time         `json:"created_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	Phases           []PhaseSpan       `json:"phases"`
	Review           ReviewMetrics     `json:"review"`
	Testing          TestingMetrics    `json:"testing"`
	Validation       ValidationMetrics `json:"validation"`
	Retries          int               `json:"retry_count"`
	Blocks           int               `json:"blocks"`
	TotalDurationMs  *int64            `json:"total_duration_ms,omitempty"`
	ImplToCompleteMs *int64            `json:"impl_to_complete_ms,omitempty"`
}

// Completed reports whether a feature_completed event was replayed.
func (m FeatureMetrics) Completed() bool {
	return m.CompletedAt != nil
}

type phaseState struct {
	span    PhaseSpan
	visited bool
}

type replay struct {
	phases      map[workflow.Phase]*phaseState
	current     workflow.Phase
	since       time.Time
	open        bool
	createdAt   time.Time
	firstImpl   *time.Time
	completedAt *time.Time
}

func (r *replay) enter(p workflow.Phase, at time.Time) {
	st, ok := r.phases[p]
	if !ok {
		st = &phaseState{span: PhaseSpan{Phase: p}}
		r.phases[p] = st
	}
	if !st.visited {
		st.span.EnteredAt = at
		st.visited = true
	}
	st.span.Visits++
	r.current, r.since, r.open = p, at, true
	if p == workflow.PhaseImplementation && r.firstImpl == nil {
		first := at
		r.firstImpl = &first
	}
}

func (r *replay) exit(at time.Time) {
	if !r.open {
		return
	}
	st := r.phases[r.current]
	exited := at
	st.span.ExitedAt = &exited
	if d := at.Sub(r.since); d > 0 {
		st.span.DurationMs += d.Milliseconds()
	}
	r.open = false
}

// ComputeFeature replays events for f. It is pure: the same inputs always give
// the same output. Events for other features are ignored, and so is anything
// logged for an earlier feature that carried the same id before it was removed.
func ComputeFeature(f ledger.Feature, events []history.Event, sessions []artifact.Session) FeatureMetrics {
	own := history.ForFeature(events, f.ID)
	sort.SliceStable(own, func(i, j int) bool {
		return own[i].Time().Before(own[j].Time())
	})
	own = currentLife(own)

	m := FeatureMetrics{
		FeatureID: f.ID,
		Title:     f.Title,
		Type:      f.Type,
		Phase:     f.Phase,
		CreatedAt: f.CreatedAt.UTC(),
		Retries:   f.RetryCount,
	}
	r := &replay{phases: map[workflow.Phase]*phaseState{}, createdAt: m.CreatedAt}
	attempts, failures := 0, 0

	for _, e := range own {
		at := e.Time().UTC()
		switch ev := e.(type) {
		case history.FeatureCreated:
			r.createdAt = at
			r.enter(workflow.PhaseCreated, at)
		case history.PhaseTransition:
			if !r.open && ev.From.Valid() {
				r.enter(ev.From, r.createdAt)
			}
			r.exit(at)
			r.enter(ev.To, at)
			switch {
			case ev.From == workflow.PhaseReview && ev.To == workflow.PhaseImplementation:
				m.Review.Iterations++
			case ev.From == workflow.PhaseTesting && ev.To == workflow.PhaseImplementation:
				failures++
			}
			if ev.To == workflow.PhaseTesting {
				attempts++
			}
		case history.Repair:
			if ev.To.Valid() {
				r.exit(at)
				r.enter(ev.To, at)
			}
		case history.FeatureCompleted:
			done := at
			r.completedAt = &done
		case history.Validation:
			if ev.Passed() {
				m.Validation.Passed++
			} else {
				m.Validation.Failed++
			}
		case history.ValidationBypass:
			m.Validation.Bypassed++
		case history.FeatureBlocked:
			m.Blocks++
		}
	}

	for _, s := range sessions {
		switch s.Verdict {
		case artifact.VerdictPass:
			m.Testing.SessionsPassed++
		case artifact.VerdictFail:
			m.Testing.SessionsFailed++
		}
	}
	m.Testing.Attempts = max(attempts, len(sessions))
	m.Testing.Failures = failures
	m.CreatedAt = r.createdAt

	m.Phases = make([]PhaseSpan, 0, len(r.phases))
	for _, p := range workflow.Phases() {
		if st, ok := r.phases[p]; ok {
			m.Phases = append(m.Phases, st.span)
		}
	}

	if r.completedAt != nil {
		m.CompletedAt = r.completedAt
		total := r.completedAt.Sub(r.createdAt).Milliseconds()
		m.TotalDurationMs = &total
		if r.firstImpl != nil {
			impl := r.completedAt.Sub(*r.firstImpl).Milliseconds()
			m.ImplToCompleteMs = &impl
		}
	}
	return m
}

// currentLife drops everything up to and including the last feature_removed.
func currentLife(events []history.Event) []history.Event {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Kind() == history.KindFeatureRemoved {
			return events[i+1:]
		}
	}
	return events
}
