package validation

import (
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

type checker struct {
	minLength   int
	featureType ledger.Type
}

func (c checker) meaningful(r *Result, dir string, ref artifact.Ref) bool {
	res := artifact.Check(ref, dir, c.minLength)
	switch res.State {
	case artifact.StateReady:
		return true
	case artifact.StateMissing:
		r.fail("%s is missing", ref.File())
	case artifact.StateEmpty:
		r.fail("%s has no meaningful content (need at least %d characters)", ref.File(), c.minLength)
	default:
		r.fail("%s cannot be read: %v", ref.File(), res.Err)
	}
	return false
}

func (c checker) productRefinement(dir string) Result {
	r := Pass()
	c.meaningful(&r, dir, artifact.Initialization)
	return r
}

func (c checker) techSpec(dir string) Result {
	r := Pass()
	switch c.featureType {
	case ledger.TypeTask:
		return r
	case ledger.TypeBug:
		c.meaningful(&r, dir, artifact.Investigation)
		if !artifact.HasMeaningfulContent(workflow.RequirementsPath(dir), c.minLength) {
			r.warn("planning/requirements.md is missing or empty")
		}
	default:
		c.meaningful(&r, dir, artifact.Requirements)
	}
	return r
}

func (c checker) implementation(dir string) Result {
	r := Pass()
	c.meaningful(&r, dir, artifact.Spec)
	if c.meaningful(&r, dir, artifact.Tasks) {
		if p := artifact.TaskProgress(workflow.TasksPath(dir)); p.Total == 0 {
			r.fail("tasks.md has no checklist items")
		}
	}
	return r
}

func (c checker) review(dir string) Result {
	r := Pass()
	if !artifact.Exists(workflow.SpecPath(dir)) {
		r.warn("spec.md is missing")
	}
	if !artifact.Exists(workflow.TasksPath(dir)) {
		r.fail("tasks.md is missing")
		return r
	}
	p := artifact.TaskProgress(workflow.TasksPath(dir))
	switch {
	case p.Total == 0:
		r.fail("tasks.md has no checklist items")
	case !p.IsComplete:
		r.fail("tasks incomplete: %d/%d done", p.Completed, p.Total)
	}
	return r
}

func (c checker) testing(dir string) Result {
	r := Pass()
	if !artifact.Exists(workflow.ReviewPath(dir)) {
		r.fail("review.md is missing")
		return r
	}
	switch artifact.ReviewOutcome(workflow.ReviewPath(dir)) {
	case artifact.VerdictPass:
	case artifact.VerdictFail:
		r.fail("review verdict is FAIL")
	default:
		r.fail("review verdict is pending: add a %q section with PASS or FAIL", artifact.VerdictHeader)
	}
	return r
}

func (c checker) complete(dir string) Result {
	r := Pass()
	if c.featureType == ledger.TypeBug {
		if !artifact.Exists(workflow.InvestigationPath(dir)) {
			r.fail("planning/investigation.md is missing")
		}
	}
	if !artifact.Exists(workflow.TestingPath(dir)) {
		r.fail("testing.md is missing")
		return r
	}
	switch artifact.TestingStatus(workflow.TestingPath(dir)) {
	case artifact.VerdictPass:
	case artifact.VerdictFail:
		r.fail("testing status is FAIL")
	default:
		r.fail("testing status is pending: add a **Status:** PASS line")
	}
	if c.featureType == ledger.TypeBug && len(artifact.TestSessions(workflow.TestingPath(dir))) == 0 {
		r.fail("testing.md has no test sessions")
	}
	return r
}
