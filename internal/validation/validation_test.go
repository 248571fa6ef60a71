package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

const meaningful = "This document has enough content to count."

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProductRefinementNeedsInitialization(t *testing.T) {
	dir := t.TempDir()
	r := Run(dir, workflow.PhaseProductRefinement, ledger.TypeFeature)
	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "missing")

	write(t, workflow.InitializationPath(dir), "short")
	r = Run(dir, workflow.PhaseProductRefinement, ledger.TypeFeature)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "meaningful")

	r = Run(dir, workflow.PhaseProductRefinement, ledger.TypeFeature, WithMinContentLength(3))
	assert.True(t, r.Valid, "threshold is configurable")

	write(t, workflow.InitializationPath(dir), meaningful)
	assert.True(t, Run(dir, workflow.PhaseProductRefinement, ledger.TypeTask).Valid)
}

func TestTechSpecDependsOnType(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Run(dir, workflow.PhaseTechSpec, ledger.TypeTask).Valid, "tasks skip refinement checks")
	assert.False(t, Run(dir, workflow.PhaseTechSpec, ledger.TypeFeature).Valid)

	write(t, workflow.InvestigationPath(dir), meaningful)
	bug := Run(dir, workflow.PhaseTechSpec, ledger.TypeBug)
	assert.True(t, bug.Valid)
	assert.Len(t, bug.Warnings, 1, "missing requirements only warns for bugs")
	assert.False(t, Run(dir, workflow.PhaseTechSpec, ledger.TypeFeature).Valid)

	write(t, workflow.RequirementsPath(dir), meaningful)
	assert.True(t, Run(dir, workflow.PhaseTechSpec, ledger.TypeFeature).Valid)
	assert.Empty(t, Run(dir, workflow.PhaseTechSpec, ledger.TypeBug).Warnings)
}

func TestImplementationNeedsSpecAndChecklist(t *testing.T) {
	dir := t.TempDir()
	write(t, workflow.SpecPath(dir), meaningful)
	write(t, workflow.TasksPath(dir), "# Tasks\n\nWe will figure these out later.")
	r := Run(dir, workflow.PhaseImplementation, ledger.TypeFeature)
	assert.False(t, r.Valid)
	assert.Equal(t, []string{"tasks.md has no checklist items"}, r.Errors)

	write(t, workflow.TasksPath(dir), "- [ ] build the form")
	assert.True(t, Run(dir, workflow.PhaseImplementation, ledger.TypeFeature).Valid)
}

func TestReviewNeedsEveryTaskChecked(t *testing.T) {
	dir := t.TempDir()
	write(t, workflow.TasksPath(dir), "- [x] a\n- [ ] b")
	r := Run(dir, workflow.PhaseReview, ledger.TypeFeature)
	assert.False(t, r.Valid)
	assert.Equal(t, []string{"tasks incomplete: 1/2 done"}, r.Errors)
	assert.Equal(t, []string{"spec.md is missing"}, r.Warnings)

	write(t, workflow.TasksPath(dir), "- [x] a\n- [X] b")
	r = Run(dir, workflow.PhaseReview, ledger.TypeFeature)
	assert.True(t, r.Valid)
	assert.NotEmpty(t, r.Warnings, "warnings do not block")
}

func TestTestingFollowsReviewVerdict(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, []string{"review.md is missing"}, Run(dir, workflow.PhaseTesting, ledger.TypeFeature).Errors)

	write(t, workflow.ReviewPath(dir), "## Verdict\nFAIL\n")
	r := Run(dir, workflow.PhaseTesting, ledger.TypeFeature)
	assert.False(t, r.Valid)
	assert.Equal(t, []string{"review verdict is FAIL"}, r.Errors)

	write(t, workflow.ReviewPath(dir), "Looks fine so far")
	r = Run(dir, workflow.PhaseTesting, ledger.TypeFeature)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Errors[0], "pending")

	write(t, workflow.ReviewPath(dir), "## Verdict\nPASS\n")
	assert.True(t, Run(dir, workflow.PhaseTesting, ledger.TypeBug).Valid)
}

func TestCompleteNeedsPassingTests(t *testing.T) {
	dir := t.TempDir()
	write(t, workflow.TestingPath(dir), "**Status:** FAIL\n**Status:** PASS\n")
	assert.True(t, Run(dir, workflow.PhaseComplete, ledger.TypeFeature).Valid)

	bug := Run(dir, workflow.PhaseComplete, ledger.TypeBug)
	assert.False(t, bug.Valid)
	assert.ElementsMatch(t, []string{"planning/investigation.md is missing", "testing.md has no test sessions"}, bug.Errors)

	write(t, workflow.InvestigationPath(dir), meaningful)
	write(t, workflow.TestingPath(dir), "### Test Session 1\n**Status:** PASS\n")
	assert.True(t, Run(dir, workflow.PhaseComplete, ledger.TypeBug).Valid)

	write(t, workflow.TestingPath(dir), "### Test Session 1\n**Status:** FAIL\n")
	assert.Equal(t, []string{"testing status is FAIL"}, Run(dir, workflow.PhaseComplete, ledger.TypeFeature).Errors)
}

func TestUnknownTargetIsAlwaysValid(t *testing.T) {
	assert.True(t, Run(t.TempDir(), workflow.PhaseCreated, ledger.TypeFeature).Valid)
}

func TestFuncAdapter(t *testing.T) {
	var v Validator = Func(func(dir string) Result {
		r := Pass()
		r.fail("bad %s", dir)
		return r
	})
	assert.Equal(t, []string{"bad x"}, v.Validate("x").Errors)
}

func TestUnreadableArtifactIsReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(workflow.InitializationPath(dir), 0o755))
	r := Run(dir, workflow.PhaseProductRefinement, ledger.TypeFeature)
	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "planning/initialization.md cannot be read")
}
