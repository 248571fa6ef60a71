package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

func TestTransitionWithoutArtifactsIsDenied(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseCreated))
	res, err := h.eng.Transition("a", workflow.PhaseProductRefinement, TransitionOptions{})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.False(t, res.Validation.Valid)
	assert.NotEmpty(t, res.Validation.Errors)

	f, err := h.eng.Get("a")
	require.NoError(t, err)
	assert.Equal(t, workflow.PhaseCreated, f.Phase)
	assert.Equal(t, []history.Kind{history.KindValidation}, h.log.Kinds())
	events, _ := h.log.ReadAll()
	assert.False(t, events[0].(history.Validation).Passed())
}

func TestForcedTransitionRecordsBypass(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseCreated))
	res, err := h.eng.Transition("a", workflow.PhaseProductRefinement, TransitionOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, res.Bypassed)
	assert.Equal(t, workflow.PhaseProductRefinement, res.Feature.Phase)

	require.Equal(t, []history.Kind{history.KindValidationBypass, history.KindPhaseTransition}, h.log.Kinds())
	events, _ := h.log.ReadAll()
	bypass := events[0].(history.ValidationBypass)
	assert.Equal(t, workflow.PhaseCreated, bypass.From)
	assert.Equal(t, workflow.PhaseProductRefinement, bypass.To)
	assert.Equal(t, res.Validation.Errors, bypass.Errors)
	assert.Equal(t, []string{"a"}, h.metrics.features)
}

func TestForceNeverSkipsTheTable(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseCreated))
	_, err := h.eng.Transition("a", workflow.PhaseImplementation, TransitionOptions{Force: true})
	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, []workflow.Phase{workflow.PhaseProductRefinement}, te.Allowed)

	_, err = h.eng.Apply("a", workflow.PhaseTesting)
	assert.True(t, errors.As(err, &te))
	_, err = h.eng.Transition("a", workflow.Phase("deploy"), TransitionOptions{SkipValidation: true})
	assert.ErrorIs(t, err, workflow.ErrInvalidPhase)
	assert.Empty(t, h.log.Kinds())
}

func TestTransitionToCurrentPhaseIsNoOp(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseTechSpec))
	res, err := h.eng.Transition("a", workflow.PhaseTechSpec, TransitionOptions{})
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.False(t, res.Applied)
	assert.Zero(t, h.store.Saves())
	assert.Empty(t, h.log.Kinds())
}

func TestCompleteIsTerminal(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseComplete))
	for _, target := range workflow.Phases() {
		if target == workflow.PhaseComplete {
			continue
		}
		_, err := h.eng.Transition("a", target, TransitionOptions{Force: true})
		assert.ErrorIs(t, err, ErrTerminalPhase, target)
		_, err = h.eng.Validate("a", target)
		assert.ErrorIs(t, err, ErrTerminalPhase, target)
	}
}

func TestReviewFailBlocksTestingEvenWhenForced(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseReview))
	h.write(t, "a", workflow.FileReview, "## Verdict\nFAIL\n")

	v, err := h.eng.Validate("a", workflow.PhaseTesting)
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Contains(t, v.Errors, "review verdict is FAIL")

	for _, opts := range []TransitionOptions{{}, {Force: true}} {
		res, err := h.eng.Transition("a", workflow.PhaseTesting, opts)
		assert.ErrorIs(t, err, ErrReviewFailed)
		assert.False(t, res.Applied)
	}
	f, _ := h.eng.Get("a")
	assert.Equal(t, workflow.PhaseReview, f.Phase)
	assert.NotContains(t, h.log.Kinds(), history.KindValidationBypass)

	res, err := h.eng.Transition("a", workflow.PhaseImplementation, TransitionOptions{SkipValidation: true})
	require.NoError(t, err)
	assert.True(t, res.Applied, "review loops back to implementation")
}

func TestSkippingValidationStillHonoursReviewGate(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseReview))
	h.write(t, "a", workflow.FileReview, "## Verdict\nFAIL\n")

	res, err := h.eng.Transition("a", workflow.PhaseTesting, TransitionOptions{SkipValidation: true, Force: true})
	assert.ErrorIs(t, err, ErrReviewFailed)
	assert.False(t, res.Applied)

	f, _ := h.eng.Get("a")
	assert.Equal(t, workflow.PhaseReview, f.Phase)
	require.Equal(t, []history.Kind{history.KindValidation}, h.log.Kinds())
	events, _ := h.log.ReadAll()
	gate := events[0].(history.Validation)
	assert.False(t, gate.Passed())
	assert.Contains(t, gate.Errors, "review verdict is FAIL")
}

func TestSkipValidationOnlyForLoopBacks(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseCreated))
	res, err := h.eng.Transition("a", workflow.PhaseProductRefinement, TransitionOptions{SkipValidation: true})
	assert.ErrorIs(t, err, ErrSkipNotAllowed)
	assert.False(t, res.Applied)
	f, _ := h.eng.Get("a")
	assert.Equal(t, workflow.PhaseCreated, f.Phase)
	assert.Empty(t, h.log.Kinds())
	assert.Zero(t, h.store.Saves())

	h = newHarness(t, seeded("b", workflow.PhaseTesting))
	res, err = h.eng.Transition("b", workflow.PhaseImplementation, TransitionOptions{SkipValidation: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, []history.Kind{history.KindPhaseTransition}, h.log.Kinds())
}

func TestValidTransitionRecordsPassedValidation(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseReview))
	h.write(t, "a", workflow.FileReview, "## Verdict\nPASS\n")
	blocked, err := h.eng.Block("a", "paused")
	require.NoError(t, err)
	require.True(t, blocked.IsBlocked())

	res, err := h.eng.Transition("a", workflow.PhaseTesting, TransitionOptions{})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.Bypassed)
	assert.False(t, res.Feature.IsBlocked(), "a transition clears the block")
	assert.Equal(t, []history.Kind{history.KindFeatureBlocked, history.KindValidation, history.KindPhaseTransition}, h.log.Kinds())
}

func TestCompleteArchivesAndRecomputesAggregate(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseTesting))
	h.write(t, "a", workflow.FileTesting, "### Test Session 1\n**Status:** PASS\n")

	res, err := h.eng.Complete("a", TransitionOptions{})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.True(t, h.layout.IsArchived("a"))
	assert.Equal(t, []history.Kind{history.KindValidation, history.KindPhaseTransition, history.KindFeatureCompleted}, h.log.Kinds())
	assert.Equal(t, 1, h.metrics.all)

	res, err = h.eng.Complete("a", TransitionOptions{})
	require.NoError(t, err)
	assert.True(t, res.NoOp, "completing twice only retries the archive")
}

func TestMetricsFailureIsLoggedNotReturned(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseCreated))
	h.metrics.err = errors.New("metrics dir is read-only")
	res, err := h.eng.Transition("a", workflow.PhaseProductRefinement, TransitionOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	require.Len(t, h.logger.lines, 1)
	assert.Contains(t, h.logger.lines[0], "read-only")
}

func TestApplyIsTheOnlyPhaseWriter(t *testing.T) {
	h := newHarness(t, seeded("a", workflow.PhaseImplementation))
	f, err := h.eng.Apply("a", workflow.PhaseReview)
	require.NoError(t, err)
	assert.Equal(t, workflow.PhaseReview, f.Phase)
	assert.Equal(t, 1, h.store.Saves())
	assert.Equal(t, []history.Kind{history.KindPhaseTransition}, h.log.Kinds())
}
