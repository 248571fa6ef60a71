package workflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTableIsLinearExceptLoopBacks(t *testing.T) {
	phases := Phases()
	require.Len(t, phases, 7)
	for i := 0; i < len(phases)-1; i++ {
		assert.True(t, CanTransition(phases[i], phases[i+1]), "%s -> %s", phases[i], phases[i+1])
	}
	assert.True(t, CanTransition(PhaseReview, PhaseImplementation), "review loops back to implementation")
	assert.True(t, CanTransition(PhaseTesting, PhaseImplementation), "testing loops back to implementation")
	assert.False(t, CanTransition(PhaseCreated, PhaseTechSpec), "no phase skipping")
	assert.False(t, CanTransition(PhaseImplementation, PhaseTechSpec))
}

func TestIsLoopBack(t *testing.T) {
	assert.True(t, IsLoopBack(PhaseReview, PhaseImplementation))
	assert.True(t, IsLoopBack(PhaseTesting, PhaseImplementation))
	assert.False(t, IsLoopBack(PhaseTechSpec, PhaseImplementation), "forward edge into implementation")
	assert.False(t, IsLoopBack(PhaseReview, PhaseTesting))
}

func TestTerminalPhaseHasNoTargets(t *testing.T) {
	assert.Empty(t, Next(PhaseComplete))
	_, ok := Forward(PhaseComplete)
	assert.False(t, ok)
	for _, p := range Phases() {
		assert.False(t, CanTransition(PhaseComplete, p), "complete -> %s", p)
	}
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("  Tech_Spec ")
	require.NoError(t, err)
	assert.Equal(t, PhaseTechSpec, p)

	_, err = ParsePhase("deploy")
	assert.ErrorIs(t, err, ErrInvalidPhase)
	assert.Equal(t, 4, PhaseReview.Index())
}

func TestLayoutFeatureDirPrefersArchive(t *testing.T) {
	root := t.TempDir()
	layout := DefaultLayout(root)
	require.NoError(t, os.MkdirAll(layout.ActiveDir("login"), 0o755))
	assert.Equal(t, filepath.Join(root, DefaultTodoDir, "login"), layout.FeatureDir("login"))

	require.NoError(t, layout.Archive("login"))
	assert.True(t, layout.IsArchived("login"))
	assert.Equal(t, filepath.Join(root, DefaultDoneDir, "login"), layout.FeatureDir("login"))

	assert.NoError(t, layout.Archive("login"), "second archive is a no-op")
	assert.ErrorIs(t, layout.Archive("missing"), ErrFeatureDirMissing)
}

func TestScaffoldCreatesPlanningDir(t *testing.T) {
	layout := DefaultLayout(t.TempDir())
	dir, err := layout.Scaffold("login")
	require.NoError(t, err)
	assert.Equal(t, layout.ActiveDir("login"), dir)
	assert.DirExists(t, filepath.Join(dir, "planning"))
}
