package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseTaskProgress(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    Progress
	}{
		{"mixed", "- [x] a\n- [ ] b", Progress{Total: 2, Completed: 1, IsComplete: false}},
		{"upper mark and star bullet", "- [x] a\n* [X] b", Progress{Total: 2, Completed: 2, IsComplete: true}},
		{"no items", "# Tasks\n\nnothing yet", Progress{}},
		{"indented and crlf", "  - [ ] a\r\n\t* [x] b\r\n", Progress{Total: 2, Completed: 1}},
		{"plain bullets ignored", "- a\n- [x] b\n-[x] c", Progress{Total: 1, Completed: 1, IsComplete: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseTaskProgress(tc.content))
		})
	}
}

func TestParseReviewVerdictOnlyCountsTextAfterHeader(t *testing.T) {
	content := "# Review\n\nEarlier draft said FAIL.\n\n## Verdict\n\nPASS - looks good\n"
	assert.Equal(t, VerdictPass, ParseReviewVerdict(content))

	assert.Equal(t, VerdictFail, ParseReviewVerdict("## Verdict\nfail: missing tests, would PASS otherwise"))
	assert.Equal(t, VerdictPending, ParseReviewVerdict("PASS\n\nno verdict section"))
	assert.Equal(t, VerdictPending, ParseReviewVerdict("## Verdict\n\nstill thinking"))
	assert.Equal(t, VerdictPending, ParseReviewVerdict("## Verdicts\nPASS"))
	assert.Equal(t, VerdictPending, ParseReviewVerdict("## Verdict\nPASSED"), "token needs a word boundary")
}

func TestParseTestingStatusAndSessions(t *testing.T) {
	content := `# Testing

### Test Session 1
**Status:** FAIL
Login broke on refresh.

### Test Session 2
notes first
**Status:** pass
**Status:** FAIL
`
	assert.Equal(t, VerdictFail, ParseTestingStatus(content), "last status line wins")
	sessions := ParseTestSessions(content)
	require.Len(t, sessions, 2)
	assert.Equal(t, Session{Number: 1, Verdict: VerdictFail}, sessions[0])
	assert.Equal(t, Session{Number: 2, Verdict: VerdictPass}, sessions[1], "first status line inside a session wins")

	assert.Equal(t, VerdictPending, ParseTestingStatus("# Testing\nno runs yet"))
	assert.Empty(t, ParseTestSessions("**Status:** PASS"))

	unnumbered := ParseTestSessions("## Test Session\n**Status:** PASS\n## Test Session\n")
	require.Len(t, unnumbered, 2)
	assert.Equal(t, 2, unnumbered[1].Number)
	assert.Equal(t, VerdictPending, unnumbered[1].Verdict)
}

func TestHasMeaningfulContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	assert.False(t, HasMeaningfulContent(path, 0), "missing file")

	writeFile(t, path, "   \n\t short \n")
	assert.False(t, HasMeaningfulContent(path, 0))
	assert.True(t, HasMeaningfulContent(path, 5))

	writeFile(t, path, "\n\nten chars!\n")
	assert.True(t, HasMeaningfulContent(path, DefaultMinContentLength))
}

func TestDetectPhaseWalksArtifactsInDescendingOrder(t *testing.T) {
	dir := t.TempDir()
	phase, found := DetectPhase(dir)
	assert.False(t, found)
	assert.Equal(t, workflow.PhaseCreated, phase)

	writeFile(t, workflow.InitializationPath(dir), "Initial idea for the login flow")
	phase, found = DetectPhase(dir)
	assert.True(t, found)
	assert.Equal(t, workflow.PhaseCreated, phase)

	writeFile(t, workflow.RequirementsPath(dir), "Users must be able to log in")
	phase, _ = DetectPhase(dir)
	assert.Equal(t, workflow.PhaseProductRefinement, phase)

	writeFile(t, workflow.SpecPath(dir), "Use session cookies for auth")
	writeFile(t, workflow.TasksPath(dir), "- [x] add form\n- [ ] wire api")
	phase, _ = DetectPhase(dir)
	assert.Equal(t, workflow.PhaseTechSpec, phase)

	writeFile(t, workflow.TasksPath(dir), "- [x] add form\n- [x] wire api")
	phase, _ = DetectPhase(dir)
	assert.Equal(t, workflow.PhaseImplementation, phase)

	writeFile(t, workflow.ReviewPath(dir), "## Verdict\nPASS")
	phase, _ = DetectPhase(dir)
	assert.Equal(t, workflow.PhaseReview, phase)

	writeFile(t, workflow.TestingPath(dir), "### Test Session 1\n**Status:** PASS")
	phase, _ = DetectPhase(dir)
	assert.Equal(t, workflow.PhaseTesting, phase)
}

func TestDetectPhaseSummaryAlwaysWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, workflow.InitializationPath(dir), "Initial idea for the login flow")
	writeFile(t, workflow.ReviewPath(dir), "## Verdict\nFAIL")
	writeFile(t, workflow.TestingPath(dir), "**Status:** FAIL")
	writeFile(t, workflow.SummaryPath(dir), "")

	for i := 0; i < 2; i++ {
		phase, found := DetectPhase(dir)
		require.True(t, found)
		assert.Equal(t, workflow.PhaseComplete, phase)
	}
}

func TestPhaseStatusesAndCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, workflow.TasksPath(dir), "- [x] one\n- [ ] two\n- [ ] three")
	writeFile(t, workflow.SpecPath(dir), "tiny")

	statuses := PhaseStatuses(dir)
	require.Len(t, statuses, len(workflow.Phases()))
	impl := statuses[workflow.PhaseImplementation.Index()]
	assert.False(t, impl.Complete)
	assert.Equal(t, "1/3 tasks", impl.Detail)
	assert.Equal(t, "verdict: pending", statuses[workflow.PhaseReview.Index()].Detail)

	assert.Equal(t, StateReady, Check(Tasks, dir, 0).State)
	assert.Equal(t, StateEmpty, Check(Spec, dir, 0).State)
	assert.Equal(t, StateMissing, Check(Review, dir, 0).State)

	assert.Equal(t, KindVerdict, Review.Kind)
	assert.Equal(t, "planning/requirements.md", Requirements.File())
	assert.Len(t, All(), 8)
}

func TestCheckAllReportsEveryArtifact(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, workflow.InitializationPath(dir), "Initial idea for the login flow")
	writeFile(t, workflow.RequirementsPath(dir), "todo")
	require.NoError(t, os.MkdirAll(workflow.ReviewPath(dir), 0o755))

	results := CheckAll(dir, 0)
	require.Len(t, results, len(All()))
	states := map[string]State{}
	for _, res := range results {
		states[res.Ref.ID] = res.State
	}
	assert.Equal(t, StateReady, states["initialization"])
	assert.Equal(t, StateEmpty, states["requirements"])
	assert.Equal(t, StateMissing, states["spec"])
	assert.Equal(t, StateError, states["review"], "a directory where a file belongs")
	assert.Equal(t, "initialization", results[0].Ref.ID, "declaration order")
}
