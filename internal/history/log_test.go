package history

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newLog(t *testing.T) *Log {
	t.Helper()
	l, err := New(filepath.Join(t.TempDir(), "state", "history.log"))
	require.NoError(t, err)
	return l
}

func TestAppendAndReadAllPreservesOrderAndTypes(t *testing.T) {
	l := newLog(t)
	events := []Event{
		NewInit(t0, "demo"),
		NewFeatureCreated(t0, "login", "Login", "feature"),
		NewValidation(t0.Add(time.Minute), "login", workflow.PhaseProductRefinement, false, []string{"initialization.md is empty"}, nil),
		NewValidationBypass(t0.Add(2*time.Minute), "login", workflow.PhaseCreated, workflow.PhaseProductRefinement, []string{"initialization.md is empty"}, nil),
		NewPhaseTransition(t0.Add(2*time.Minute), "login", workflow.PhaseCreated, workflow.PhaseProductRefinement),
		NewRetryIncremented(t0.Add(3*time.Minute), "login", 1),
		NewFeatureBlocked(t0.Add(4*time.Minute), "login", "waiting"),
		NewSync(t0.Add(5*time.Minute), "editor", "commands refreshed"),
	}
	for _, e := range events {
		require.NoError(t, l.Append(e))
	}

	got, err := l.ReadAll()
	require.NoError(t, err)
	require.Len(t, got, len(events))
	for i := range events {
		assert.Equal(t, events[i], got[i])
	}

	bypass, ok := got[3].(ValidationBypass)
	require.True(t, ok)
	assert.Equal(t, []string{}, bypass.Warnings, "bypass always carries both lists")

	assert.Len(t, ForFeature(got, "login"), 6)
	assert.Empty(t, ForFeature(got, "other"))
}

func TestAppendNeverRewritesExistingLines(t *testing.T) {
	l := newLog(t)
	require.NoError(t, l.Append(NewFeatureCreated(t0, "a", "A", "task")))
	before, err := os.ReadFile(l.Path())
	require.NoError(t, err)

	require.NoError(t, l.Append(NewFeatureRemoved(t0.Add(time.Second), "a")))
	after, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(after), string(before)))
	assert.Equal(t, 2, strings.Count(string(after), "\n"))
}

func TestAppendReportsFailedWrites(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	l := &Log{path: "/dev/full"}
	err := l.Append(NewFeatureCreated(t0, "a", "A", "task"))
	require.Error(t, err, "a device that accepts the open but not the data must not look like success")
	assert.Contains(t, err.Error(), "/dev/full")
}

func TestReadAllOnMissingFileIsEmpty(t *testing.T) {
	got, err := newLog(t).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadAllFailsOnMalformedLine(t *testing.T) {
	l := newLog(t)
	require.NoError(t, l.Append(NewFeatureCreated(t0, "a", "A", "feature")))
	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n" + `{"ts":"2026-03-01T09:00:00Z","event":"teleport"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, l.Append(NewFeatureRemoved(t0, "a")))

	_, err = l.ReadAll()
	var corrupt *CorruptLineError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, 2, corrupt.Line)

	var skipped []int
	got, err := l.Read(WithSkipMalformed(func(c *CorruptLineError) { skipped = append(skipped, c.Line) }))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, skipped)
	require.Len(t, got, 2)
	assert.Equal(t, KindFeatureRemoved, got[1].Kind())
}

func TestDecodeRejectsMissingTimestampAndUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`{"event":"feature_completed","feature_id":"a"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"ts":"2026-03-01T09:00:00Z","event":"nope"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestTailReturnsRecentLines(t *testing.T) {
	l := newLog(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Append(NewRetryIncremented(t0, "a", i)))
	}
	lines := l.Tail(3)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"count":2`)
	assert.Contains(t, lines[2], `"count":4`)
}

func TestMemoryInjectsFailures(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Append(NewRetryReset(t0, "a")))
	boom := errors.New("disk full")
	m.FailWith(boom)
	assert.ErrorIs(t, m.Append(NewRetryReset(t0, "a")), boom)
	assert.Equal(t, []Kind{KindRetryReset}, m.Kinds())
}
