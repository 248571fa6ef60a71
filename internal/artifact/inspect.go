package artifact

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// HasMeaningfulContent reports whether the file exists and, after trimming
// whitespace, holds at least minLength characters. A zero or negative
// minLength uses DefaultMinContentLength.
func HasMeaningfulContent(path string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultMinContentLength
	}
	content, ok := readContent(path)
	if !ok {
		return false
	}
	return len([]rune(strings.TrimSpace(content))) >= minLength
}

// TaskProgress parses the checklist in a tasks artifact. A missing file
// yields zero progress.
func TaskProgress(path string) Progress {
	content, ok := readContent(path)
	if !ok {
		return Progress{}
	}
	return ParseTaskProgress(content)
}

// ReviewOutcome parses the verdict section of a review artifact.
func ReviewOutcome(path string) Verdict {
	content, ok := readContent(path)
	if !ok {
		return VerdictPending
	}
	return ParseReviewVerdict(content)
}

// TestingStatus parses the latest status line of a testing artifact.
func TestingStatus(path string) Verdict {
	content, ok := readContent(path)
	if !ok {
		return VerdictPending
	}
	return ParseTestingStatus(content)
}

// TestSessions parses the sessions recorded in a testing artifact.
func TestSessions(path string) []Session {
	content, ok := readContent(path)
	if !ok {
		return nil
	}
	return ParseTestSessions(content)
}

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Check inspects the artifact on disk and returns its state.
func Check(ref Ref, featureDir string, minLength int) CheckResult {
	path := ref.Path(featureDir)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CheckResult{Ref: ref, Path: path, State: StateMissing}
		}
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: err}
	}
	if info.IsDir() {
		return CheckResult{Ref: ref, Path: path, State: StateError, Err: errors.New("artifact: expected file got directory")}
	}
	if !HasMeaningfulContent(path, minLength) {
		return CheckResult{Ref: ref, Path: path, State: StateEmpty}
	}
	return CheckResult{Ref: ref, Path: path, State: StateReady}
}

// CheckAll runs Check over every registered artifact in declaration order.
func CheckAll(featureDir string, minLength int) []CheckResult {
	refs := All()
	out := make([]CheckResult, 0, len(refs))
	for _, ref := range refs {
		out = append(out, Check(ref, featureDir, minLength))
	}
	return out
}

func readContent(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
