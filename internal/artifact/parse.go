package artifact

import (
	"regexp"
	"strconv"
	"strings"
)

// VerdictHeader is the literal section header a review must carry before its verdict.
const VerdictHeader = "## Verdict"

var (
	checkboxLine  = regexp.MustCompile(`^\s*[-*]\s+\[([ xX])\]`)
	verdictHeader = regexp.MustCompile(`(?im)^##\s+Verdict\s*$`)
	verdictToken  = regexp.MustCompile(`(?i)\b(PASS|FAIL)\b`)
	statusLine    = regexp.MustCompile(`(?i)^\s*\*\*Status:\*\*\s*(PASS|FAIL)\b`)
	sessionHeader = regexp.MustCompile(`(?i)^#{2,3}\s+Test Session\b\s*#?(\d+)?`)
)

// ParseTaskProgress counts `- [ ]`, `- [x]`, `* [ ]` and `* [x]` lines. The
// check mark is case-insensitive.
func ParseTaskProgress(content string) Progress {
	var p Progress
	for _, line := range splitLines(content) {
		m := checkboxLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		p.Total++
		if m[1] != " " {
			p.Completed++
		}
	}
	p.IsComplete = p.Total > 0 && p.Completed == p.Total
	return p
}

// ParseReviewVerdict returns the first PASS/FAIL token that follows the
// `## Verdict` header. Text before the header is ignored.
func ParseReviewVerdict(content string) Verdict {
	content = normalizeNewlines(content)
	loc := verdictHeader.FindStringIndex(content)
	if loc == nil {
		return VerdictPending
	}
	m := verdictToken.FindStringSubmatch(content[loc[1]:])
	if m == nil {
		return VerdictPending
	}
	return verdictFromToken(m[1])
}

// ParseTestingStatus returns the verdict of the last `**Status:**` line, so
// the most recent session decides.
func ParseTestingStatus(content string) Verdict {
	verdict := VerdictPending
	for _, line := range splitLines(content) {
		if m := statusLine.FindStringSubmatch(line); m != nil {
			verdict = verdictFromToken(m[1])
		}
	}
	return verdict
}

// ParseTestSessions splits the testing log into `### Test Session` blocks.
// Each session's verdict is the first status line inside its block.
func ParseTestSessions(content string) []Session {
	var sessions []Session
	current := -1
	for _, line := range splitLines(content) {
		if m := sessionHeader.FindStringSubmatch(line); m != nil {
			number := len(sessions) + 1
			if m[1] != "" {
				if n, err := strconv.Atoi(m[1]); err == nil {
					number = n
				}
			}
			sessions = append(sessions, Session{Number: number, Verdict: VerdictPending})
			current = len(sessions) - 1
			continue
		}
		if current < 0 || sessions[current].Verdict != VerdictPending {
			continue
		}
		if m := statusLine.FindStringSubmatch(line); m != nil {
			sessions[current].Verdict = verdictFromToken(m[1])
		}
	}
	return sessions
}

func verdictFromToken(token string) Verdict {
	if strings.EqualFold(token, "PASS") {
		return VerdictPass
	}
	return VerdictFail
}

func splitLines(content string) []string {
	return strings.Split(normalizeNewlines(content), "\n")
}

func normalizeNewlines(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}
