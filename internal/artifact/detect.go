package artifact

import (
	"fmt"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// PhaseStatus describes whether the artifacts of one phase are complete.
type PhaseStatus struct {
	Phase    workflow.Phase `json:"phase"`
	Complete bool           `json:"complete"`
	Detail   string         `json:"detail,omitempty"`
}

// DetectPhase infers the highest completed phase from the artifacts in
// featureDir. It checks in reverse order, most complete state first, and the
// first match wins. The boolean is false when no artifact was found at all.
func DetectPhase(featureDir string) (workflow.Phase, bool) {
	if Exists(Summary.Path(featureDir)) {
		return workflow.PhaseComplete, true
	}
	descending := workflow.Phases()
	for i := len(descending) - 2; i >= 0; i-- {
		phase := descending[i]
		if IsPhaseComplete(featureDir, phase) {
			return phase, true
		}
	}
	return workflow.PhaseCreated, false
}

// IsPhaseComplete reports whether the work of the given phase is present on disk.
func IsPhaseComplete(featureDir string, phase workflow.Phase) bool {
	switch phase {
	case workflow.PhaseCreated:
		return HasMeaningfulContent(Initialization.Path(featureDir), DefaultMinContentLength)
	case workflow.PhaseProductRefinement:
		return HasMeaningfulContent(Requirements.Path(featureDir), DefaultMinContentLength)
	case workflow.PhaseTechSpec:
		return HasMeaningfulContent(Spec.Path(featureDir), DefaultMinContentLength) &&
			HasMeaningfulContent(Tasks.Path(featureDir), DefaultMinContentLength)
	case workflow.PhaseImplementation:
		return TaskProgress(Tasks.Path(featureDir)).IsComplete
	case workflow.PhaseReview:
		return ReviewOutcome(Review.Path(featureDir)) == VerdictPass
	case workflow.PhaseTesting:
		return TestingStatus(Testing.Path(featureDir)) == VerdictPass
	case workflow.PhaseComplete:
		return Exists(Summary.Path(featureDir))
	default:
		return false
	}
}

// PhaseStatuses returns the completion status of every phase, in sequence order.
func PhaseStatuses(featureDir string) []PhaseStatus {
	phases := workflow.Phases()
	out := make([]PhaseStatus, 0, len(phases))
	for _, phase := range phases {
		out = append(out, PhaseStatus{
			Phase:    phase,
			Complete: IsPhaseComplete(featureDir, phase),
			Detail:   phaseDetail(featureDir, phase),
		})
	}
	return out
}

func phaseDetail(featureDir string, phase workflow.Phase) string {
	switch phase {
	case workflow.PhaseImplementation:
		p := TaskProgress(Tasks.Path(featureDir))
		if p.Total == 0 {
			return "no tasks"
		}
		return fmt.Sprintf("%d/%d tasks", p.Completed, p.Total)
	case workflow.PhaseReview:
		return "verdict: " + string(ReviewOutcome(Review.Path(featureDir)))
	case workflow.PhaseTesting:
		sessions := TestSessions(Testing.Path(featureDir))
		status := TestingStatus(Testing.Path(featureDir))
		if len(sessions) == 0 {
			return "status: " + string(status)
		}
		return fmt.Sprintf("status: %s, %d sessions", status, len(sessions))
	default:
		return ""
	}
}
