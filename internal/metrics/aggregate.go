package metrics

import (
	"math"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// Aggregated summarises every feature in the ledger.
type Aggregated struct {
	TotalFeatures       int            `json:"total_features"`
	Done                int            `json:"done"`
	Todo                int            `json:"todo"`
	Blocked             int            `json:"blocked"`
	Completed           int            `json:"completed"`
	ByType              map[string]int `json:"by_type"`
	ByPhase             map[string]int `json:"by_phase"`
	AvgTotalDurationMs  int64          `json:"avg_total_duration_ms"`
	AvgReviewIterations float64        `json:"avg_review_iterations"`
	AvgTestingFailures  float64        `json:"avg_testing_failures"`
	AvgImplToCompleteMs int64          `json:"avg_impl_to_complete_ms"`
	BypassedValidations int            `json:"bypassed_validations"`
}

// Aggregate rolls per-feature metrics up. Averages only count features with a
// feature_completed event; a ledger phase of complete alone is not enough.
func Aggregate(features []ledger.Feature, perFeature map[string]FeatureMetrics) Aggregated {
	agg := Aggregated{
		TotalFeatures: len(features),
		ByType:        map[string]int{},
		ByPhase:       map[string]int{},
	}
	for _, p := range workflow.Phases() {
		agg.ByPhase[string(p)] = 0
	}
	for _, t := range []ledger.Type{ledger.TypeFeature, ledger.TypeBug, ledger.TypeTask} {
		agg.ByType[string(t)] = 0
	}

	var totalMs, implMs int64
	var implCount, reviews, failures int
	for _, f := range features {
		agg.ByType[string(f.Type)]++
		agg.ByPhase[string(f.Phase)]++
		if f.Phase == workflow.PhaseComplete {
			agg.Done++
		} else {
			agg.Todo++
		}
		if f.IsBlocked() {
			agg.Blocked++
		}
		m, ok := perFeature[f.ID]
		if !ok {
			continue
		}
		agg.BypassedValidations += m.Validation.Bypassed
		if !m.Completed() {
			continue
		}
		agg.Completed++
		if m.TotalDurationMs != nil {
			totalMs += *m.TotalDurationMs
		}
		if m.ImplToCompleteMs != nil {
			implMs += *m.ImplToCompleteMs
			implCount++
		}
		reviews += m.Review.Iterations
		failures += m.Testing.Failures
	}
	if agg.Completed > 0 {
		n := float64(agg.Completed)
		agg.AvgTotalDurationMs = totalMs / int64(agg.Completed)
		agg.AvgReviewIterations = round2(float64(reviews) / n)
		agg.AvgTestingFailures = round2(float64(failures) / n)
	}
	if implCount > 0 {
		agg.AvgImplToCompleteMs = implMs / int64(implCount)
	}
	return agg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
