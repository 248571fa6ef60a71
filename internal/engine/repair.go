package engine

import (
	"fmt"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// RepairResult compares the ledger with what the artifacts imply.
type RepairResult struct {
	ID       string         `json:"id"`
	Ledger   workflow.Phase `json:"ledger_phase"`
	Detected workflow.Phase `json:"detected_phase"`
	Drift    bool           `json:"drift"`
	Applied  bool           `json:"applied"`
}

// Repair detects drift between the ledger phase and the artifacts on disk.
// With apply set, the ledger is moved to the detected phase directly; the
// transition table is not consulted because the artifacts are authoritative.
func (e *Engine) Repair(id string, apply bool) (RepairResult, error) {
	l, err := e.store.Load()
	if err != nil {
		return RepairResult{}, err
	}
	f, err := l.Find(id)
	if err != nil {
		return RepairResult{}, err
	}
	detected, found := artifact.DetectPhase(e.layout.FeatureDir(id))
	res := RepairResult{ID: id, Ledger: f.Phase, Detected: detected}
	if !found {
		res.Detected = f.Phase
		return res, nil
	}
	res.Drift = detected != f.Phase
	if !res.Drift || !apply {
		return res, nil
	}

	now := e.now()
	f.Phase = detected
	f.UpdatedAt = now
	if err := l.Replace(f); err != nil {
		return res, err
	}
	if err := e.store.Save(l); err != nil {
		return res, err
	}
	detail := fmt.Sprintf("ledger phase %s did not match artifacts", res.Ledger)
	if err := e.record(history.NewRepair(now, id, res.Ledger, detected, detail)); err != nil {
		return res, err
	}
	res.Applied = true
	e.recompute(id, detected.IsTerminal())
	return res, nil
}

// RepairAll runs Repair over every feature in ledger order.
func (e *Engine) RepairAll(apply bool) ([]RepairResult, error) {
	features, err := e.List()
	if err != nil {
		return nil, err
	}
	results := make([]RepairResult, 0, len(features))
	for _, f := range features {
		res, err := e.Repair(f.ID, apply)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
