package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

const (
	featuresDir    = "features"
	aggregatedFile = "aggregated.json"
)

// Logger receives diagnostics.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Engine recomputes metrics files under dir from the ledger and history log.
type Engine struct {
	store   ledger.Store
	history history.Reader
	layout  workflow.Layout
	dir     string
	logger  Logger
}

// NewEngine creates a metrics engine writing under dir.
func NewEngine(store ledger.Store, reader history.Reader, layout workflow.Layout, dir string, logger Logger) *Engine {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{store: store, history: reader, layout: layout, dir: dir, logger: logger}
}

// Dir returns the metrics root directory.
func (e *Engine) Dir() string {
	return e.dir
}

// FeaturePath returns features/<id>.json under the metrics root.
func (e *Engine) FeaturePath(id string) string {
	return filepath.Join(e.dir, featuresDir, id+".json")
}

// AggregatedPath returns aggregated.json under the metrics root.
func (e *Engine) AggregatedPath() string {
	return filepath.Join(e.dir, aggregatedFile)
}

// Feature computes the metrics of one feature without writing them.
func (e *Engine) Feature(id string) (FeatureMetrics, error) {
	l, err := e.store.Load()
	if err != nil {
		return FeatureMetrics{}, err
	}
	f, err := l.Find(id)
	if err != nil {
		return FeatureMetrics{}, err
	}
	events, err := e.history.ReadAll()
	if err != nil {
		return FeatureMetrics{}, fmt.Errorf("metrics: read history: %w", err)
	}
	return e.compute(f, events), nil
}

// Snapshot computes every feature and the aggregate without writing them.
func (e *Engine) Snapshot() (map[string]FeatureMetrics, Aggregated, error) {
	l, err := e.store.Load()
	if err != nil {
		return nil, Aggregated{}, err
	}
	events, err := e.history.ReadAll()
	if err != nil {
		return nil, Aggregated{}, fmt.Errorf("metrics: read history: %w", err)
	}
	per := make(map[string]FeatureMetrics, len(l.Features))
	for _, f := range l.Features {
		per[f.ID] = e.compute(f, events)
	}
	return per, Aggregate(l.Features, per), nil
}

// RecomputeFeature rewrites features/<id>.json.
func (e *Engine) RecomputeFeature(id string) error {
	m, err := e.Feature(id)
	if err != nil {
		return err
	}
	return writeJSON(e.FeaturePath(id), m)
}

// RecomputeAll rewrites every feature file and aggregated.json, and removes
// files for features no longer in the ledger.
func (e *Engine) RecomputeAll() error {
	per, agg, err := e.Snapshot()
	if err != nil {
		return err
	}
	for id, m := range per {
		if err := writeJSON(e.FeaturePath(id), m); err != nil {
			return err
		}
	}
	if err := e.prune(per); err != nil {
		return err
	}
	return writeJSON(e.AggregatedPath(), agg)
}

func (e *Engine) compute(f ledger.Feature, events []history.Event) FeatureMetrics {
	dir := e.layout.FeatureDir(f.ID)
	return ComputeFeature(f, events, artifact.TestSessions(workflow.TestingPath(dir)))
}

func (e *Engine) prune(keep map[string]FeatureMetrics) error {
	entries, err := os.ReadDir(filepath.Join(e.dir, featuresDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("metrics: list features: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if _, ok := keep[id]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(e.dir, featuresDir, name)); err != nil {
			return fmt.Errorf("metrics: prune %s: %w", id, err)
		}
		e.logger.Printf("metrics: pruned stale file for %s", id)
	}
	return nil
}

func writeJSON(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics: ensure dir: %w", err)
	}
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("metrics: encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("metrics: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("metrics: replace %s: %w", path, err)
	}
	return nil
}
