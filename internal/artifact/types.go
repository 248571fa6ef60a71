// Package artifact reads the files inside a feature directory and derives
// phase-completion facts from them. Nothing here consults the ledger: the
// artifacts on disk are the independent ground truth for "has this phase's
// work actually been done".
package artifact

import (
	"path/filepath"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// DefaultMinContentLength is the trimmed length below which a file counts as empty.
const DefaultMinContentLength = 10

// Kind captures how an artifact's content is interpreted.
type Kind string

const (
	// KindDocument is free-form markdown that only needs meaningful content.
	KindDocument Kind = "document"
	// KindChecklist is markdown carrying `- [ ]` task lines.
	KindChecklist Kind = "checklist"
	// KindVerdict is markdown whose verdict section decides the outcome.
	KindVerdict Kind = "verdict"
	// KindSessionLog is markdown holding test sessions with status lines.
	KindSessionLog Kind = "session-log"
)

// PathResolver maps a feature directory to the artifact's file path.
type PathResolver func(featureDir string) string

// Ref declares a stable identifier and metadata for an artifact.
type Ref struct {
	ID          string
	Name        string
	Description string
	Kind        Kind
	path        PathResolver
}

// File returns the artifact path relative to the feature directory, with
// forward slashes.
func (r Ref) File() string {
	if r.path == nil {
		return ""
	}
	return filepath.ToSlash(r.path("."))
}

// Path resolves the artifact path inside the feature directory.
func (r Ref) Path(featureDir string) string {
	if r.path == nil || featureDir == "" {
		return ""
	}
	return filepath.Clean(r.path(featureDir))
}

// State captures the readiness of an artifact on disk.
type State string

const (
	StateMissing State = "missing"
	StateEmpty   State = "empty"
	StateReady   State = "ready"
	StateError   State = "error"
)

// CheckResult captures Check results.
type CheckResult struct {
	Ref   Ref
	Path  string
	State State
	Err   error
}

// Verdict is the outcome parsed out of a review or testing artifact.
type Verdict string

const (
	VerdictPass    Verdict = "pass"
	VerdictFail    Verdict = "fail"
	VerdictPending Verdict = "pending"
)

// Progress summarizes checklist completion in a tasks artifact.
type Progress struct {
	Total      int  `json:"total"`
	Completed  int  `json:"completed"`
	IsComplete bool `json:"is_complete"`
}

// Session is one test run recorded in the testing artifact.
type Session struct {
	Number  int     `json:"number"`
	Verdict Verdict `json:"verdict"`
}

var registry []Ref

func register(ref Ref) Ref {
	registry = append(registry, ref)
	return ref
}

// All returns every registered reference in declaration order.
func All() []Ref {
	out := make([]Ref, len(registry))
	copy(out, registry)
	return out
}

func newRef(id, name, desc string, kind Kind, resolver PathResolver) Ref {
	return Ref{
		ID:          id,
		Name:        name,
		Description: desc,
		Kind:        kind,
		path:        resolver,
	}
}

// Canonical artifact references for a feature directory.
var (
	Initialization = register(newRef("initialization", "Initialization Notes", "planning/initialization.md captured when the feature is created", KindDocument, workflow.InitializationPath))
	Requirements   = register(newRef("requirements", "Requirements", "planning/requirements.md produced by product refinement", KindDocument, workflow.RequirementsPath))
	Investigation  = register(newRef("investigation", "Investigation", "planning/investigation.md root-cause notes for bugs", KindDocument, workflow.InvestigationPath))
	Spec           = register(newRef("spec", "Technical Specification", "spec.md describing the implementation", KindDocument, workflow.SpecPath))
	Tasks          = register(newRef("tasks", "Task Checklist", "tasks.md enumerating implementation steps", KindChecklist, workflow.TasksPath))
	Review         = register(newRef("review", "Code Review", "review.md carrying the review verdict", KindVerdict, workflow.ReviewPath))
	Testing        = register(newRef("testing", "Test Log", "testing.md recording test sessions", KindSessionLog, workflow.TestingPath))
	Summary        = register(newRef("summary", "Summary", "summary.md written when the feature is archived", KindDocument, workflow.SummaryPath))
)
