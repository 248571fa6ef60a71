// internal/workflow/workflow.go
//
// Defines the feature directory structure and artifact file names.
// Active features live under nextai/todo/<id>/, archived ones under
// nextai/done/<id>/. The artifact inspector and the validators depend on
// these names exactly.

package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default directory names relative to the project root
const (
	DefaultTodoDir = "nextai/todo"
	DefaultDoneDir = "nextai/done"
	PlanningDir    = "planning"
)

// Artifact file names inside a feature directory
const (
	FileInitialization = "initialization.md" // planning/
	FileRequirements   = "requirements.md"   // planning/
	FileInvestigation  = "investigation.md"  // planning/, bug features
	FileSpec           = "spec.md"
	FileTasks          = "tasks.md"
	FileReview         = "review.md"
	FileTesting        = "testing.md"
	FileSummary        = "summary.md" // written when the feature is archived
)

// ErrFeatureDirMissing is returned by Archive when there is nothing to move.
var ErrFeatureDirMissing = errors.New("workflow: feature directory not found")

// Layout resolves feature directories for a project.
type Layout struct {
	todoDir string
	doneDir string
}

// NewLayout creates a layout rooted at the given active and archive directories.
func NewLayout(todoDir, doneDir string) Layout {
	return Layout{todoDir: filepath.Clean(todoDir), doneDir: filepath.Clean(doneDir)}
}

// DefaultLayout returns the standard nextai/todo + nextai/done layout under projectDir.
func DefaultLayout(projectDir string) Layout {
	return NewLayout(filepath.Join(projectDir, DefaultTodoDir), filepath.Join(projectDir, DefaultDoneDir))
}

// TodoDir returns the directory holding active features
func (l Layout) TodoDir() string {
	return l.todoDir
}

// DoneDir returns the directory holding archived features
func (l Layout) DoneDir() string {
	return l.doneDir
}

// ActiveDir returns nextai/todo/<id>
func (l Layout) ActiveDir(id string) string {
	return filepath.Join(l.todoDir, id)
}

// ArchiveDir returns nextai/done/<id>
func (l Layout) ArchiveDir(id string) string {
	return filepath.Join(l.doneDir, id)
}

// FeatureDir returns the archive directory when the feature has been archived,
// otherwise the active directory.
func (l Layout) FeatureDir(id string) string {
	archived := l.ArchiveDir(id)
	if dirExists(archived) {
		return archived
	}
	return l.ActiveDir(id)
}

// IsArchived reports whether the feature directory has moved to the archive.
func (l Layout) IsArchived(id string) bool {
	return dirExists(l.ArchiveDir(id))
}

// Archive moves a feature directory from active to archived storage.
func (l Layout) Archive(id string) error {
	src := l.ActiveDir(id)
	if !dirExists(src) {
		if dirExists(l.ArchiveDir(id)) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrFeatureDirMissing, src)
	}
	if err := os.MkdirAll(l.doneDir, 0o755); err != nil {
		return fmt.Errorf("workflow: ensure archive dir: %w", err)
	}
	if err := os.Rename(src, l.ArchiveDir(id)); err != nil {
		return fmt.Errorf("workflow: archive %s: %w", id, err)
	}
	return nil
}

// Scaffold creates the active directory for a new feature, including the
// planning subdirectory, and returns its path.
func (l Layout) Scaffold(id string) (string, error) {
	dir := l.ActiveDir(id)
	if err := os.MkdirAll(filepath.Join(dir, PlanningDir), 0o755); err != nil {
		return "", fmt.Errorf("workflow: scaffold %s: %w", id, err)
	}
	return dir, nil
}

// InitializationPath returns planning/initialization.md inside dir
func InitializationPath(dir string) string {
	return filepath.Join(dir, PlanningDir, FileInitialization)
}

// RequirementsPath returns planning/requirements.md inside dir
func RequirementsPath(dir string) string {
	return filepath.Join(dir, PlanningDir, FileRequirements)
}

// InvestigationPath returns planning/investigation.md inside dir
func InvestigationPath(dir string) string {
	return filepath.Join(dir, PlanningDir, FileInvestigation)
}

// SpecPath returns spec.md inside dir
func SpecPath(dir string) string {
	return filepath.Join(dir, FileSpec)
}

// TasksPath returns tasks.md inside dir
func TasksPath(dir string) string {
	return filepath.Join(dir, FileTasks)
}

// ReviewPath returns review.md inside dir
func ReviewPath(dir string) string {
	return filepath.Join(dir, FileReview)
}

// TestingPath returns testing.md inside dir
func TestingPath(dir string) string {
	return filepath.Join(dir, FileTesting)
}

// SummaryPath returns summary.md inside dir
func SummaryPath(dir string) string {
	return filepath.Join(dir, FileSummary)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
