// internal/config/config.go
//
// This package handles configuration and the .nextai directory structure.
// Every project managed by nextai gets a .nextai/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// NextaiDir is the name of the directory we create in each project
	NextaiDir = ".nextai"

	// ProjectEnv overrides project root discovery.
	ProjectEnv = "NEXTAI_PROJECT"

	defaultMaxRetries       = 5
	defaultMinContentLength = 10
	defaultTodoDir          = "nextai/todo"
	defaultDoneDir          = "nextai/done"
)

// ErrNotInitialized is returned when no .nextai directory can be found.
var ErrNotInitialized = errors.New("config: not a nextai project (run `nextai init`)")

const defaultProjectConfigYAML = `# nextai project configuration
version: 1

project:
  name: %s

# Retry threshold and the minimum size of a "meaningful" artifact.
workflow:
  max_retries: 5
  min_content_length: 10

# Where feature directories live, relative to the project root.
paths:
  todo: nextai/todo
  done: nextai/done

# Take an advisory lock on the ledger for mutating commands.
ledger:
  lock: true
`

// ProjectMeta names the project.
type ProjectMeta struct {
	Name string `yaml:"name"`
}

// WorkflowConfig tunes validation and retry policy.
type WorkflowConfig struct {
	MaxRetries       int `yaml:"max_retries"`
	MinContentLength int `yaml:"min_content_length"`
}

// PathsConfig locates the active and archived feature directories.
type PathsConfig struct {
	Todo string `yaml:"todo"`
	Done string `yaml:"done"`
}

// LedgerConfig controls ledger access.
type LedgerConfig struct {
	Lock *bool `yaml:"lock,omitempty"`
}

// ProjectConfig models .nextai/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Project  ProjectMeta    `yaml:"project"`
	Workflow WorkflowConfig `yaml:"workflow"`
	Paths    PathsConfig    `yaml:"paths"`
	Ledger   LedgerConfig   `yaml:"ledger"`
}

// Config holds the runtime configuration for one project.
type Config struct {
	// ProjectDir is the project root, the directory holding .nextai/
	ProjectDir string

	// NextaiProjectDir is ProjectDir/.nextai
	NextaiProjectDir string

	Project ProjectConfig

	todoDir string
	doneDir string
}

// Init creates the .nextai directory structure in the given project directory
// and writes a default config when none exists.
//
// Structure created:
// .nextai/
// ├── config.yaml
// ├── state/              <- ledger.json, history.log, ledger.lock
// ├── metrics/features/   <- derived per-feature metrics
// └── logs/               <- diagnostic log
func Init(projectDir string) (*Config, error) {
	nextaiDir := filepath.Join(projectDir, NextaiDir)
	dirs := []string{
		filepath.Join(nextaiDir, "state"),
		filepath.Join(nextaiDir, "metrics", "features"),
		filepath.Join(nextaiDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	if err := ensureProjectConfig(filepath.Join(nextaiDir, "config.yaml"), filepath.Base(projectDir)); err != nil {
		return nil, err
	}
	cfg, err := Load(projectDir)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{cfg.TodoDir(), cfg.DoneDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return cfg, nil
}

// Load reads the project configuration. A missing config file yields the
// defaults; the .nextai directory itself must exist.
func Load(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	cfg := &Config{
		ProjectDir:       abs,
		NextaiProjectDir: filepath.Join(abs, NextaiDir),
		Project:          defaultProjectConfig(filepath.Base(abs)),
	}
	info, err := os.Stat(cfg.NextaiProjectDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, abs)
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.todoDir = resolvePath(abs, cfg.Project.Paths.Todo)
	cfg.doneDir = resolvePath(abs, cfg.Project.Paths.Done)
	return cfg, nil
}

// FindProjectRoot resolves the project root. NEXTAI_PROJECT wins when set;
// otherwise the search walks up from start looking for a .nextai directory.
func FindProjectRoot(start string) (string, error) {
	if env := strings.TrimSpace(os.Getenv(ProjectEnv)); env != "" {
		return filepath.Abs(env)
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		info, err := os.Stat(filepath.Join(dir, NextaiDir))
		if err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched upward from %s", ErrNotInitialized, start)
		}
		dir = parent
	}
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.NextaiProjectDir, "config.yaml")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.NextaiProjectDir, "state")
}

// LedgerPath returns .nextai/state/ledger.json
func (c *Config) LedgerPath() string {
	return filepath.Join(c.StateDir(), "ledger.json")
}

// HistoryPath returns .nextai/state/history.log
func (c *Config) HistoryPath() string {
	return filepath.Join(c.StateDir(), "history.log")
}

// LockPath returns .nextai/state/ledger.lock
func (c *Config) LockPath() string {
	return filepath.Join(c.StateDir(), "ledger.lock")
}

// MetricsDir returns the path to the metrics directory
func (c *Config) MetricsDir() string {
	return filepath.Join(c.NextaiProjectDir, "metrics")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.NextaiProjectDir, "logs")
}

// TodoDir returns the absolute directory holding active features.
func (c *Config) TodoDir() string {
	return c.todoDir
}

// DoneDir returns the absolute directory holding archived features.
func (c *Config) DoneDir() string {
	return c.doneDir
}

// MaxRetries returns the retry threshold.
func (c *Config) MaxRetries() int {
	return c.Project.Workflow.MaxRetries
}

// MinContentLength returns the meaningful-content threshold.
func (c *Config) MinContentLength() int {
	return c.Project.Workflow.MinContentLength
}

// LockEnabled reports whether mutating commands take the ledger lock.
func (c *Config) LockEnabled() bool {
	return c.Project.Ledger.Lock == nil || *c.Project.Ledger.Lock
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults(filepath.Base(c.ProjectDir))
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig(name string) ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults(name)
	return pc
}

func (pc *ProjectConfig) applyDefaults(name string) {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Project.Name) == "" {
		pc.Project.Name = name
	}
	if pc.Workflow.MaxRetries == 0 {
		pc.Workflow.MaxRetries = defaultMaxRetries
	}
	if pc.Workflow.MinContentLength == 0 {
		pc.Workflow.MinContentLength = defaultMinContentLength
	}
	if strings.TrimSpace(pc.Paths.Todo) == "" {
		pc.Paths.Todo = defaultTodoDir
	}
	if strings.TrimSpace(pc.Paths.Done) == "" {
		pc.Paths.Done = defaultDoneDir
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Project.Name = strings.TrimSpace(pc.Project.Name)
	pc.Paths.Todo = filepath.Clean(strings.TrimSpace(pc.Paths.Todo))
	pc.Paths.Done = filepath.Clean(strings.TrimSpace(pc.Paths.Done))
}

func (pc *ProjectConfig) validate() error {
	var errs []error
	if pc.Version < 1 {
		errs = append(errs, fmt.Errorf("config version must be >= 1"))
	}
	if pc.Workflow.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("workflow.max_retries must be >= 1"))
	}
	if pc.Workflow.MinContentLength < 1 {
		errs = append(errs, fmt.Errorf("workflow.min_content_length must be >= 1"))
	}
	if pc.Paths.Todo == pc.Paths.Done {
		errs = append(errs, fmt.Errorf("paths.todo and paths.done must differ"))
	}
	return errors.Join(errs...)
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path, name string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, ":#\n") {
		name = "project"
	}
	return os.WriteFile(path, []byte(fmt.Sprintf(defaultProjectConfigYAML, name)), 0o644)
}
