package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, projectDir, body string) {
	t.Helper()
	nextaiDir := filepath.Join(projectDir, NextaiDir)
	require.NoError(t, os.MkdirAll(nextaiDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nextaiDir, "config.yaml"), []byte(strings.TrimSpace(body)), 0o644))
}

func TestInitCreatesLayoutAndDefaults(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "shop")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))
	cfg, err := Init(projectDir)
	require.NoError(t, err)

	for _, dir := range []string{cfg.StateDir(), filepath.Join(cfg.MetricsDir(), "features"), cfg.LogsDir(), cfg.TodoDir(), cfg.DoneDir()} {
		assert.DirExists(t, dir)
	}
	assert.Equal(t, "shop", cfg.Project.Project.Name)
	assert.Equal(t, 5, cfg.MaxRetries())
	assert.Equal(t, 10, cfg.MinContentLength())
	assert.True(t, cfg.LockEnabled(), "lock defaults to enabled")
	assert.Equal(t, filepath.Join(cfg.ProjectDir, ".nextai", "state", "ledger.json"), cfg.LedgerPath())
	assert.Equal(t, filepath.Join(cfg.ProjectDir, "nextai", "todo"), cfg.TodoDir())

	require.NoError(t, os.WriteFile(cfg.ProjectConfigPath(), []byte("version: 1\nworkflow:\n  max_retries: 2\n"), 0o644))
	again, err := Init(projectDir)
	require.NoError(t, err)
	assert.Equal(t, 2, again.MaxRetries(), "init must not overwrite an existing config")
}

func TestLoadParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
project:
  name: "  demo  "
workflow:
  max_retries: 3
  min_content_length: 25
paths:
  todo: work/active
  done: /srv/archive
ledger:
  lock: false
`)
	cfg, err := Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Project.Project.Name, "name is trimmed")
	assert.Equal(t, 3, cfg.MaxRetries())
	assert.Equal(t, 25, cfg.MinContentLength())
	assert.True(t, strings.HasPrefix(cfg.TodoDir(), cfg.ProjectDir), "relative todo dir resolves under the project")
	assert.Equal(t, filepath.Clean("/srv/archive"), cfg.DoneDir())
	assert.False(t, cfg.LockEnabled())
}

func TestLoadValidation(t *testing.T) {
	projectDir := t.TempDir()
	writeConfig(t, projectDir, `
version: 1
workflow:
  max_retries: -1
paths:
  todo: same
  done: same
`)
	_, err := Load(projectDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_retries")
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoadRequiresInitializedProject(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestFindProjectRootWalksUpAndHonoursEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".nextai"), 0o755))
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	t.Setenv(ProjectEnv, "")
	got, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	other := t.TempDir()
	t.Setenv(ProjectEnv, other)
	got, err = FindProjectRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, other, got, "env override wins")
}
