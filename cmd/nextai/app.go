package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/config"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/engine"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/lockfile"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/logging"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/metrics"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// app bundles the collaborators one command needs.
type app struct {
	cfg     *config.Config
	store   *ledger.FileStore
	log     *history.Log
	logger  *logging.Logger
	metrics *metrics.Engine
	engine  *engine.Engine
	layout  workflow.Layout
	lock    *lockfile.Lock
}

func resolveProjectDir() (string, error) {
	if projectFlag != "" {
		return filepath.Abs(projectFlag)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return config.FindProjectRoot(cwd)
}

// openApp loads the project. Mutating commands pass lock=true to serialise
// against other nextai processes.
func openApp(lock bool) (*app, error) {
	projectDir, err := resolveProjectDir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, err
	}
	return openWithConfig(cfg, lock)
}

func openWithConfig(cfg *config.Config, lock bool) (*app, error) {
	a := &app{cfg: cfg}
	if lock && cfg.LockEnabled() {
		l, err := lockfile.Acquire(cfg.LockPath())
		if err != nil {
			if errors.Is(err, lockfile.ErrLockBusy) {
				return nil, fmt.Errorf("another nextai command is modifying %s; retry shortly", cfg.LedgerPath())
			}
			return nil, err
		}
		a.lock = l
	}

	logger, err := logging.New(cfg.LogsDir())
	if err != nil {
		a.Close()
		return nil, err
	}
	if verboseFlag {
		logger.Mirror(os.Stderr)
	}
	a.logger = logger

	hist, err := history.New(cfg.HistoryPath())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.log = hist
	a.store = ledger.NewFileStore(cfg.LedgerPath())
	a.layout = workflow.NewLayout(cfg.TodoDir(), cfg.DoneDir())
	a.metrics = metrics.NewEngine(a.store, a.log, a.layout, cfg.MetricsDir(), logger)

	eng, err := engine.New(a.store, a.log,
		engine.WithLayout(a.layout),
		engine.WithMetrics(a.metrics),
		engine.WithLogger(logger),
		engine.WithMaxRetries(cfg.MaxRetries()),
		engine.WithMinContentLength(cfg.MinContentLength()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = eng
	return a, nil
}

// Close releases the lock and the log file.
func (a *app) Close() {
	if a == nil {
		return
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
	if err := a.lock.Release(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: release ledger lock: %v\n", err)
	}
}
