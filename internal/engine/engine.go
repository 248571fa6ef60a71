package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/artifact"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/history"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/ledger"
	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// Recorder refreshes derived metrics after a mutation.
type Recorder interface {
	RecomputeFeature(id string) error
	RecomputeAll() error
}

// Logger receives diagnostics the engine does not surface as errors.
type Logger interface {
	Printf(format string, args ...any)
}

// Archiver moves a completed feature's directory out of the active tree.
type Archiver interface {
	Archive(id string) error
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}

// Engine mutates the ledger and keeps the history log in step with it.
type Engine struct {
	store      ledger.Store
	log        history.Appender
	layout     workflow.Layout
	archiver   Archiver
	metrics    Recorder
	logger     Logger
	clock      func() time.Time
	maxRetries int
	minLength  int
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLayout sets where feature directories live. The layout also archives
// completed features unless WithArchiver overrides it.
func WithLayout(layout workflow.Layout) Option {
	return func(e *Engine) {
		e.layout = layout
	}
}

// WithArchiver overrides how completed features are archived.
func WithArchiver(a Archiver) Option {
	return func(e *Engine) {
		e.archiver = a
	}
}

// WithMetrics wires a metrics recorder. Recorder failures are logged only.
func WithMetrics(r Recorder) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxRetries sets the retry count at which IncrementRetry signals a block.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithMinContentLength sets the meaningful-content threshold for validators.
func WithMinContentLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minLength = n
		}
	}
}

// New wires an engine to the ledger store and history log.
func New(store ledger.Store, log history.Appender, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: ledger store is required")
	}
	if log == nil {
		return nil, fmt.Errorf("engine: history log is required")
	}
	e := &Engine{
		store:      store,
		log:        log,
		layout:     workflow.DefaultLayout(""),
		logger:     discardLogger{},
		clock:      time.Now,
		maxRetries: DefaultMaxRetries,
		minLength:  artifact.DefaultMinContentLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.archiver == nil {
		e.archiver = e.layout
	}
	return e, nil
}

// Layout returns the feature directory layout in use.
func (e *Engine) Layout() workflow.Layout {
	return e.layout
}

// MaxRetries returns the configured retry threshold.
func (e *Engine) MaxRetries() int {
	return e.maxRetries
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

// CreateRequest describes a new feature.
type CreateRequest struct {
	ID         string
	Title      string
	Type       ledger.Type
	ExternalID string
}

// Create adds a feature at the created phase.
func (e *Engine) Create(req CreateRequest) (ledger.Feature, error) {
	id := strings.TrimSpace(req.ID)
	if err := validateID(id); err != nil {
		return ledger.Feature{}, err
	}
	featureType := req.Type
	if featureType == "" {
		featureType = ledger.TypeFeature
	}
	if !featureType.Valid() {
		return ledger.Feature{}, fmt.Errorf("%w: %q", ledger.ErrInvalidType, featureType)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = id
	}
	l, err := e.store.Load()
	if err != nil {
		return ledger.Feature{}, err
	}
	now := e.now()
	f := ledger.Feature{
		ID:         id,
		Title:      title,
		Type:       featureType,
		ExternalID: strings.TrimSpace(req.ExternalID),
		Phase:      workflow.PhaseCreated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := l.Add(f); err != nil {
		return ledger.Feature{}, err
	}
	if err := e.store.Save(l); err != nil {
		return ledger.Feature{}, err
	}
	if err := e.record(history.NewFeatureCreated(now, id, title, string(featureType))); err != nil {
		return f, err
	}
	e.recompute(id, false)
	return f.Clone(), nil
}

// Get returns a copy of one feature.
func (e *Engine) Get(id string) (ledger.Feature, error) {
	l, err := e.store.Load()
	if err != nil {
		return ledger.Feature{}, err
	}
	return l.Find(id)
}

// List returns every feature in ledger order.
func (e *Engine) List() ([]ledger.Feature, error) {
	l, err := e.store.Load()
	if err != nil {
		return nil, err
	}
	return l.Clone().Features, nil
}

// Block marks a feature as needing operator attention. The phase is unchanged.
func (e *Engine) Block(id, reason string) (ledger.Feature, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ledger.Feature{}, ErrReasonRequired
	}
	return e.mutate(id, func(f *ledger.Feature, now time.Time) history.Event {
		f.BlockedReason = &reason
		return history.NewFeatureBlocked(now, id, reason)
	})
}

// Unblock clears a block. Unblocking an unblocked feature is a no-op.
func (e *Engine) Unblock(id string) (ledger.Feature, error) {
	f, err := e.Get(id)
	if err != nil {
		return ledger.Feature{}, err
	}
	if !f.IsBlocked() {
		return f, nil
	}
	return e.mutate(id, func(f *ledger.Feature, now time.Time) history.Event {
		f.BlockedReason = nil
		return history.NewFeatureUnblocked(now, id)
	})
}

// Remove deletes a feature from the ledger. Its artifacts stay on disk.
func (e *Engine) Remove(id string) error {
	l, err := e.store.Load()
	if err != nil {
		return err
	}
	if err := l.Remove(id); err != nil {
		return err
	}
	if err := e.store.Save(l); err != nil {
		return err
	}
	if err := e.record(history.NewFeatureRemoved(e.now(), id)); err != nil {
		return err
	}
	e.recompute(id, true)
	return nil
}

// mutate applies fn to one feature, bumps updated_at, saves the ledger and
// records the event fn returns.
func (e *Engine) mutate(id string, fn func(f *ledger.Feature, now time.Time) history.Event) (ledger.Feature, error) {
	l, err := e.store.Load()
	if err != nil {
		return ledger.Feature{}, err
	}
	f, err := l.Find(id)
	if err != nil {
		return ledger.Feature{}, err
	}
	now := e.now()
	event := fn(&f, now)
	f.UpdatedAt = now
	if err := l.Replace(f); err != nil {
		return ledger.Feature{}, err
	}
	if err := e.store.Save(l); err != nil {
		return ledger.Feature{}, err
	}
	if event != nil {
		if err := e.record(event); err != nil {
			return f, err
		}
	}
	return f.Clone(), nil
}

func (e *Engine) record(event history.Event) error {
	if err := e.log.Append(event); err != nil {
		return fmt.Errorf("engine: record %s: %w", event.Kind(), err)
	}
	return nil
}

func (e *Engine) recompute(id string, all bool) {
	if e.metrics == nil {
		return
	}
	var err error
	if all {
		err = e.metrics.RecomputeAll()
	} else {
		err = e.metrics.RecomputeFeature(id)
	}
	if err != nil {
		e.logger.Printf("metrics: recompute %s failed: %v", id, err)
	}
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidID)
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsAny(id, " \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
