package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// RecoveryHint is attached to every corrupt-ledger error.
const RecoveryHint = "restore .nextai/state/ledger.json from version control or run `nextai doctor`"

// Store persists the ledger as a whole document. Every mutation is a full
// read-modify-write; there are no partial updates.
type Store interface {
	Load() (Ledger, error)
	Save(Ledger) error
}

// CorruptError reports a ledger file that exists but cannot be trusted.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("ledger: %s is invalid: %v (%s)", e.Path, e.Err, RecoveryHint)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// FileStore stores the ledger as JSON at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file backing this store.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and schema-validates the ledger. A missing file is an empty ledger.
func (s *FileStore) Load() (Ledger, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Ledger{Features: []Feature{}}, nil
		}
		return Ledger{}, fmt.Errorf("ledger: read %s: %w", s.path, err)
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return Ledger{}, &CorruptError{Path: s.path, Err: err}
	}
	if l.Features == nil {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil || raw["features"] == nil {
			return Ledger{}, &CorruptError{Path: s.path, Err: errors.New(`missing "features" array`)}
		}
		l.Features = []Feature{}
	}
	if err := l.Validate(); err != nil {
		return Ledger{}, &CorruptError{Path: s.path, Err: err}
	}
	return l, nil
}

// Save validates and writes the ledger through a temp file and rename.
func (s *FileStore) Save(l Ledger) error {
	if l.Features == nil {
		l.Features = []Feature{}
	}
	if err := l.Validate(); err != nil {
		return fmt.Errorf("ledger: refusing to save invalid ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ledger: ensure state dir: %w", err)
	}
	encoded, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("ledger: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ledger: replace %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore keeps the ledger in memory. Useful for tests.
type MemoryStore struct {
	mu     sync.Mutex
	ledger Ledger
	saves  int
}

// NewMemoryStore returns a store seeded with the given features.
func NewMemoryStore(features ...Feature) *MemoryStore {
	l := Ledger{Features: []Feature{}}
	l.Features = append(l.Features, features...)
	return &MemoryStore{ledger: l}
}

// Load returns a copy of the stored ledger.
func (m *MemoryStore) Load() (Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.Clone(), nil
}

// Save replaces the stored ledger with a copy of l.
func (m *MemoryStore) Save(l Ledger) error {
	if err := l.Validate(); err != nil {
		return fmt.Errorf("ledger: refusing to save invalid ledger: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledger = l.Clone()
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
