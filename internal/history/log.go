package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const maxLineSize = 1 << 20

// Appender is the write side of the journal.
type Appender interface {
	Append(Event) error
}

// Reader is the read side of the journal.
type Reader interface {
	ReadAll() ([]Event, error)
}

// CorruptLineError reports a line that could not be decoded.
type CorruptLineError struct {
	Line int
	Err  error
}

func (e *CorruptLineError) Error() string {
	return fmt.Sprintf("history: line %d: %v", e.Line, e.Err)
}

func (e *CorruptLineError) Unwrap() error {
	return e.Err
}

// ReadOption tunes how the log is read.
type ReadOption func(*readConfig)

type readConfig struct {
	skip func(*CorruptLineError)
}

// WithSkipMalformed makes Read continue past undecodable lines, reporting each
// one to fn. A nil fn drops them silently.
func WithSkipMalformed(fn func(*CorruptLineError)) ReadOption {
	return func(c *readConfig) {
		if fn == nil {
			fn = func(*CorruptLineError) {}
		}
		c.skip = fn
	}
}

// Log persists events as newline-delimited JSON.
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates a log that writes to the provided path.
func New(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Log{path: path}, nil
}

// Path returns the file backing this log.
func (l *Log) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes one event as a single line. Existing lines are never touched.
func (l *Log) Append(e Event) error {
	if e == nil {
		return errors.New("history: nil event")
	}
	if e.Time().IsZero() || e.Kind() == "" {
		return fmt.Errorf("history: %T is missing ts or event", e)
	}
	encoded, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", e.Kind(), err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("history: open %s: %w", l.path, err)
	}
	if _, err := file.Write(append(encoded, '\n')); err != nil {
		_ = file.Close()
		return fmt.Errorf("history: append %s: %w", l.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("history: close %s: %w", l.path, err)
	}
	return nil
}

// ReadAll decodes every event in file order. The first malformed line aborts
// the read with a *CorruptLineError.
func (l *Log) ReadAll() ([]Event, error) {
	return l.Read()
}

// Read decodes the log with the given options. A missing file is an empty log.
func (l *Log) Read(opts ...ReadOption) ([]Event, error) {
	var cfg readConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: open %s: %w", l.path, err)
	}
	defer file.Close()
	return decodeStream(file, cfg)
}

func decodeStream(r io.Reader, cfg readConfig) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		event, err := Decode(raw)
		if err != nil {
			corrupt := &CorruptLineError{Line: line, Err: err}
			if cfg.skip == nil {
				return nil, corrupt
			}
			cfg.skip(corrupt)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("history: scan: %w", err)
	}
	return events, nil
}

// Tail returns up to maxLines of the most recent raw log lines.
func (l *Log) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

// Memory is an in-process journal. Useful for tests.
type Memory struct {
	mu     sync.Mutex
	events []Event
	fail   error
}

// NewMemory returns an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records e unless a failure has been injected.
func (m *Memory) Append(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.events = append(m.events, e)
	return nil
}

// ReadAll returns a copy of the recorded events.
func (m *Memory) ReadAll() ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

// FailWith makes subsequent appends return err. Pass nil to clear.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Kinds returns the discriminants of the recorded events in order.
func (m *Memory) Kinds() []Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Kind, len(m.events))
	for i, e := range m.events {
		out[i] = e.Kind()
	}
	return out
}
