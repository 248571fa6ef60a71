// Package ledger defines the persisted collection of features and the store
// that reads and writes it as a single document.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

var (
	// ErrFeatureNotFound is returned when no feature carries the requested id.
	ErrFeatureNotFound = errors.New("ledger: feature not found")
	// ErrFeatureExists is returned when adding a feature whose id is taken.
	ErrFeatureExists = errors.New("ledger: feature already exists")
	// ErrInvalidType is returned for feature types outside feature/bug/task.
	ErrInvalidType = errors.New("ledger: invalid feature type")
)

// Type classifies the unit of work; some validators depend on it.
type Type string

const (
	TypeFeature Type = "feature"
	TypeBug     Type = "bug"
	TypeTask    Type = "task"
)

// ParseType converts user input into a Type. Empty input defaults to feature.
func ParseType(value string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(value)))
	if t == "" {
		return TypeFeature, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, value)
	}
	return t, nil
}

// Valid reports whether the type is one of the known kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeFeature, TypeBug, TypeTask:
		return true
	default:
		return false
	}
}

// Feature is one workflow instance.
type Feature struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Type          Type           `json:"type"`
	ExternalID    string         `json:"external_id,omitempty"`
	Phase         workflow.Phase `json:"phase"`
	BlockedReason *string        `json:"blocked_reason"`
	RetryCount    int            `json:"retry_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// IsBlocked reports whether the feature needs operator intervention.
func (f Feature) IsBlocked() bool {
	return f.BlockedReason != nil
}

// Blocked returns the block reason or an empty string.
func (f Feature) Blocked() string {
	if f.BlockedReason == nil {
		return ""
	}
	return *f.BlockedReason
}

// Clone returns a copy that shares no pointers with f.
func (f Feature) Clone() Feature {
	out := f
	if f.BlockedReason != nil {
		reason := *f.BlockedReason
		out.BlockedReason = &reason
	}
	return out
}

// Ledger is the exclusive owner of all features. Order is insertion order.
type Ledger struct {
	Features []Feature `json:"features"`
}

// Index returns the position of the feature with the given id, or -1.
func (l *Ledger) Index(id string) int {
	for i := range l.Features {
		if l.Features[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the feature with the given id.
func (l *Ledger) Find(id string) (Feature, error) {
	idx := l.Index(id)
	if idx < 0 {
		return Feature{}, fmt.Errorf("%w: %s", ErrFeatureNotFound, id)
	}
	return l.Features[idx].Clone(), nil
}

// Add appends a feature, rejecting duplicate ids.
func (l *Ledger) Add(f Feature) error {
	if l.Index(f.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrFeatureExists, f.ID)
	}
	l.Features = append(l.Features, f)
	return nil
}

// Replace overwrites the stored feature that carries f.ID.
func (l *Ledger) Replace(f Feature) error {
	idx := l.Index(f.ID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrFeatureNotFound, f.ID)
	}
	l.Features[idx] = f
	return nil
}

// Remove deletes the feature with the given id, keeping the order of the rest.
func (l *Ledger) Remove(id string) error {
	idx := l.Index(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrFeatureNotFound, id)
	}
	l.Features = append(l.Features[:idx], l.Features[idx+1:]...)
	return nil
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := Ledger{Features: make([]Feature, len(l.Features))}
	for i, f := range l.Features {
		out.Features[i] = f.Clone()
	}
	return out
}

// Validate checks every schema constraint and reports all violations at once.
func (l Ledger) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(l.Features))
	for i, f := range l.Features {
		if strings.TrimSpace(f.ID) == "" {
			errs = append(errs, fmt.Errorf("features[%d].id is required", i))
		} else {
			if _, dup := seen[f.ID]; dup {
				errs = append(errs, fmt.Errorf("features[%d].id duplicates %q", i, f.ID))
			}
			seen[f.ID] = struct{}{}
		}
		if !f.Phase.Valid() {
			errs = append(errs, fmt.Errorf("features[%d].phase %q is not a known phase", i, f.Phase))
		}
		if !f.Type.Valid() {
			errs = append(errs, fmt.Errorf("features[%d].type %q must be feature, bug or task", i, f.Type))
		}
		if f.RetryCount < 0 {
			errs = append(errs, fmt.Errorf("features[%d].retry_count must be >= 0", i))
		}
		if f.CreatedAt.IsZero() {
			errs = append(errs, fmt.Errorf("features[%d].created_at is required", i))
		}
		if f.UpdatedAt.IsZero() {
			errs = append(errs, fmt.Errorf("features[%d].updated_at is required", i))
		}
	}
	return errors.Join(errs...)
}
