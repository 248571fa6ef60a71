// Package history is the append-only journal of state-changing facts. Each
// line of the log is one JSON event tagged with an `event` discriminant and a
// `ts` timestamp; derived metrics are rebuilt by replaying it.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JohnFrontzos/nextAI-dev-sub000/internal/workflow"
)

// Kind is the event discriminant written to the `event` field.
type Kind string

const (
	KindFeatureCreated   Kind = "feature_created"
	KindPhaseTransition  Kind = "phase_transition"
	KindValidation       Kind = "validation"
	KindValidationBypass Kind = "validation_bypass"
	KindFeatureCompleted Kind = "feature_completed"
	KindFeatureBlocked   Kind = "feature_blocked"
	KindFeatureUnblocked Kind = "feature_unblocked"
	KindRetryIncremented Kind = "retry_incremented"
	KindRetryReset       Kind = "retry_reset"
	KindFeatureRemoved   Kind = "feature_removed"
	KindRepair           Kind = "repair"
	KindSync             Kind = "sync"
	KindInit             Kind = "init"
)

// Validation outcomes recorded on validation events.
const (
	ResultPassed = "passed"
	ResultFailed = "failed"
)

// Event is implemented by every journal entry.
type Event interface {
	Kind() Kind
	Time() time.Time
	FeatureID() string
}

// Header carries the fields shared by every event.
type Header struct {
	TS    time.Time `json:"ts"`
	Event Kind      `json:"event"`
}

// Kind returns the event discriminant.
func (h Header) Kind() Kind { return h.Event }

// Time returns when the event happened.
func (h Header) Time() time.Time { return h.TS }

func header(kind Kind, at time.Time) Header {
	return Header{TS: at.UTC(), Event: kind}
}

// FeatureCreated records a new ledger entry.
type FeatureCreated struct {
	Header
	Feature string `json:"feature_id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
}

func (e FeatureCreated) FeatureID() string { return e.Feature }

// NewFeatureCreated builds a feature_created event.
func NewFeatureCreated(at time.Time, id, title, featureType string) FeatureCreated {
	return FeatureCreated{Header: header(KindFeatureCreated, at), Feature: id, Title: title, Type: featureType}
}

// PhaseTransition records a phase change applied to the ledger.
type PhaseTransition struct {
	Header
	Feature string         `json:"feature_id"`
	From    workflow.Phase `json:"from"`
	To      workflow.Phase `json:"to"`
}

func (e PhaseTransition) FeatureID() string { return e.Feature }

// NewPhaseTransition builds a phase_transition event.
func NewPhaseTransition(at time.Time, id string, from, to workflow.Phase) PhaseTransition {
	return PhaseTransition{Header: header(KindPhaseTransition, at), Feature: id, From: from, To: to}
}

// Validation records a validator run for a target phase.
type Validation struct {
	Header
	Feature  string         `json:"feature_id"`
	Phase    workflow.Phase `json:"phase"`
	Result   string         `json:"result"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
}

func (e Validation) FeatureID() string { return e.Feature }

// Passed reports whether the validator accepted the transition.
func (e Validation) Passed() bool { return e.Result == ResultPassed }

// NewValidation builds a validation event.
func NewValidation(at time.Time, id string, phase workflow.Phase, passed bool, errs, warnings []string) Validation {
	result := ResultFailed
	if passed {
		result = ResultPassed
	}
	return Validation{Header: header(KindValidation, at), Feature: id, Phase: phase, Result: result, Errors: cloneStrings(errs), Warnings: cloneStrings(warnings)}
}

// ValidationBypass records a forced transition and what it overrode.
type ValidationBypass struct {
	Header
	Feature  string         `json:"feature_id"`
	From     workflow.Phase `json:"from"`
	To       workflow.Phase `json:"to"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
}

func (e ValidationBypass) FeatureID() string { return e.Feature }

// NewValidationBypass builds a validation_bypass event. Nil slices are written
// as empty arrays so the overridden list is always present.
func NewValidationBypass(at time.Time, id string, from, to workflow.Phase, errs, warnings []string) ValidationBypass {
	e := ValidationBypass{Header: header(KindValidationBypass, at), Feature: id, From: from, To: to, Errors: cloneStrings(errs), Warnings: cloneStrings(warnings)}
	if e.Errors == nil {
		e.Errors = []string{}
	}
	if e.Warnings == nil {
		e.Warnings = []string{}
	}
	return e
}

// FeatureCompleted marks the terminal transition of a feature.
type FeatureCompleted struct {
	Header
	Feature string `json:"feature_id"`
}

func (e FeatureCompleted) FeatureID() string { return e.Feature }

// NewFeatureCompleted builds a feature_completed event.
func NewFeatureCompleted(at time.Time, id string) FeatureCompleted {
	return FeatureCompleted{Header: header(KindFeatureCompleted, at), Feature: id}
}

// FeatureBlocked records an operator or policy block.
type FeatureBlocked struct {
	Header
	Feature string `json:"feature_id"`
	Reason  string `json:"reason"`
}

func (e FeatureBlocked) FeatureID() string { return e.Feature }

// NewFeatureBlocked builds a feature_blocked event.
func NewFeatureBlocked(at time.Time, id, reason string) FeatureBlocked {
	return FeatureBlocked{Header: header(KindFeatureBlocked, at), Feature: id, Reason: reason}
}

// FeatureUnblocked records that a block was cleared.
type FeatureUnblocked struct {
	Header
	Feature string `json:"feature_id"`
}

func (e FeatureUnblocked) FeatureID() string { return e.Feature }

// NewFeatureUnblocked builds a feature_unblocked event.
func NewFeatureUnblocked(at time.Time, id string) FeatureUnblocked {
	return FeatureUnblocked{Header: header(KindFeatureUnblocked, at), Feature: id}
}

// RetryIncremented records the retry counter after an increment.
type RetryIncremented struct {
	Header
	Feature string `json:"feature_id"`
	Count   int    `json:"count"`
}

func (e RetryIncremented) FeatureID() string { return e.Feature }

// NewRetryIncremented builds a retry_incremented event.
func NewRetryIncremented(at time.Time, id string, count int) RetryIncremented {
	return RetryIncremented{Header: header(KindRetryIncremented, at), Feature: id, Count: count}
}

// RetryReset records the retry counter returning to zero.
type RetryReset struct {
	Header
	Feature string `json:"feature_id"`
}

func (e RetryReset) FeatureID() string { return e.Feature }

// NewRetryReset builds a retry_reset event.
func NewRetryReset(at time.Time, id string) RetryReset {
	return RetryReset{Header: header(KindRetryReset, at), Feature: id}
}

// FeatureRemoved records an explicit removal from the ledger.
type FeatureRemoved struct {
	Header
	Feature string `json:"feature_id"`
}

func (e FeatureRemoved) FeatureID() string { return e.Feature }

// NewFeatureRemoved builds a feature_removed event.
func NewFeatureRemoved(at time.Time, id string) FeatureRemoved {
	return FeatureRemoved{Header: header(KindFeatureRemoved, at), Feature: id}
}

// Repair records a ledger correction made to match the artifacts on disk.
type Repair struct {
	Header
	Feature string         `json:"feature_id,omitempty"`
	From    workflow.Phase `json:"from,omitempty"`
	To      workflow.Phase `json:"to,omitempty"`
	Detail  string         `json:"detail,omitempty"`
}

func (e Repair) FeatureID() string { return e.Feature }

// NewRepair builds a repair event.
func NewRepair(at time.Time, id string, from, to workflow.Phase, detail string) Repair {
	return Repair{Header: header(KindRepair, at), Feature: id, From: from, To: to, Detail: detail}
}

// Sync records a configuration sync performed by an external collaborator.
type Sync struct {
	Header
	Client string `json:"client"`
	Detail string `json:"detail,omitempty"`
}

func (e Sync) FeatureID() string { return "" }

// NewSync builds a sync event. nextai never syncs client configuration
// itself; this is the constructor for collaborators that do and append to the
// same log.
func NewSync(at time.Time, client, detail string) Sync {
	return Sync{Header: header(KindSync, at), Client: client, Detail: detail}
}

// Init records project initialisation.
type Init struct {
	Header
	Project string `json:"project"`
}

func (e Init) FeatureID() string { return "" }

// NewInit builds an init event.
func NewInit(at time.Time, project string) Init {
	return Init{Header: header(KindInit, at), Project: project}
}

// ErrUnknownKind is returned when a line carries an unrecognised discriminant.
var ErrUnknownKind = errors.New("history: unknown event kind")

// Decode parses one log line into its concrete event type.
func Decode(line []byte) (Event, error) {
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, err
	}
	if h.TS.IsZero() {
		return nil, errors.New("history: event missing ts")
	}
	switch h.Event {
	case KindFeatureCreated:
		return decodeAs[FeatureCreated](line)
	case KindPhaseTransition:
		return decodeAs[PhaseTransition](line)
	case KindValidation:
		return decodeAs[Validation](line)
	case KindValidationBypass:
		return decodeAs[ValidationBypass](line)
	case KindFeatureCompleted:
		return decodeAs[FeatureCompleted](line)
	case KindFeatureBlocked:
		return decodeAs[FeatureBlocked](line)
	case KindFeatureUnblocked:
		return decodeAs[FeatureUnblocked](line)
	case KindRetryIncremented:
		return decodeAs[RetryIncremented](line)
	case KindRetryReset:
		return decodeAs[RetryReset](line)
	case KindFeatureRemoved:
		return decodeAs[FeatureRemoved](line)
	case KindRepair:
		return decodeAs[Repair](line)
	case KindSync:
		return decodeAs[Sync](line)
	case KindInit:
		return decodeAs[Init](line)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, h.Event)
	}
}

func decodeAs[T Event](line []byte) (Event, error) {
	var e T
	if err := json.Unmarshal(line, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// ForFeature returns the events that belong to the given feature, in log order.
func ForFeature(events []Event, id string) []Event {
	var out []Event
	for _, e := range events {
		if e.FeatureID() == id {
			out = append(out, e)
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
