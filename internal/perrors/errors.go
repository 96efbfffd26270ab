// Package perrors implements the kind-based structured error taxonomy:
// DocumentError, GraphError, AgentError, SessionError, QueryError, and
// ConfigError. All subsystems share one Go error type, *Error, tagged with
// a Subsystem and a Kind, so callers can branch with errors.Is/errors.As
// (or Matches) instead of string matching, the idiomatic Go translation
// of the original enum-of-kinds.
package perrors

import (
	"errors"
	"fmt"
)

// Subsystem tags which taxonomy a Kind belongs to, purely for Error()
// rendering.
type Subsystem string

const (
	SubsystemDocument Subsystem = "document"
	SubsystemGraph    Subsystem = "graph"
	SubsystemAgent    Subsystem = "agent"
	SubsystemSession  Subsystem = "session"
	SubsystemQuery    Subsystem = "query"
	SubsystemConfig   Subsystem = "config"
)

// Kind is a subsystem-scoped error kind, e.g. GraphNodeNotFound.
type Kind string

const (
	DocumentNotFound       Kind = "not_found"
	DocumentAlreadyDigested Kind = "already_digested"
	DocumentEmptyContent   Kind = "empty_content"
	DocumentInvalidFormat  Kind = "invalid_format"

	GraphNodeNotFound   Kind = "node_not_found"
	GraphEdgeNotFound   Kind = "edge_not_found"
	GraphDuplicateNode  Kind = "duplicate_node"
	GraphInvalidWeight  Kind = "invalid_weight"
	GraphEmpty          Kind = "empty_graph"

	AgentNotFound      Kind = "not_found"
	AgentAlreadyExists Kind = "already_exists"
	AgentBusy          Kind = "busy"
	AgentDead          Kind = "dead"
	AgentInvalidAction Kind = "invalid_action"

	SessionNotFound        Kind = "not_found"
	SessionCorrupt         Kind = "corrupt"
	SessionVersionMismatch Kind = "version_mismatch"
	SessionSaveFailed      Kind = "save_failed"
	SessionLoadFailed      Kind = "load_failed"

	QueryEmpty           Kind = "empty_query"
	QueryNoResults       Kind = "no_results"
	QueryInvalidParams   Kind = "invalid_parameters"
	QueryTimeout         Kind = "timeout"

	ConfigInvalidValue  Kind = "invalid_value"
	ConfigMissingField  Kind = "missing_field"
	ConfigOutOfRange    Kind = "out_of_range"
)

// Error is the single structured error value for every subsystem. Field
// meanings vary by kind: Subject/Found/Reason are populated for
// ConfigInvalidValue; Subject/Found/Min/Max for ConfigOutOfRange;
// Expected/Found for SessionVersionMismatch.
type Error struct {
	Subsystem Subsystem
	Kind      Kind
	Subject   string // e.g. a node id, document id, or field name
	Reason    string
	Expected  string
	Found     string
	Min       string
	Max       string
	Wrapped   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Subsystem, e.Kind)
	if e.Subject != "" {
		msg += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Kind == SessionVersionMismatch {
		msg += fmt.Sprintf(" expected %s, found %s", e.Expected, e.Found)
	}
	if e.Kind == ConfigOutOfRange {
		msg += fmt.Sprintf(" (must be within [%s, %s])", e.Min, e.Max)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is makes errors.Is(err, target) match when target is an *Error with the
// same Subsystem and Kind; the other fields are ignored. Matches below
// checks a subsystem and kind without constructing a target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Subsystem == t.Subsystem && e.Kind == t.Kind
}

// Matches reports whether err is a *Error of the given subsystem and kind.
func Matches(err error, subsystem Subsystem, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Subsystem == subsystem && e.Kind == kind
}

// --- Convenience constructors, mirroring the original's document_not_found,
// node_not_found, agent_not_found, empty_query, invalid_config helpers. ---

func DocumentNotFoundErr(id string) error {
	return &Error{Subsystem: SubsystemDocument, Kind: DocumentNotFound, Subject: id}
}

func DocumentAlreadyDigestedErr(id string) error {
	return &Error{Subsystem: SubsystemDocument, Kind: DocumentAlreadyDigested, Subject: id}
}

func NodeNotFoundErr(id string) error {
	return &Error{Subsystem: SubsystemGraph, Kind: GraphNodeNotFound, Subject: id}
}

func EdgeNotFoundErr(from, to string) error {
	return &Error{Subsystem: SubsystemGraph, Kind: GraphEdgeNotFound, Subject: from + "<->" + to}
}

func AgentNotFoundErr(id string) error {
	return &Error{Subsystem: SubsystemAgent, Kind: AgentNotFound, Subject: id}
}

func EmptyQueryErr() error {
	return &Error{Subsystem: SubsystemQuery, Kind: QueryEmpty}
}

func InvalidQueryParamsErr(reason string) error {
	return &Error{Subsystem: SubsystemQuery, Kind: QueryInvalidParams, Reason: reason}
}

func QueryNoResultsErr() error {
	return &Error{Subsystem: SubsystemQuery, Kind: QueryNoResults}
}

func InvalidConfigErr(field, value, reason string) error {
	return &Error{Subsystem: SubsystemConfig, Kind: ConfigInvalidValue, Subject: field, Found: value, Reason: reason}
}

func OutOfRangeErr(field string, value, min, max float64) error {
	return &Error{
		Subsystem: SubsystemConfig,
		Kind:      ConfigOutOfRange,
		Subject:   field,
		Found:     fmt.Sprintf("%g", value),
		Min:       fmt.Sprintf("%g", min),
		Max:       fmt.Sprintf("%g", max),
	}
}

func VersionMismatchErr(expected, found string) error {
	return &Error{Subsystem: SubsystemSession, Kind: SessionVersionMismatch, Expected: expected, Found: found}
}

func SessionCorruptErr(reason string) error {
	return &Error{Subsystem: SubsystemSession, Kind: SessionCorrupt, Reason: reason}
}

func wrap(subsystem Subsystem, kind Kind, subject string, cause error) error {
	return &Error{Subsystem: subsystem, Kind: kind, Subject: subject, Wrapped: cause}
}

// WrapSaveFailed wraps a lower-level I/O error as a SessionSaveFailed.
func WrapSaveFailed(path string, cause error) error {
	return wrap(SubsystemSession, SessionSaveFailed, path, cause)
}

// WrapLoadFailed wraps a lower-level I/O error as a SessionLoadFailed.
func WrapLoadFailed(path string, cause error) error {
	return wrap(SubsystemSession, SessionLoadFailed, path, cause)
}

// ErrEmptyCorpus is a bare sentinel for the one truly parameter-free case:
// no example repo's pattern fits better than a plain sentinel here.
var ErrEmptyCorpus = errors.New("substrate: corpus is empty")
