package core

import (
	"errors"
	"fmt"
)

// ErrorKind partitions engine failures into the four caller-visible classes.
type ErrorKind string

const (
	// KindInvalidInput: the request was rejected before any state mutation
	// (empty message, unknown explicit specialist override).
	KindInvalidInput ErrorKind = "invalid_input"
	// KindClassifierUnavailable: provider/network failure during routing.
	// The conversation state was not advanced.
	KindClassifierUnavailable ErrorKind = "classifier_unavailable"
	// KindExecutorFailure: a configuration-class specialist error that could
	// not be degraded into a transcript message.
	KindExecutorFailure ErrorKind = "executor_failure"
	// KindStoreUnavailable: persistence failed; the state was not saved and
	// the caller should retry the whole call.
	KindStoreUnavailable ErrorKind = "store_unavailable"
)

// Phase names the graph state at which a propagated error occurred.
type Phase string

const (
	PhaseClassifying Phase = "CLASSIFYING"
	PhaseExecuting   Phase = "EXECUTING"
)

// Error is the typed failure propagated across the orchestration boundary.
// It always carries the conversation id and, where applicable, the graph
// phase for observability.
type Error struct {
	Kind           ErrorKind
	Phase          Phase
	ConversationID string
	Err            error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Phase != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Phase)
	}
	if e.ConversationID != "" {
		msg = fmt.Sprintf("%s (conversation %s)", msg, e.ConversationID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// NewError constructs a typed engine error.
func NewError(kind ErrorKind, phase Phase, conversationID string, err error) *Error {
	return &Error{Kind: kind, Phase: phase, ConversationID: conversationID, Err: err}
}

// NewInvalidInput constructs a KindInvalidInput error with a formatted cause.
func NewInvalidInput(conversationID, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, ConversationID: conversationID, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the error kind of err, or "" for untyped errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool { return KindOf(err) == kind }

// ConfigError marks configuration-class specialist failures (missing model,
// missing required capability). Unlike ordinary execution failures, which are
// degraded into a transcript message, configuration errors propagate: the
// deployment is broken and an apologetic reply would hide that.
type ConfigError struct {
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string { return "configuration error: " + e.Reason }

// NewConfigError constructs a ConfigError with a formatted reason.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is configuration-class.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
