// Package apperr defines the error kinds collaborator failures are converted
// into before they reach ranking logic.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	// ConfigurationMissing means a required credential is absent.
	ConfigurationMissing
	// UpstreamFetchFailed covers network and catalog API errors.
	UpstreamFetchFailed
	// MalformedCachedData means a stored snapshot could not be decoded.
	MalformedCachedData
	// GenerationFailed covers text generation and translation errors.
	GenerationFailed
	// PersistenceFailed covers bookmark save/list/delete errors.
	PersistenceFailed
)

func (k Kind) String() string {
	switch k {
	case ConfigurationMissing:
		return "ConfigurationMissing"
	case UpstreamFetchFailed:
		return "UpstreamFetchFailed"
	case MalformedCachedData:
		return "MalformedCachedData"
	case GenerationFailed:
		return "GenerationFailed"
	case PersistenceFailed:
		return "PersistenceFailed"
	default:
		return "Unknown"
	}
}

// Fatal reports whether the kind ends the request that hit it. Other kinds
// degrade to a notice or a placeholder.
func (k Kind) Fatal() bool {
	return k == ConfigurationMissing || k == UpstreamFetchFailed
}

// Error carries a Kind, the operation that failed and an optional
// remediation hint for the user.
type Error struct {
	Kind Kind
	Op   string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with kind and op.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// WithHint returns a copy of e carrying a remediation hint.
func (e *Error) WithHint(hint string) *Error {
	c := *e
	c.Hint = hint
	return &c
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HintOf returns the remediation hint attached to err, if any.
func HintOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}
