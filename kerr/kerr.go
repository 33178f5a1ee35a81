// Package kerr defines the error taxonomy shared by every core package.
//
// Every fallible core operation returns one of these kinds wrapped around
// the underlying cause, so a handler boundary can map Kind to an HTTP
// status without inspecting error strings.
package kerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of response mapping.
type Kind string

const (
	ClientInput  Kind = "client_input"
	Precondition Kind = "precondition"
	Auth         Kind = "auth"
	NotFound     Kind = "not_found"
	Invariant    Kind = "invariant"
	Internal     Kind = "internal"
)

// Error is a kind-tagged error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a kind-tagged error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags err with kind, preserving it as the unwrap chain's cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

// KindOf extracts the Kind from err, defaulting to Internal when err does
// not carry one (e.g. it escaped a lower layer unwrapped).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
