// Package errors provides the error types shared by every layer of the
// indexer. It is a leaf package with no internal dependencies, so both the
// store implementations and the coordinator can import it without causing
// import cycles.
//
// Import graph: errors <- {store, scanner, process, coordinator, ...}
package errors

import (
	"strings"
)

// Kind represents the category of an IndexError.
type Kind int

const (
	// Validation indicates a caller supplied an invalid argument.
	Validation Kind = iota + 1

	// Store indicates the underlying repository failed to read or write.
	Store

	// Parse indicates source text could not be parsed into symbols.
	Parse

	// Index indicates a reindex run failed partway through.
	Index

	// Search indicates a query against the index failed.
	Search

	// Closed indicates an operation was attempted after Close.
	Closed

	// Close indicates one or more resources failed to shut down cleanly.
	Close
)

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	switch k {
	case Validation:
		return "Validation"
	case Store:
		return "Store"
	case Parse:
		return "Parse"
	case Index:
		return "Index"
	case Search:
		return "Search"
	case Closed:
		return "Closed"
	case Close:
		return "Close"
	default:
		return "Unknown"
	}
}

// IndexError is the error type returned by exported indexer functions.
type IndexError struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *IndexError) Unwrap() error {
	return e.Cause
}

// New creates an IndexError without a wrapped cause.
func New(kind Kind, message string) *IndexError {
	return &IndexError{Kind: kind, Message: message}
}

// Wrap creates an IndexError that wraps cause. Returns nil when cause is nil
// so call sites can write `return errors.Wrap(Store, "...", err)` unconditionally.
func Wrap(kind Kind, message string, cause error) *IndexError {
	if cause == nil {
		return nil
	}
	return &IndexError{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an IndexError of the given kind.
func Is(err error, kind Kind) bool {
	ie, ok := err.(*IndexError)
	if !ok {
		return false
	}
	return ie.Kind == kind
}

// CloseError aggregates failures from an ordered shutdown sequence where
// every step should still be attempted even if an earlier one failed.
type CloseError struct {
	Steps []error
}

// Error joins the non-nil step errors with "; ".
func (e *CloseError) Error() string {
	parts := make([]string, 0, len(e.Steps))
	for _, err := range e.Steps {
		if err != nil {
			parts = append(parts, err.Error())
		}
	}
	return "close: " + strings.Join(parts, "; ")
}

// Unwrap exposes each step error to errors.Is/errors.As chains.
func (e *CloseError) Unwrap() []error {
	return e.Steps
}

// OrNil returns nil when none of the steps failed, otherwise a *CloseError
// wrapping only the failures.
func (e *CloseError) OrNil() error {
	for _, err := range e.Steps {
		if err != nil {
			return e
		}
	}
	return nil
}
