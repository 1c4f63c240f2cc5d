package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrParse indicates an artifact file could not be turned into a record.
	ErrParse = errors.New("parse failed")

	// ErrWatchSetup indicates a root directory could not be watched.
	ErrWatchSetup = errors.New("watch setup failed")

	// ErrQuery indicates structurally invalid query criteria.
	ErrQuery = errors.New("invalid query")

	// ErrCacheClosed indicates the cache has been shut down.
	ErrCacheClosed = errors.New("cache closed")

	// ErrNoRoots indicates the cache was started without any root directory.
	ErrNoRoots = errors.New("no root directories configured")
)

// ParseReason classifies why an artifact failed to parse.
type ParseReason string

const (
	// ReasonMalformedDocument means the bytes are not a well-formed document.
	ReasonMalformedDocument ParseReason = "malformed-document"

	// ReasonMissingIdentity means the identity field is absent, empty or not a string.
	ReasonMissingIdentity ParseReason = "missing-identity"
)

// ParseError reports a file that does not yield an artifact record.
type ParseError struct {
	Reason ParseReason
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("parse artifact: %s", e.Reason)
	}
	return fmt.Sprintf("parse artifact: %s: %s", e.Reason, e.Detail)
}

// Unwrap lets errors.Is match ErrParse.
func (e *ParseError) Unwrap() error { return ErrParse }

// WatchSetupError reports a root that could not be watched.
type WatchSetupError struct {
	Root string
	Err  error
}

func (e *WatchSetupError) Error() string {
	return fmt.Sprintf("watch %s: %v", e.Root, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *WatchSetupError) Unwrap() []error { return []error{ErrWatchSetup, e.Err} }

// QueryError reports criteria that cannot be evaluated.
type QueryError struct {
	Field  string
	Reason string
}

func (e *QueryError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid query: %s", e.Reason)
	}
	return fmt.Sprintf("invalid query: field %q: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrQuery.
func (e *QueryError) Unwrap() error { return ErrQuery }

// StartupError is returned when no requested root could be watched.
type StartupError struct {
	Failures []*WatchSetupError
}

func (e *StartupError) Error() string {
	if len(e.Failures) == 0 {
		return "start cache: no root could be watched"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return "start cache: no root could be watched: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-root failures.
func (e *StartupError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}
