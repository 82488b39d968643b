package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a source failed.
type ErrorKind string

const (
	KindUnreachable        ErrorKind = "unreachable"
	KindTimeout            ErrorKind = "timeout"
	KindServerError        ErrorKind = "server_error"
	KindClientError        ErrorKind = "client_error"
	KindUnparseable        ErrorKind = "unparseable"
	KindUnresolvedStrategy ErrorKind = "unresolved_strategy"
	KindInvalidRecord      ErrorKind = "invalid_record"
)

// Retryable reports whether another attempt can possibly succeed.
// Network-level failures are transient; malformed responses, client
// errors, and configuration errors are not.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindUnreachable, KindTimeout, KindServerError:
		return true
	}
	return false
}

// SourceError records the terminal failure of one source in one run.
type SourceError struct {
	SourceKey  string
	SourceName string
	Kind       ErrorKind
	Message    string
	Attempt    int
	Retryable  bool
}

func (e SourceError) String() string {
	return fmt.Sprintf("%s: %s (%s)", e.SourceName, e.Message, e.Kind)
}

// UserMessage is the renderer-facing summary of a failed source.
func (e SourceError) UserMessage() string {
	return fmt.Sprintf("Failed to fetch information for venue: %s", e.SourceName)
}

// kindError carries an ErrorKind through an error chain so strategies
// can pin the classification of a failure they understand.
type kindError struct {
	kind ErrorKind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// Tag wraps err with an explicit failure kind.
func Tag(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Tagf is Tag over a formatted error.
func Tagf(kind ErrorKind, format string, args ...any) error {
	return &kindError{kind: kind, err: fmt.Errorf(format, args...)}
}

// KindOf extracts a tagged kind from err. ok is false when no kind was
// pinned anywhere in the chain.
func KindOf(err error) (ErrorKind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return "", false
}
