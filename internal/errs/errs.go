// Package errs defines the error taxonomy shared across the pipeline so that
// callers can tell retryable conditions from fatal ones with errors.Is/As.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks client errors: unknown analysis id, claim ordinal, or
// question index. Never retried.
var ErrNotFound = errors.New("not found")

// NotFound wraps ErrNotFound with context about what was missing.
func NotFound(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// ConfigError reports a missing or invalid credential or setting. Fatal at
// startup or first use; never retried.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// TransientError reports a network failure, timeout, or rate-limit response
// from an external call. Isolated per provider: the caller proceeds with an
// empty result rather than aborting the request.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for the named operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// ParseError reports backend output that does not match the expected
// semi-structured shape. Retried up to a fixed bound with identical inputs;
// after exhaustion the caller degrades to a heuristic fallback.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %s", e.Field, e.Reason)
}

// IsTransient reports whether err is a transient provider/backend failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsParse reports whether err is a parse failure of generation output.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
