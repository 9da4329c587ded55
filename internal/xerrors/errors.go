// Package xerrors defines the error taxonomy shared by every layer of the
// storage protocol core: interruption, query-level user errors, internal
// invariant violations, and transient peer failures. Callers use
// errors.Is against the four sentinels; wrapping with %w keeps that working
// no matter how deep the call stack is.
package xerrors

import "errors"

// ErrInterrupted is returned when a blocking operation observes its
// interruptor pulsed before completing.
var ErrInterrupted = errors.New("interrupted")

// ErrUserQuery marks a query-level error surfaced to the client, e.g. an
// empty reduce with no base or a zip on a non-joined stream.
var ErrUserQuery = errors.New("query error")

// ErrInvariant marks an internal contract violation: a precondition failed
// that should have been caught by the caller. Treat as a bug report, not a
// retryable condition.
var ErrInvariant = errors.New("invariant violation")

// ErrTransient marks a recoverable failure such as an unreachable peer or
// an aborted backfill. Higher layers may retry, possibly against a
// different replica.
var ErrTransient = errors.New("transient failure")
