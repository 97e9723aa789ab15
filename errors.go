// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package obsync

import (
	"errors"
	"fmt"

	"vawter.tech/obsync/internal/safe"
)

var (
	// ErrInvalidArgument is returned when a required destination,
	// source, or projector is nil. No state is changed.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfRange indicates that a computed destination or segment
	// index fell outside of the range owned by a source.
	ErrOutOfRange = errors.New("index out of range")

	// ErrReentrant is reported when a notification, attachment, or
	// release arrives while a Synchronizer is already mutating its
	// destination.
	ErrReentrant = errors.New("reentrant synchronization")

	// ErrUnknownKind is reported for a change notification whose kind
	// is not recognized.
	ErrUnknownKind = errors.New("unrecognized change kind")
)

// A RecoveredError will be wrapped by a [SynchronizationError] when a
// projector panics.
type RecoveredError = safe.RecoveredError

// A SynchronizationError indicates that a change could not be
// translated into destination mutations. The attachment that reported
// it should be considered broken: it will refuse further notifications
// and must be released.
type SynchronizationError struct {
	Op    string // The change kind or lifecycle operation.
	Index int    // A destination index, or -1 if not applicable.
	Err   error
}

// Error implements error.
func (e *SynchronizationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("synchronization failed: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("synchronization failed: %s at %d: %v", e.Op, e.Index, e.Err)
}

// Unwrap returns the enclosed error.
func (e *SynchronizationError) Unwrap() error { return e.Err }

func syncErr(op string, index int, err error) error {
	return &SynchronizationError{Op: op, Index: index, Err: err}
}
