// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package safe contains utilities for executing user-provided
// projection functions.
package safe

import (
	"fmt"
	"iter"
	"runtime"
	"strings"
)

const captureDepth = 32

// A RecoveredError associates an error with a stack trace.
type RecoveredError struct {
	Err   error
	Stack []uintptr
}

// Error implements error.
func (e *RecoveredError) Error() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "recovered: %v\n", e.Err)
	frames := runtime.CallersFrames(e.Stack)
	for {
		frame, more := frames.Next()
		_, _ = fmt.Fprintf(&sb, "%s ( %s:%d )\n", frame.Function, frame.File, frame.Line)

		if !more {
			return sb.String()
		}
	}
}

// String is for debugging use only.
func (e *RecoveredError) String() string {
	return e.Error()
}

// Unwrap return the enclosed error.
func (e *RecoveredError) Unwrap() error { return e.Err }

// Project applies fn to every item, in order. If fn panics, no partial
// result is returned and the panic is reported as a [RecoveredError].
func Project[S, T any](items []S, fn func(S) T) ([]T, error) {
	return ProjectSeq(func(yield func(S) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}, len(items), fn)
}

// ProjectSeq is a version of [Project] that consumes a sequence. The
// sizeHint is used to preallocate the result.
func ProjectSeq[S, T any](items iter.Seq[S], sizeHint int, fn func(S) T) (ret []T, err error) {
	defer func() {
		var cause error
		switch r := recover().(type) {
		case nil:
			return
		case error:
			cause = r
		default:
			cause = fmt.Errorf("panic: %v", r)
		}
		stack := make([]uintptr, captureDepth)
		stack = stack[:runtime.Callers(2, stack)]
		ret = nil
		err = &RecoveredError{
			Err:   cause,
			Stack: stack,
		}
	}()
	ret = make([]T, 0, max(sizeHint, 0))
	for item := range items {
		ret = append(ret, fn(item))
	}
	return ret, nil
}
