// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package linger contains a utility for reporting on where unreleased
// attachments were originally made.
package linger

import (
	"runtime"
	"sync"
	"sync/atomic"

	"vawter.tech/obsync"
)

// This value is sensitive to the code structure.
const callersOffset = 3

// NewRecorder constructs a [Recorder] that samples the call stack at the
// requested depth. The first few frames belong to the obsync package, so
// a depth of at least 4 is needed to reach the caller of
// [obsync.Synchronizer.Attach] or [obsync.AttachFunc].
func NewRecorder(depth int) *Recorder {
	return &Recorder{depth: depth}
}

// A Recorder can be attached to an [obsync.Synchronizer] to record the
// call stack where each source was attached. It is primarily useful in
// tests, to ensure that every [obsync.Handle] has been closed. A
// Recorder may be shared between Synchronizers.
type Recorder struct {
	counter atomic.Uintptr
	data    sync.Map
	depth   int
}

// Callers returns a snapshot of the caller stacks associated with any
// attachments that have not been released.
func (r *Recorder) Callers() [][]uintptr {
	var ret [][]uintptr
	r.data.Range(func(_, value any) bool {
		ret = append(ret, value.([]uintptr))
		return true
	})
	return ret
}

// Hook is an attach hook for [obsync.WithAttachHook].
func (r *Recorder) Hook() (released func()) {
	pc := make([]uintptr, r.depth)
	pc = pc[:runtime.Callers(callersOffset, pc)]

	id := r.counter.Add(1)
	r.data.Store(id, pc)

	return func() { r.data.Delete(id) }
}

// Option returns an [obsync.Option] that installs the Recorder.
func (r *Recorder) Option() obsync.Option {
	return obsync.WithAttachHook(r.Hook)
}
