// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package obsync

import (
	"fmt"

	"vawter.tech/obsync/internal/segment"
)

// A Handle represents one attached source. It is returned by
// [Synchronizer.Attach] and [AttachFunc] and must be closed to stop
// synchronizing the source.
type Handle struct {
	closed   bool
	err      error
	id       int
	name     string
	release  func() error
	released func() // From the attach hook; may be nil.
	seg      *segment.Segment
}

// Close unsubscribes from the source, removes the source's elements
// from the destination, and moves later sources' elements down. It is
// safe to call Close more than once; later calls return nil.
//
// The source is always unsubscribed and forgotten, even if an error is
// returned. The only exception is an [ErrReentrant] failure, which
// leaves the Handle open so that it may be closed later.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	return h.release()
}

// Err returns the [SynchronizationError] that stopped this source from
// being synchronized, or nil.
func (h *Handle) Err() error { return h.err }

// Len returns the number of destination elements currently contributed
// by the source. It returns zero once the Handle has been released.
func (h *Handle) Len() int {
	if !h.seg.Registered() {
		return 0
	}
	return h.seg.Len()
}

// Start returns the destination index of the source's first element.
// The value changes as earlier sources grow, shrink, or are released.
func (h *Handle) Start() int { return h.seg.Start() }

// String is for debugging use only.
func (h *Handle) String() string {
	state := "live"
	switch {
	case h.closed:
		state = "closed"
	case h.err != nil:
		state = "failed"
	}
	return fmt.Sprintf("%s#%d %s (%s)", h.name, h.id, h.seg, state)
}
