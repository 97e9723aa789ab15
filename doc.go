// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package obsync keeps one ordered destination sequence in sync with
// several independently changing source sequences.
//
// A [Synchronizer] lays its sources out end to end, in the order in
// which they were attached. At any point where no change is being
// processed, the destination is exactly the concatenation of every
// attached source's current contents:
//
//	dest := observable.NewList[string]()
//	sync, err := obsync.New[string](dest)
//
//	nums := observable.NewList(1, 2)
//	names := observable.NewList("three")
//	h1, err := obsync.AttachFunc(sync, nums, strconv.Itoa)
//	h2, err := sync.Attach(names)
//	// dest is now [1 2 three]
//
// # Sources and destinations
//
// Any type that implements [Source] may be attached. A Source reports
// each insert, remove, replace, move, or reset as an
// [observable.Change], synchronously, before its mutating method
// returns. The Synchronizer translates the change into the equivalent
// operation on the [Destination], offset by the position of the
// source's segment, and then moves every later segment by however much
// the source grew or shrank. The cost of a change is proportional to
// the number of later sources, not to the size of the destination.
//
// The [observable] sub-package provides [observable.List], which
// implements both interfaces.
//
// # Projection
//
// [AttachFunc] accepts a projector that converts a source's element
// type into the destination's element type. The projector is applied
// when the source is attached and to every inserted or replaced
// element. A projector that panics causes the change to be rejected
// with a [RecoveredError].
//
// # Releasing sources
//
// Attaching a source returns a [Handle]. Calling [Handle.Close]
// unsubscribes from the source and removes its elements from the
// destination before returning. Handles are not released implicitly;
// the [linger] sub-package can report Handles that a test forgot to
// close.
//
// # Errors
//
// Nil arguments are rejected with [ErrInvalidArgument] before any
// state is changed. A change that cannot be applied, e.g. because it
// refers to an index outside the source's segment or has an
// unrecognized kind, is reported as a [SynchronizationError]. The
// destination is left as it was before the change, and the attachment
// refuses all later changes; it is no longer trustworthy and should be
// closed. Other attachments are unaffected. The error is returned from
// the source's mutating method and is available from [Handle.Err].
//
// # Concurrency
//
// A Synchronizer is not safe for concurrent use. Callers must not
// mutate the destination directly while any source is attached.
// Attaching, closing, or delivering a change while the Synchronizer is
// already mutating the destination (e.g. from a destination listener)
// fails with [ErrReentrant].
package obsync
