// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package obsync

import (
	"errors"
	"fmt"
	"iter"

	"github.com/rs/zerolog"
	"vawter.tech/obsync/internal/safe"
	"vawter.tech/obsync/internal/segment"
	"vawter.tech/obsync/observable"
)

// A Destination is the ordered sequence that a [Synchronizer] keeps in
// sync with its sources. A non-nil error from a mutation is treated as
// fatal for the attachment that requested it. *[observable.List]
// implements Destination.
type Destination[T any] interface {
	Len() int
	Insert(index int, items ...T) error
	MoveRange(oldIndex, newIndex, count int) error
	RemoveRange(index, count int) error
	Replace(index int, items ...T) error
}

// A Source is an ordered sequence that reports its changes
// synchronously. *[observable.List] implements Source.
type Source[S any] interface {
	Len() int
	Subscribe(fn observable.Listener[S]) (cancel func())
	Values() iter.Seq[S]
}

// A Synchronizer maintains a destination sequence as the concatenation,
// in attachment order, of the projected contents of every attached
// source.
//
// Once a source has been attached, the destination must only be
// mutated by the Synchronizer. A Synchronizer is not safe for
// concurrent use; all notifications are processed synchronously, in
// the call that mutated the source.
type Synchronizer[T any] struct {
	busy   bool // Set while the destination is being mutated.
	cfg    *config
	dest   Destination[T]
	nextID int
	reg    segment.Registry
}

// New constructs a Synchronizer that will manage the destination. An
// error matching [ErrInvalidArgument] is returned if the destination
// is nil.
func New[T any](dest Destination[T], opts ...Option) (*Synchronizer[T], error) {
	if dest == nil {
		return nil, fmt.Errorf("nil destination: %w", ErrInvalidArgument)
	}
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.Sanitize()
	return &Synchronizer[T]{cfg: cfg, dest: dest}, nil
}

// Attach appends the contents of the source to the destination and
// keeps them synchronized until the returned [Handle] is closed.
func (s *Synchronizer[T]) Attach(src Source[T]) (*Handle, error) {
	return attach(s, src, func(v T) T { return v })
}

// AttachFunc is a version of [Synchronizer.Attach] for sources whose
// elements must be projected into the destination's element type. The
// projector is applied to every element when it is attached, inserted,
// or replaced.
func AttachFunc[S, T any](s *Synchronizer[T], src Source[S], project func(S) T) (*Handle, error) {
	return attach(s, src, project)
}

// Count returns the number of live attachments.
func (s *Synchronizer[T]) Count() int { return s.reg.Count() }

// Len returns the number of destination elements contributed by all
// live attachments.
func (s *Synchronizer[T]) Len() int { return s.reg.Len() }

// String is for debugging use only.
func (s *Synchronizer[T]) String() string {
	return fmt.Sprintf("%s: (%d sources) (%d elements)", s.cfg.name, s.reg.Count(), s.reg.Len())
}

// attach must be called directly from Attach or AttachFunc so that the
// attach hook sees a stable call depth.
func attach[S, T any](s *Synchronizer[T], src Source[S], project func(S) T) (*Handle, error) {
	switch {
	case s == nil:
		return nil, fmt.Errorf("nil synchronizer: %w", ErrInvalidArgument)
	case src == nil:
		return nil, fmt.Errorf("nil source: %w", ErrInvalidArgument)
	case project == nil:
		return nil, fmt.Errorf("nil projector: %w", ErrInvalidArgument)
	case s.busy:
		return nil, syncErr("attach", -1, ErrReentrant)
	}

	start := s.reg.Len()
	if start > s.dest.Len() {
		return nil, syncErr("attach", start, ErrOutOfRange)
	}
	items, err := safe.ProjectSeq(src.Values(), src.Len(), project)
	if err != nil {
		return nil, syncErr("attach", start, err)
	}

	s.busy = true
	defer func() { s.busy = false }()

	before := s.dest.Len()
	if err := s.dest.Insert(start, items...); err != nil {
		// Undo whatever the destination may have applied.
		if grown := s.dest.Len() - before; grown > 0 {
			if rbErr := s.dest.RemoveRange(start, grown); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
		return nil, syncErr("attach", start, err)
	}
	seg, err := s.reg.Append(len(items))
	if err != nil {
		return nil, syncErr("attach", start, err)
	}

	s.nextID++
	h := &Handle{
		id:   s.nextID,
		name: s.cfg.name,
		seg:  seg,
	}
	b := &binding[S, T]{
		handle:  h,
		project: project,
		src:     src,
		sync:    s,
	}
	h.release = b.release
	b.cancel = src.Subscribe(b.notify)
	if hook := s.cfg.attachHook; hook != nil {
		h.released = hook()
	}

	s.cfg.logger.Debug().
		Int("attachment", h.id).
		Int("start", seg.Start()).
		Int("len", seg.Len()).
		Msg("attached")
	return h, nil
}

// binding connects one source to the Synchronizer.
type binding[S, T any] struct {
	cancel  func()
	handle  *Handle
	project func(S) T
	src     Source[S]
	sync    *Synchronizer[T]
}

// notify is the [observable.Listener] subscribed to the source.
func (b *binding[S, T]) notify(ch observable.Change[S]) error {
	h := b.handle
	if h.err != nil {
		return h.err
	}
	if h.closed {
		return nil
	}
	s := b.sync
	var err error
	if s.busy {
		err = syncErr(ch.Kind.String(), -1, ErrReentrant)
	} else {
		err = func() error {
			s.busy = true
			defer func() { s.busy = false }()
			return b.apply(ch)
		}()
	}
	if err != nil {
		h.err = err
		s.cfg.logger.Error().
			Err(err).
			Int("attachment", h.id).
			Stringer("change", ch).
			Msg("synchronization failed")
	}
	return err
}

// apply translates one change into destination mutations. All indices
// are validated and all projections are computed before the
// destination is touched.
func (b *binding[S, T]) apply(ch observable.Change[S]) error {
	s := b.sync
	seg := b.handle.seg
	start, length := seg.Start(), seg.Len()
	op := ch.Kind.String()

	if seg.End() > s.dest.Len() {
		return syncErr(op, seg.End(), ErrOutOfRange)
	}
	// inRange reports whether [idx, idx+n) lies within a segment of
	// the given size.
	inRange := func(idx, n, size int) bool {
		return idx >= 0 && n >= 0 && idx+n <= size
	}

	switch ch.Kind {
	case observable.Insert:
		if !inRange(ch.NewIndex, 0, length) {
			return syncErr(op, start+ch.NewIndex, ErrOutOfRange)
		}
		items, err := safe.Project(ch.NewItems, b.project)
		if err != nil {
			return syncErr(op, start+ch.NewIndex, err)
		}
		return b.mutate(op, start+ch.NewIndex, func() error {
			return s.dest.Insert(start+ch.NewIndex, items...)
		})

	case observable.Remove:
		n := len(ch.OldItems)
		if !inRange(ch.OldIndex, n, length) {
			return syncErr(op, start+ch.OldIndex, ErrOutOfRange)
		}
		return b.mutate(op, start+ch.OldIndex, func() error {
			return s.dest.RemoveRange(start+ch.OldIndex, n)
		})

	case observable.Replace:
		if !inRange(ch.NewIndex, len(ch.NewItems), length) {
			return syncErr(op, start+ch.NewIndex, ErrOutOfRange)
		}
		items, err := safe.Project(ch.NewItems, b.project)
		if err != nil {
			return syncErr(op, start+ch.NewIndex, err)
		}
		return b.mutate(op, start+ch.NewIndex, func() error {
			return s.dest.Replace(start+ch.NewIndex, items...)
		})

	case observable.Move:
		// NewIndex is the final position of the first moved element,
		// so the same arithmetic holds in either direction.
		n := len(ch.OldItems)
		if !inRange(ch.OldIndex, n, length) {
			return syncErr(op, start+ch.OldIndex, ErrOutOfRange)
		}
		if !inRange(ch.NewIndex, n, length) {
			return syncErr(op, start+ch.NewIndex, ErrOutOfRange)
		}
		return b.mutate(op, start+ch.NewIndex, func() error {
			return s.dest.MoveRange(start+ch.OldIndex, start+ch.NewIndex, n)
		})

	case observable.Reset:
		items, err := safe.ProjectSeq(b.src.Values(), b.src.Len(), b.project)
		if err != nil {
			return syncErr(op, start, err)
		}
		if err := b.mutate(op, start, func() error {
			return s.dest.RemoveRange(start, length)
		}); err != nil {
			return err
		}
		return b.mutate(op, start, func() error {
			return s.dest.Insert(start, items...)
		})

	default:
		return syncErr(op, -1, ErrUnknownKind)
	}
}

// mutate invokes fn and resizes the segment by however much the
// destination actually grew or shrank, so that the registry tracks the
// destination even when fn fails part-way.
func (b *binding[S, T]) mutate(op string, index int, fn func() error) error {
	s := b.sync
	before := s.dest.Len()
	err := fn()
	if delta := s.dest.Len() - before; delta != 0 {
		if shiftErr := s.reg.Shift(b.handle.seg, delta); shiftErr != nil && err == nil {
			err = shiftErr
		}
	}
	s.traceLayout(op)
	if err != nil {
		return syncErr(op, index, err)
	}
	return nil
}

// release implements [Handle.Close].
func (b *binding[S, T]) release() error {
	s := b.sync
	h := b.handle
	if s.busy {
		return syncErr("close", -1, ErrReentrant)
	}
	s.busy = true
	defer func() { s.busy = false }()

	h.closed = true
	b.cancel()

	seg := h.seg
	var err error
	if seg.End() > s.dest.Len() {
		err = syncErr("close", seg.End(), ErrOutOfRange)
	} else if seg.Len() > 0 {
		if rmErr := s.dest.RemoveRange(seg.Start(), seg.Len()); rmErr != nil {
			err = syncErr("close", seg.Start(), rmErr)
		}
	}
	start, length := seg.Start(), seg.Len()
	if regErr := s.reg.Remove(seg); regErr != nil {
		err = errors.Join(err, syncErr("close", start, regErr))
	}

	s.traceLayout("close")

	if h.released != nil {
		h.released()
	}
	s.cfg.logger.Debug().
		Int("attachment", h.id).
		Int("start", start).
		Int("len", length).
		Msg("released")
	return err
}

// traceLayout logs the segment table at trace level, along with any
// violation of the registry's offset invariant.
func (s *Synchronizer[T]) traceLayout(op string) {
	ev := s.cfg.logger.Trace()
	if !ev.Enabled() {
		return
	}
	segs := zerolog.Arr()
	for seg := range s.reg.All() {
		segs.Str(seg.String())
	}
	ev.Str("op", op).
		Array("segments", segs).
		AnErr("invariant", s.reg.Check()).
		Msg("layout")
}
