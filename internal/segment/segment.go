// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package segment maintains the offset table that maps each attached
// source onto a contiguous range of a shared destination.
package segment

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrNegativeLength = errors.New("negative segment length")
	ErrNotRegistered  = errors.New("segment not registered")
)

// A Segment is the half-open range [Start, End) of the destination
// owned by one source.
type Segment struct {
	length int
	pos    int       // Index within reg.segs; -1 once removed.
	reg    *Registry // Nil once removed.
	start  int
}

// End returns Start + Len.
func (s *Segment) End() int { return s.start + s.length }

// Len returns the number of destination elements in the segment.
func (s *Segment) Len() int { return s.length }

// Registered returns false once the Segment has been removed.
func (s *Segment) Registered() bool { return s.reg != nil }

// Start returns the destination index of the segment's first element.
func (s *Segment) Start() int { return s.start }

// String is for debugging use only.
func (s *Segment) String() string {
	return fmt.Sprintf("[%d, %d)", s.start, s.End())
}

// A Registry is an ordered collection of Segments. The ordering is the
// order in which the segments were appended.
//
// Invariant: segs[i].start is the sum of the lengths of segs[0:i].
//
// A Registry is not safe for concurrent use.
type Registry struct {
	segs  []*Segment
	total int
}

// All returns the registered segments in order.
func (r *Registry) All() iter.Seq[*Segment] {
	return func(yield func(*Segment) bool) {
		for _, seg := range r.segs {
			if !yield(seg) {
				return
			}
		}
	}
}

// Append registers a new Segment at the end of the table.
func (r *Registry) Append(length int) (*Segment, error) {
	if length < 0 {
		return nil, fmt.Errorf("append %d: %w", length, ErrNegativeLength)
	}
	seg := &Segment{
		length: length,
		pos:    len(r.segs),
		reg:    r,
		start:  r.total,
	}
	r.segs = append(r.segs, seg)
	r.total += length
	return seg, nil
}

// Check verifies the prefix-sum invariant.
func (r *Registry) Check() error {
	sum := 0
	for idx, seg := range r.segs {
		if seg.pos != idx {
			return fmt.Errorf("segment %d: recorded position %d", idx, seg.pos)
		}
		if seg.start != sum {
			return fmt.Errorf("segment %d: start %d, expected %d", idx, seg.start, sum)
		}
		if seg.length < 0 {
			return fmt.Errorf("segment %d: %w", idx, ErrNegativeLength)
		}
		sum += seg.length
	}
	if sum != r.total {
		return fmt.Errorf("total %d, expected %d", r.total, sum)
	}
	return nil
}

// Count returns the number of registered segments.
func (r *Registry) Count() int { return len(r.segs) }

// Len returns the sum of all segment lengths.
func (r *Registry) Len() int { return r.total }

// Remove unregisters the Segment and moves every later segment down by
// the removed length.
func (r *Registry) Remove(seg *Segment) error {
	if seg == nil || seg.reg != r {
		return ErrNotRegistered
	}
	r.shiftAfter(seg.pos, -seg.length)
	r.total -= seg.length

	r.segs = append(r.segs[:seg.pos], r.segs[seg.pos+1:]...)
	for idx := seg.pos; idx < len(r.segs); idx++ {
		r.segs[idx].pos = idx
	}
	seg.pos = -1
	seg.reg = nil
	return nil
}

// Shift changes the length of the Segment by delta and moves the start
// of every later segment by the same amount.
func (r *Registry) Shift(seg *Segment, delta int) error {
	if seg == nil || seg.reg != r {
		return ErrNotRegistered
	}
	if seg.length+delta < 0 {
		return fmt.Errorf("shift %s by %d: %w", seg, delta, ErrNegativeLength)
	}
	if delta == 0 {
		return nil
	}
	seg.length += delta
	r.total += delta
	r.shiftAfter(seg.pos, delta)
	return nil
}

func (r *Registry) shiftAfter(pos, delta int) {
	for _, later := range r.segs[pos+1:] {
		later.start += delta
	}
}
