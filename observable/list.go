// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package observable provides an ordered sequence that notifies
// subscribers of every structural change.
//
// A [List] emits exactly one [Change] per effective mutation, delivered
// synchronously to each [Listener] before the mutating method returns.
// Mutations that would not alter the List (e.g. inserting zero items or
// moving an element onto itself) emit nothing.
package observable

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrIndexOutOfRange is returned when a mutation refers to an index
// outside the List. The List is unchanged when this error is returned.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrReentrant is returned when a Listener attempts to mutate the List
// that is delivering a change to it. The List is unchanged when this
// error is returned.
var ErrReentrant = errors.New("list mutated during notification")

type subscriber[T any] struct {
	fn        Listener[T]
	cancelled bool
}

// A List is an ordered, mutable sequence that reports changes to its
// subscribers. The zero value is an empty List ready for use.
//
// Errors returned by listeners are joined and returned from the
// mutating method after the mutation has been applied. A Listener may
// subscribe or cancel, but it may not mutate the List that is
// delivering the change; such mutations fail with [ErrReentrant].
//
// A List is not safe for concurrent use.
type List[T any] struct {
	items     []T
	notifying bool
	subs      []*subscriber[T]
}

// NewList returns a List containing a copy of the items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

// RemoveItem deletes the first element equal to item. It returns false if
// no such element exists.
func RemoveItem[T comparable](l *List[T], item T) (bool, error) {
	idx := slices.Index(l.items, item)
	if idx < 0 {
		return false, nil
	}
	return true, l.RemoveAt(idx)
}

// Add appends the items.
func (l *List[T]) Add(items ...T) error {
	return l.Insert(len(l.items), items...)
}

// All returns the index-element pairs of the List.
func (l *List[T]) All() iter.Seq2[int, T] {
	return slices.All(l.items)
}

// At returns the element at the index. It panics if the index is out of
// range, as a slice would.
func (l *List[T]) At(index int) T {
	return l.items[index]
}

// Clear removes all elements. The subscribers receive a [Reset].
func (l *List[T]) Clear() error {
	if err := l.checkIdle("clear"); err != nil {
		return err
	}
	if len(l.items) == 0 {
		return nil
	}
	clear(l.items)
	l.items = l.items[:0]
	return l.notify(Change[T]{Kind: Reset})
}

// Insert places the items so that the first one is at the index.
func (l *List[T]) Insert(index int, items ...T) error {
	if err := l.checkIdle("insert"); err != nil {
		return err
	}
	if index < 0 || index > len(l.items) {
		return rangeErr("insert", index, len(l.items))
	}
	if len(items) == 0 {
		return nil
	}
	l.items = slices.Insert(l.items, index, items...)
	return l.notify(Change[T]{
		Kind:     Insert,
		NewItems: slices.Clone(items),
		NewIndex: index,
		OldIndex: -1,
	})
}

// Len returns the number of elements.
func (l *List[T]) Len() int { return len(l.items) }

// Move relocates a single element. See [List.MoveRange].
func (l *List[T]) Move(oldIndex, newIndex int) error {
	return l.MoveRange(oldIndex, newIndex, 1)
}

// MoveRange relocates count elements starting at oldIndex so that the
// first of them ends up at newIndex. Both indices are positions within
// the List as it exists before and after the move, respectively.
func (l *List[T]) MoveRange(oldIndex, newIndex, count int) error {
	if err := l.checkIdle("move"); err != nil {
		return err
	}
	if count < 0 || oldIndex < 0 || oldIndex+count > len(l.items) {
		return rangeErr("move from", oldIndex, len(l.items))
	}
	if newIndex < 0 || newIndex+count > len(l.items) {
		return rangeErr("move to", newIndex, len(l.items))
	}
	if count == 0 || oldIndex == newIndex {
		return nil
	}
	moved := slices.Clone(l.items[oldIndex : oldIndex+count])
	l.items = slices.Delete(l.items, oldIndex, oldIndex+count)
	l.items = slices.Insert(l.items, newIndex, moved...)
	return l.notify(Change[T]{
		Kind:     Move,
		NewItems: moved,
		NewIndex: newIndex,
		OldItems: moved,
		OldIndex: oldIndex,
	})
}

// RemoveAt deletes the element at the index.
func (l *List[T]) RemoveAt(index int) error {
	return l.RemoveRange(index, 1)
}

// RemoveRange deletes count elements starting at the index.
func (l *List[T]) RemoveRange(index, count int) error {
	if err := l.checkIdle("remove"); err != nil {
		return err
	}
	if count < 0 || index < 0 || index+count > len(l.items) {
		return rangeErr("remove", index, len(l.items))
	}
	if count == 0 {
		return nil
	}
	removed := slices.Clone(l.items[index : index+count])
	l.items = slices.Delete(l.items, index, index+count)
	return l.notify(Change[T]{
		Kind:     Remove,
		NewIndex: -1,
		OldItems: removed,
		OldIndex: index,
	})
}

// Replace overwrites consecutive elements starting at the index.
func (l *List[T]) Replace(index int, items ...T) error {
	if err := l.checkIdle("replace"); err != nil {
		return err
	}
	if index < 0 || index+len(items) > len(l.items) {
		return rangeErr("replace", index, len(l.items))
	}
	if len(items) == 0 {
		return nil
	}
	old := slices.Clone(l.items[index : index+len(items)])
	copy(l.items[index:], items)
	return l.notify(Change[T]{
		Kind:     Replace,
		NewItems: slices.Clone(items),
		NewIndex: index,
		OldItems: old,
		OldIndex: index,
	})
}

// Reset replaces the entire contents of the List. The subscribers
// receive a single [Reset] and are expected to re-read the List.
func (l *List[T]) Reset(items ...T) error {
	if err := l.checkIdle("reset"); err != nil {
		return err
	}
	if len(l.items) == 0 && len(items) == 0 {
		return nil
	}
	clear(l.items)
	l.items = append(l.items[:0], items...)
	return l.notify(Change[T]{Kind: Reset})
}

// Set overwrites the element at the index.
func (l *List[T]) Set(index int, item T) error {
	return l.Replace(index, item)
}

// Slice returns a copy of the elements.
func (l *List[T]) Slice() []T {
	return slices.Clone(l.items)
}

// String is for debugging use only.
func (l *List[T]) String() string {
	return fmt.Sprint(l.items)
}

// Subscribe registers a Listener. The returned function unregisters
// it and may be called more than once, including from within a
// Listener.
func (l *List[T]) Subscribe(fn Listener[T]) (cancel func()) {
	sub := &subscriber[T]{fn: fn}
	l.subs = append(l.subs, sub)
	return func() {
		if sub.cancelled {
			return
		}
		sub.cancelled = true
		l.subs = slices.DeleteFunc(l.subs, func(s *subscriber[T]) bool {
			return s == sub
		})
	}
}

// Values returns the elements of the List.
func (l *List[T]) Values() iter.Seq[T] {
	return slices.Values(l.items)
}

// checkIdle rejects mutations made from within a Listener.
func (l *List[T]) checkIdle(op string) error {
	if l.notifying {
		return fmt.Errorf("%s: %w", op, ErrReentrant)
	}
	return nil
}

// notify delivers the change to a snapshot of the subscribers.
func (l *List[T]) notify(ch Change[T]) error {
	l.notifying = true
	defer func() { l.notifying = false }()

	var errs []error
	for _, sub := range slices.Clone(l.subs) {
		if sub.cancelled {
			continue
		}
		if err := sub.fn(ch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func rangeErr(op string, index, length int) error {
	return fmt.Errorf("%s %d (len %d): %w", op, index, length, ErrIndexOutOfRange)
}
