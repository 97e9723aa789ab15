// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package observable

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// record subscribes to the list and accumulates the changes.
func record[T any](l *List[T]) *[]Change[T] {
	var ret []Change[T]
	l.Subscribe(func(ch Change[T]) error {
		ret = append(ret, ch)
		return nil
	})
	return &ret
}

func TestKindString(t *testing.T) {
	r := require.New(t)
	r.Equal("insert", Insert.String())
	r.Equal("remove", Remove.String())
	r.Equal("replace", Replace.String())
	r.Equal("move", Move.String())
	r.Equal("reset", Reset.String())
	r.Equal("kind(0)", Kind(0).String())
	r.Equal("kind(99)", Kind(99).String())
}

func TestAddInsert(t *testing.T) {
	r := require.New(t)

	l := NewList("a")
	changes := record(l)

	r.NoError(l.Add("c"))
	r.NoError(l.Insert(1, "b1", "b2"))
	r.Equal([]string{"a", "b1", "b2", "c"}, l.Slice())

	r.Equal([]Change[string]{
		{Kind: Insert, NewItems: []string{"c"}, NewIndex: 1, OldIndex: -1},
		{Kind: Insert, NewItems: []string{"b1", "b2"}, NewIndex: 1, OldIndex: -1},
	}, *changes)

	// No-op.
	r.NoError(l.Add())
	r.Len(*changes, 2)

	r.ErrorIs(l.Insert(5, "x"), ErrIndexOutOfRange)
	r.ErrorIs(l.Insert(-1, "x"), ErrIndexOutOfRange)
	r.Equal(4, l.Len())
}

func TestRemove(t *testing.T) {
	r := require.New(t)

	l := NewList(1, 2, 3, 4)
	changes := record(l)

	found, err := RemoveItem(l, 2)
	r.NoError(err)
	r.True(found)
	r.NoError(l.RemoveRange(1, 2))
	r.Equal([]int{1}, l.Slice())

	r.Equal([]Change[int]{
		{Kind: Remove, OldItems: []int{2}, OldIndex: 1, NewIndex: -1},
		{Kind: Remove, OldItems: []int{3, 4}, OldIndex: 1, NewIndex: -1},
	}, *changes)

	found, err = RemoveItem(l, 42)
	r.NoError(err)
	r.False(found)

	r.NoError(l.RemoveRange(0, 0))
	r.ErrorIs(l.RemoveAt(1), ErrIndexOutOfRange)
	r.ErrorIs(l.RemoveRange(0, -1), ErrIndexOutOfRange)
	r.Len(*changes, 2)
}

func TestReplace(t *testing.T) {
	r := require.New(t)

	l := NewList("1", "2", "3")
	changes := record(l)

	r.NoError(l.Set(0, "x"))
	r.NoError(l.Replace(1, "y", "z"))
	r.Equal([]string{"x", "y", "z"}, l.Slice())
	r.Equal([]Change[string]{
		{Kind: Replace, NewItems: []string{"x"}, OldItems: []string{"1"}},
		{Kind: Replace, NewItems: []string{"y", "z"}, NewIndex: 1, OldItems: []string{"2", "3"}, OldIndex: 1},
	}, *changes)

	r.ErrorIs(l.Replace(2, "a", "b"), ErrIndexOutOfRange)
	r.Equal([]string{"x", "y", "z"}, l.Slice())
}

func TestMove(t *testing.T) {
	tcs := []struct {
		name          string
		from, to, cnt int
		expect        []int
	}{
		{"forward", 0, 2, 1, []int{1, 2, 0, 3, 4}},
		{"backward", 3, 0, 1, []int{3, 0, 1, 2, 4}},
		{"tail to head", 4, 0, 1, []int{4, 0, 1, 2, 3}},
		{"head to tail", 0, 4, 1, []int{1, 2, 3, 4, 0}},
		{"range forward", 0, 3, 2, []int{2, 3, 4, 0, 1}},
		{"range backward", 3, 1, 2, []int{0, 3, 4, 1, 2}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			l := NewList(0, 1, 2, 3, 4)
			changes := record(l)

			r.NoError(l.MoveRange(tc.from, tc.to, tc.cnt))
			r.Equal(tc.expect, l.Slice())
			r.Len(*changes, 1)
			ch := (*changes)[0]
			r.Equal(Move, ch.Kind)
			r.Equal(tc.from, ch.OldIndex)
			r.Equal(tc.to, ch.NewIndex)
			r.Equal(tc.expect[tc.to:tc.to+tc.cnt], ch.NewItems)
		})
	}
}

func TestMoveNoOpAndBounds(t *testing.T) {
	r := require.New(t)

	l := NewList(1)
	changes := record(l)
	r.NoError(l.Move(0, 0))
	r.Empty(*changes)

	r.ErrorIs(l.Move(1, 0), ErrIndexOutOfRange)
	r.ErrorIs(l.Move(0, 1), ErrIndexOutOfRange)
	r.ErrorIs(l.MoveRange(0, 0, 2), ErrIndexOutOfRange)
	r.Equal([]int{1}, l.Slice())
}

func TestClearReset(t *testing.T) {
	r := require.New(t)

	l := NewList(1, 2, 3)
	changes := record(l)

	r.NoError(l.Clear())
	r.Zero(l.Len())
	// Clearing an empty list is a no-op.
	r.NoError(l.Clear())
	r.NoError(l.Reset())

	r.NoError(l.Reset(7, 8))
	r.Equal([]int{7, 8}, l.Slice())
	r.Equal([]Change[int]{{Kind: Reset}, {Kind: Reset}}, *changes)
}

func TestSubscribeCancel(t *testing.T) {
	r := require.New(t)

	l := NewList[int]()
	var calls []string
	var cancelA func()
	cancelA = l.Subscribe(func(Change[int]) error {
		calls = append(calls, "a")
		// Cancelling from inside a listener is permitted.
		cancelA()
		return nil
	})
	cancelB := l.Subscribe(func(Change[int]) error {
		calls = append(calls, "b")
		return nil
	})

	r.NoError(l.Add(1))
	r.NoError(l.Add(2))
	r.Equal([]string{"a", "b", "b"}, calls)

	cancelB()
	cancelB()
	r.NoError(l.Add(3))
	r.Len(calls, 3)
}

func TestListenerErrors(t *testing.T) {
	r := require.New(t)

	errA := errors.New("a")
	errB := errors.New("b")
	l := NewList[int]()
	l.Subscribe(func(Change[int]) error { return errA })
	l.Subscribe(func(Change[int]) error { return nil })
	l.Subscribe(func(Change[int]) error { return errB })

	err := l.Add(1)
	r.ErrorIs(err, errA)
	r.ErrorIs(err, errB)
	// The mutation is applied regardless.
	r.Equal([]int{1}, l.Slice())
}

func TestMutateDuringNotification(t *testing.T) {
	r := require.New(t)

	l := NewList("x")
	var nested []error
	l.Subscribe(func(Change[string]) error {
		nested = append(nested,
			l.Insert(0, "b"),
			l.RemoveAt(0),
			l.Move(0, 1),
			l.Set(0, "z"),
			l.Reset("q"),
			l.Clear(),
		)
		return nil
	})
	changes := record(l)

	r.NoError(l.Insert(0, "a"))
	r.Len(nested, 6)
	for _, err := range nested {
		r.ErrorIs(err, ErrReentrant)
	}
	r.Equal([]string{"a", "x"}, l.Slice())
	r.Len(*changes, 1)

	// The guard is lifted once delivery finishes, even if a listener
	// panics.
	cancel := l.Subscribe(func(Change[string]) error { panic("boom") })
	r.Panics(func() { _ = l.Add("y") })
	r.False(l.notifying)
	cancel()
	r.NoError(l.RemoveAt(2))
	r.Equal([]string{"a", "x"}, l.Slice())
}

func TestIterators(t *testing.T) {
	r := require.New(t)

	l := NewList("a", "b")
	r.Equal([]string{"a", "b"}, slices.Collect(l.Values()))
	for idx, v := range l.All() {
		r.Equal(l.At(idx), v)
	}
	r.Equal("[a b]", l.String())

	var zero List[string]
	r.NoError(zero.Add("x"))
	r.Equal(1, zero.Len())
}

func TestChangeString(t *testing.T) {
	r := require.New(t)
	r.Equal("insert 2 at 1", Change[int]{Kind: Insert, NewItems: []int{1, 2}, NewIndex: 1}.String())
	r.Equal("remove 1 at 0", Change[int]{Kind: Remove, OldItems: []int{1}}.String())
	r.Equal("replace 1 at 3", Change[int]{Kind: Replace, NewItems: []int{1}, NewIndex: 3}.String())
	r.Equal("move 1 from 2 to 0", Change[int]{Kind: Move, OldItems: []int{1}, OldIndex: 2}.String())
	r.Equal("reset", Change[int]{Kind: Reset}.String())
}
