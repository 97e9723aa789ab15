// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package observable

import "fmt"

// Kind categorizes a [Change]. The zero value is not a valid Kind.
type Kind uint8

const (
	// Insert indicates NewItems were inserted at NewIndex.
	Insert Kind = iota + 1
	// Remove indicates OldItems were removed starting at OldIndex.
	Remove
	// Replace indicates OldItems at OldIndex were overwritten by
	// NewItems. NewIndex equals OldIndex.
	Replace
	// Move indicates OldItems were relocated from OldIndex so that the
	// first moved item now sits at NewIndex. NewItems equals OldItems.
	Move
	// Reset indicates the contents changed wholesale. Listeners should
	// re-read the sequence. The item and index fields are unset.
	Reset
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	case Replace:
		return "replace"
	case Move:
		return "move"
	case Reset:
		return "reset"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// A Change describes a single mutation of a [List]. Indices are
// relative to the List that emitted the Change.
type Change[T any] struct {
	Kind     Kind
	NewItems []T
	NewIndex int
	OldItems []T
	OldIndex int
}

// String is for debugging use only.
func (c Change[T]) String() string {
	switch c.Kind {
	case Insert:
		return fmt.Sprintf("insert %d at %d", len(c.NewItems), c.NewIndex)
	case Remove:
		return fmt.Sprintf("remove %d at %d", len(c.OldItems), c.OldIndex)
	case Replace:
		return fmt.Sprintf("replace %d at %d", len(c.NewItems), c.NewIndex)
	case Move:
		return fmt.Sprintf("move %d from %d to %d", len(c.OldItems), c.OldIndex, c.NewIndex)
	default:
		return c.Kind.String()
	}
}

// A Listener receives Changes synchronously, before the mutating call
// on the List returns.
type Listener[T any] func(Change[T]) error
