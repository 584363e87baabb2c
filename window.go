// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import "fmt"

// Window is a fixed-capacity circular buffer used for bounded lookback
// while streaming payloads. Insert overwrites the oldest slot once the
// buffer wraps; the window keeps no fill level, callers track it.
//
// Capacity is fixed by NewWindow and is never below one slot: a requested
// size below one yields a single-slot window, so Size, At and Insert stay
// valid for any constructor argument.
//
// Window is not safe for concurrent use.
type Window[T any] struct {
	slots  []T
	cursor int
}

// NewWindow creates a window with size slots. Size below one is raised to one.
func NewWindow[T any](size int) *Window[T] {
	if size < 1 {
		size = 1
	}

	return &Window[T]{slots: make([]T, size)}
}

// Size returns window capacity.
func (w *Window[T]) Size() int {
	return len(w.slots)
}

// Insert writes value at the cursor and advances the cursor.
func (w *Window[T]) Insert(value T) {
	w.slots[w.cursor] = value
	w.cursor = (w.cursor + 1) % len(w.slots)
}

// At returns slot i mod Size. Any index is accepted.
func (w *Window[T]) At(i int) T {
	return w.slots[w.slot(i)]
}

// Cursor returns the next insert position.
func (w *Window[T]) Cursor() int {
	return w.cursor
}

// SetCursor moves the insert position to pos mod Size.
func (w *Window[T]) SetCursor(pos int) {
	w.cursor = w.slot(pos)
}

// Window returns a copy of the backing slots.
func (w *Window[T]) Window() []T {
	out := make([]T, len(w.slots))
	copy(out, w.slots)

	return out
}

// SetWindow replaces all slots with values; len(values) must equal Size.
func (w *Window[T]) SetWindow(values []T) error {
	if len(values) != len(w.slots) {
		return fmt.Errorf("%w: got %d slots, want %d", ErrWindowSize, len(values), len(w.slots))
	}

	copy(w.slots, values)
	return nil
}

// Fill sets every slot to value without moving the cursor.
func (w *Window[T]) Fill(value T) {
	for i := range w.slots {
		w.slots[i] = value
	}
}

// slot maps any index, including negative ones, into the backing range.
func (w *Window[T]) slot(i int) int {
	n := len(w.slots)
	i %= n
	if i < 0 {
		i += n
	}

	return i
}
