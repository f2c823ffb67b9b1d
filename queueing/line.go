// Package queueing provides the waiting lines that simulated entities stand
// in. A Line is owned by the scenario and mutated only from process turns.
package queueing

import (
	"github.com/sarchlab/procsim/instrumentation/hooking"
)

// HookPosLinePush marks when an element joins the line.
var HookPosLinePush = &hooking.HookPos{Name: "Line Push"}

// HookPosLinePop marks when the front element leaves the line.
var HookPosLinePop = &hooking.HookPos{Name: "Line Pop"}

// HookPosLineRemove marks when an element leaves the line from any position.
var HookPosLineRemove = &hooking.HookPos{Name: "Line Remove"}

// Line is a FIFO line of comparable elements that also supports leaving from
// the middle.
type Line[T comparable] struct {
	*hooking.HookableBase

	name     string
	capacity int
	elements []T
}

// NewLine creates a line. A capacity of 0 means the line is unbounded.
func NewLine[T comparable](name string, capacity int) *Line[T] {
	if capacity < 0 {
		panic("queueing: capacity must not be negative")
	}

	return &Line[T]{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		capacity:     capacity,
	}
}

// Name returns the name of the line.
func (l *Line[T]) Name() string {
	return l.name
}

// CanPush checks if the line can accept a new element.
func (l *Line[T]) CanPush() bool {
	return l.capacity == 0 || len(l.elements) < l.capacity
}

// Push appends an element at the back. Pushing into a full line panics.
func (l *Line[T]) Push(e T) {
	if !l.CanPush() {
		panic("queueing: line overflow")
	}

	l.elements = append(l.elements, e)
	l.invoke(HookPosLinePush, e, len(l.elements)-1)
}

// Pop removes and returns the front element. It returns false if the line is
// empty.
func (l *Line[T]) Pop() (T, bool) {
	var zero T
	if len(l.elements) == 0 {
		return zero, false
	}

	e := l.elements[0]
	l.elements[0] = zero
	l.elements = l.elements[1:]
	l.invoke(HookPosLinePop, e, 0)

	return e, true
}

// Peek returns the front element without removing it.
func (l *Line[T]) Peek() (T, bool) {
	if len(l.elements) == 0 {
		var zero T
		return zero, false
	}

	return l.elements[0], true
}

// Remove takes the first occurrence of e out of the line, keeping the order
// of the others. It returns false and leaves the line unchanged if e is not
// in the line.
func (l *Line[T]) Remove(e T) bool {
	i := l.indexOf(e)
	if i < 0 {
		return false
	}

	l.elements = append(l.elements[:i], l.elements[i+1:]...)
	l.invoke(HookPosLineRemove, e, i)

	return true
}

// Contains tells if e is in the line.
func (l *Line[T]) Contains(e T) bool {
	return l.indexOf(e) >= 0
}

// Position returns the index of e counted from the front, or -1.
func (l *Line[T]) Position(e T) int {
	return l.indexOf(e)
}

// Capacity returns the maximum size of the line, 0 if unbounded.
func (l *Line[T]) Capacity() int {
	return l.capacity
}

// Size returns the current number of elements in the line.
func (l *Line[T]) Size() int {
	return len(l.elements)
}

// Clear removes all elements from the line.
func (l *Line[T]) Clear() {
	l.elements = nil
}

// Items returns a copy of the elements, front first.
func (l *Line[T]) Items() []T {
	out := make([]T, len(l.elements))
	copy(out, l.elements)

	return out
}

func (l *Line[T]) indexOf(e T) int {
	for i, x := range l.elements {
		if x == e {
			return i
		}
	}

	return -1
}

func (l *Line[T]) invoke(pos *hooking.HookPos, e T, index int) {
	if l.NumHooks() == 0 {
		return
	}

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    pos,
		Item:   e,
		Detail: index,
	})
}
