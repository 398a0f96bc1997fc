// Package arena implements a fixed-capacity slot pool addressed by
// generation-checked handles. Released slots are held back until the next frame
// boundary so nothing recorded during the current frame can observe a recycled slot.
package arena

import (
	"errors"

	"github.com/OCAP2/beamcore/internal/queue"
	"github.com/OCAP2/beamcore/pkg/core"
)

// ErrExhausted is returned by Acquire when every slot is in use or pending recycle.
var ErrExhausted = errors.New("arena exhausted")

type slotState uint8

const (
	slotFree slotState = iota
	slotUsed
	slotPending
)

type slot[T any] struct {
	value      T
	generation uint32
	state      slotState
}

// Arena is a flat slot array with a free-index stack. Not safe for concurrent use.
type Arena[T any] struct {
	slots   []slot[T]
	free    []uint32
	pending *queue.Queue[uint32]
	active  int
	// retain leaves recycled values in place for the next owner.
	retain bool
}

// New preallocates capacity slots. Recycled slots are zeroed.
func New[T any](capacity int) *Arena[T] {
	a := &Arena[T]{
		slots:   make([]slot[T], capacity),
		free:    make([]uint32, 0, capacity),
		pending: queue.New[uint32](),
	}
	// push in reverse so the lowest index is handed out first
	for i := capacity - 1; i >= 0; i-- {
		a.slots[i].generation = 1
		a.free = append(a.free, uint32(i))
	}
	return a
}

// NewRetained preallocates capacity slots and runs prepare on each. Recycled
// slots keep their value, so buffers set up by prepare survive across owners
// and the new owner must reinitialize everything else.
func NewRetained[T any](capacity int, prepare func(*T)) *Arena[T] {
	a := New[T](capacity)
	a.retain = true
	if prepare != nil {
		for i := range a.slots {
			prepare(&a.slots[i].value)
		}
	}
	return a
}

// Acquire claims a free slot. The returned pointer is valid until the slot is released.
func (a *Arena[T]) Acquire() (core.Handle, *T, error) {
	if len(a.free) == 0 {
		return core.NilHandle, nil, ErrExhausted
	}
	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	s := &a.slots[idx]
	s.state = slotUsed
	a.active++
	return core.Handle{Index: idx, Generation: s.generation}, &s.value, nil
}

// Release retires the slot behind h. The handle (and every copy of it) stops
// resolving immediately, but the slot is only reusable after Recycle. Releasing a
// stale or already released handle is a no-op and returns false.
func (a *Arena[T]) Release(h core.Handle) bool {
	s, ok := a.slot(h)
	if !ok {
		return false
	}
	s.state = slotPending
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	a.active--
	a.pending.Push(h.Index)
	return true
}

// Recycle returns every pending slot to the free stack. Call once per frame boundary.
func (a *Arena[T]) Recycle() int {
	return a.pending.Drain(func(idx uint32) {
		s := &a.slots[idx]
		if !a.retain {
			var zero T
			s.value = zero
		}
		s.state = slotFree
		a.free = append(a.free, idx)
	})
}

// Get resolves h to its value.
func (a *Arena[T]) Get(h core.Handle) (*T, bool) {
	s, ok := a.slot(h)
	if !ok {
		return nil, false
	}
	return &s.value, true
}

// Valid reports whether h still refers to a live slot.
func (a *Arena[T]) Valid(h core.Handle) bool {
	_, ok := a.slot(h)
	return ok
}

// Each visits live slots in index order until fn returns false.
func (a *Arena[T]) Each(fn func(core.Handle, *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.state != slotUsed {
			continue
		}
		if !fn(core.Handle{Index: uint32(i), Generation: s.generation}, &s.value) {
			return
		}
	}
}

// Handles returns the live handles in index order.
func (a *Arena[T]) Handles() []core.Handle {
	out := make([]core.Handle, 0, a.active)
	a.Each(func(h core.Handle, _ *T) bool {
		out = append(out, h)
		return true
	})
	return out
}

// Active returns the number of live slots.
func (a *Arena[T]) Active() int { return a.active }

// Pending returns the number of released slots awaiting Recycle.
func (a *Arena[T]) Pending() int { return a.pending.Len() }

// Cap returns the fixed capacity.
func (a *Arena[T]) Cap() int { return len(a.slots) }

func (a *Arena[T]) slot(h core.Handle) (*slot[T], bool) {
	if h.IsNil() || int(h.Index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.Index]
	if s.state != slotUsed || s.generation != h.Generation {
		return nil, false
	}
	return s, true
}
