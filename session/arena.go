package session

import "github.com/rs/xid"

// Handle identifies a slot in an Arena. The index gives O(1) lookup;
// the tag is a stable, sortable identifier (independent of slice
// index reuse after a Free) used for debug/print output, so two
// instances created at different times never print identically even
// if one reuses a freed slot.
type Handle struct {
	index int
	tag   xid.ID
}

// Tag returns the handle's stable identifier.
func (h Handle) Tag() string { return h.tag.String() }

// Arena owns a set of values of type T, addressed by Handle rather
// than by pointer, so that parent/child references between instances
// (ToR/HEC instance graphs) are plain indices instead of a Rc/RefCell
// ownership cycle.
type Arena[T any] struct {
	slots []*T
	free  []int
}

// NewArena returns an empty Arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Alloc stores v and returns a Handle to it.
func (a *Arena[T]) Alloc(v T) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx] = &v
		return Handle{index: idx, tag: xid.New()}
	}
	a.slots = append(a.slots, &v)
	return Handle{index: len(a.slots) - 1, tag: xid.New()}
}

// Get returns a pointer to the value in h's slot, or nil if that slot
// is currently free. The handle's tag is not checked, so once Alloc
// reuses a freed slot, an old handle to it resolves to the new value.
func (a *Arena[T]) Get(h Handle) *T {
	if h.index < 0 || h.index >= len(a.slots) {
		return nil
	}
	return a.slots[h.index]
}

// Free releases the slot behind h for reuse.
func (a *Arena[T]) Free(h Handle) {
	if h.index < 0 || h.index >= len(a.slots) || a.slots[h.index] == nil {
		return
	}
	a.slots[h.index] = nil
	a.free = append(a.free, h.index)
}

// Len returns the number of live (non-freed) slots.
func (a *Arena[T]) Len() int {
	n := 0
	for _, s := range a.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Each calls fn for every live slot, in index order.
func (a *Arena[T]) Each(fn func(Handle, *T)) {
	for i, s := range a.slots {
		if s != nil {
			fn(Handle{index: i}, s)
		}
	}
}
