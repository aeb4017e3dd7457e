// Package timedvalue implements the fixed-depth register-chain queue
// used to model multi-cycle functional units, pipeline registers, and
// HEC memory address/data ports.
package timedvalue

import "github.com/pku-liang/hestia/value"

// TimedValue models a fixed-latency register chain: depth registers
// in series, plus a staged input not yet clocked in. Depth 0 models a
// purely combinational (same-cycle) path: Get reads Staged directly.
type TimedValue struct {
	depth   int
	typ     string
	ring    []value.Value
	staged  value.Value
	hasStag bool
}

// New allocates a TimedValue of the given pipeline depth and element
// type, with every stage initialized to Error (the "no value yet"
// sentinel).
func New(typ string, depth int) *TimedValue {
	ring := make([]value.Value, depth)
	for i := range ring {
		ring[i] = value.Error
	}
	return &TimedValue{depth: depth, typ: typ, ring: ring, staged: value.Error}
}

// Depth returns the pipeline depth.
func (t *TimedValue) Depth() int { return t.depth }

// Set latches v into the staged slot; it is not visible via Get until
// the next Update (except at depth 0, where Get reads Staged
// directly — a purely combinational path).
func (t *TimedValue) Set(v value.Value) {
	t.staged = value.Convert(v, t.typ)
	t.hasStag = true
}

// Get returns the head of the register chain: the staged value at
// depth 0, otherwise the oldest value in the ring.
func (t *TimedValue) Get() value.Value {
	if t.depth == 0 {
		return t.staged
	}
	return t.ring[0]
}

// Update shifts the ring by one stage, clocking the staged value in
// at the tail, and clears the staged slot. Returns the value that
// fell off the head (now visible via Get before this call, retired
// after it) for callers that need to observe completions. At depth 0
// there is no chain: Update returns Error and leaves the staged value
// in place, so Get keeps returning it until the next Set or Reset.
func (t *TimedValue) Update() value.Value {
	if t.depth == 0 {
		t.hasStag = false
		return value.Error
	}
	retired := t.ring[0]
	copy(t.ring, t.ring[1:])
	if t.hasStag {
		t.ring[t.depth-1] = t.staged
	} else {
		t.ring[t.depth-1] = value.Error
	}
	t.staged = value.Error
	t.hasStag = false
	return retired
}

// Reset blanks every stage and the staged slot back to Error, used
// when an instance finishes and its port state must not leak into the
// next activation of the same slot.
func (t *TimedValue) Reset() {
	for i := range t.ring {
		t.ring[i] = value.Error
	}
	t.staged = value.Error
	t.hasStag = false
}

// HasValue reports whether any stage currently holds a non-Error
// value.
func (t *TimedValue) HasValue() bool {
	for _, v := range t.ring {
		if !v.IsError() {
			return true
		}
	}
	return !t.staged.IsError()
}
