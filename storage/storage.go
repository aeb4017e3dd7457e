// Package storage implements the byte/word-addressable memories and
// bounded FIFOs shared by the software interpreter and the ToR
// time-graph engine.
package storage

import (
	"fmt"

	"github.com/pku-liang/hestia/value"
)

// Memory is a fixed-length, uniform-element-type vector of Value,
// indexed by load/store at a usize index. Loads and stores convert
// through the element type recorded at construction, matching §3's
// invariant that memories and streams use the type recorded on
// construction for their conversions.
type Memory struct {
	name string
	typ  string
	data []value.Value
}

// NewMemory allocates a Memory of the given size and element type,
// zero-initialized via value.Build(typ, "0").
func NewMemory(name, typ string, size int) *Memory {
	zero := value.Build(typ, "0")
	data := make([]value.Value, size)
	for i := range data {
		data[i] = zero
	}
	return &Memory{name: name, typ: typ, data: data}
}

// Name returns the memory's declared name.
func (m *Memory) Name() string { return m.name }

// Len returns the memory's fixed size.
func (m *Memory) Len() int { return len(m.data) }

// Load reads the value at idx, converted to the memory's element type.
func (m *Memory) Load(idx int) value.Value {
	if idx < 0 || idx >= len(m.data) {
		return value.Error
	}
	return m.data[idx]
}

// Store writes v at idx, converting v to the memory's element type.
func (m *Memory) Store(idx int, v value.Value) {
	if idx < 0 || idx >= len(m.data) {
		return
	}
	m.data[idx] = value.Convert(v, m.typ)
}

// LoadBulk overwrites the memory contents starting at index 0 with
// literal values decoded through the memory's element type — the
// load_memory/load_memory_file command surface (§6).
func (m *Memory) LoadBulk(literals []string) error {
	if len(literals) > len(m.data) {
		return fmt.Errorf("storage: %d values exceed memory %q of size %d", len(literals), m.name, len(m.data))
	}
	for i, lit := range literals {
		m.data[i] = value.Build(m.typ, lit)
	}
	return nil
}

// Snapshot returns a copy of the memory contents for show_mem output.
func (m *Memory) Snapshot() []value.Value {
	out := make([]value.Value, len(m.data))
	copy(out, m.data)
	return out
}
