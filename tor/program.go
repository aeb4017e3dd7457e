package tor

import (
	"fmt"

	"github.com/pku-liang/hestia/storage"
)

// Function is one loaded ToR function: its parameter names and the
// time graph that implements its body.
type Function struct {
	Name  string
	Args  []string
	Graph *Graph
}

// Program is the loaded ToR-level module: its functions and the
// memories/streams they read and write.
type Program struct {
	Functions map[string]*Function
	Memories  map[string]*storage.Memory
	Streams   map[string]*storage.Stream
}

// NewProgram returns an empty Program.
func NewProgram() *Program {
	return &Program{
		Functions: map[string]*Function{},
		Memories:  map[string]*storage.Memory{},
		Streams:   map[string]*storage.Stream{},
	}
}

// AddFunction registers a function definition, erroring on duplicate
// names.
func (p *Program) AddFunction(f *Function) error {
	if _, exists := p.Functions[f.Name]; exists {
		return fmt.Errorf("tor: duplicate function %q", f.Name)
	}
	p.Functions[f.Name] = f
	return nil
}

// AddMemory registers a memory, erroring on duplicate names.
func (p *Program) AddMemory(m *storage.Memory) error {
	if _, exists := p.Memories[m.Name()]; exists {
		return fmt.Errorf("tor: duplicate memory %q", m.Name())
	}
	p.Memories[m.Name()] = m
	return nil
}
