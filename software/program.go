package software

import (
	"fmt"

	"github.com/pku-liang/hestia/storage"
)

// Function is a loaded software-level function definition: its
// parameter names and its top-level operation body.
type Function struct {
	Name string
	Args []string
	Body []Op
}

// Program is the loaded software-level module: its functions and the
// memories they operate on. There is no constant table: a software
// bundle has no constants section, and no op_type in the operation
// set builds a literal, so every operand is read from the function's
// scope.
type Program struct {
	Functions map[string]*Function
	Memories  map[string]*storage.Memory
}

// NewProgram returns an empty Program.
func NewProgram() *Program {
	return &Program{
		Functions: map[string]*Function{},
		Memories:  map[string]*storage.Memory{},
	}
}

// AddFunction registers a function definition, erroring on duplicate
// names.
func (p *Program) AddFunction(f *Function) error {
	if _, exists := p.Functions[f.Name]; exists {
		return fmt.Errorf("software: duplicate function %q", f.Name)
	}
	p.Functions[f.Name] = f
	return nil
}

// AddMemory registers a memory, erroring on duplicate names.
func (p *Program) AddMemory(m *storage.Memory) error {
	if _, exists := p.Memories[m.Name()]; exists {
		return fmt.Errorf("software: duplicate memory %q", m.Name())
	}
	p.Memories[m.Name()] = m
	return nil
}
