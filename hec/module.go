// Package hec implements the HEC static engine: module instances
// driven by state-transition graphs or pipeline-for strategies, wired
// to the handshake network for Handshake-strategy modules, and a
// submodule go/done handshake that activates nested instances on
// demand.
package hec

import (
	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

// StrategyKind tags which of the three compilation strategies a
// Module uses.
type StrategyKind int

const (
	StrategySTG StrategyKind = iota
	StrategyPipeFor
	StrategyHandshake
)

// UnitDef is a pipelined functional unit declared inside a Module's
// units list: a named, typed multi-cycle operator (adder, multiplier,
// register, float comparator, …) exposed to the module's ops as named
// ports.
type UnitDef struct {
	OpType string
	Name   string
	Types  []string
}

// SubmoduleDef names one nested instance a Module may activate via a
// Go op.
type SubmoduleDef struct {
	InstanceName string
	ModuleName   string
}

// Assignment is a gated copy: dst = src, performed when Guard is empty
// or names a value that currently holds Bool(true).
type Assignment struct {
	Dst   string
	Src   string
	Guard string
}

// Deliver passes a value across a pipeline stage boundary: to the
// register form (DstReg) when more than one pipeline stage is active
// this cycle, otherwise to the port form (DstPort).
type Deliver struct {
	DstPort string
	DstReg  string
	Src     string
}

// OpKind tags which operation a State or Stage's op list entry
// performs.
type OpKind int

const (
	OpEnable OpKind = iota
	OpAssign
	OpCompute
	OpGo
	OpDeliver
)

// Operation is one step of a State's or Stage's op list, in program
// order.
type Operation struct {
	Kind     OpKind
	Port     string        // OpEnable
	Assign   Assignment    // OpAssign
	Compute  value.Compute // OpCompute
	Instance string        // OpGo: submodule instance name
	Deliver  Deliver       // OpDeliver
}

// Transition is one guarded jump out of a State, tried in order
// before the State's Default.
type Transition struct {
	Target string
	Cond   string
}

// StateDef is one state of an STG: its ops, its stream guards, its
// transitions, and — if set — the names whose values are published as
// this STG's return values when the state is terminal.
type StateDef struct {
	Ops         []Operation
	Streams     []string
	Transitions []Transition
	Default     string
	Done        []string
	IsDone      bool
}

// STGDef is the static state-transition graph of an STG-strategy
// Module.
type STGDef struct {
	States  map[string]*StateDef
	Initial string
}

// StageDef is one stage of a PipeFor: its ops and the stream ports it
// guards on.
type StageDef struct {
	Name    string
	Ops     []Operation
	Streams []string
}

// InitPair is one (dst, src) entry of a PipeFor's loop-carried
// initialization list.
type InitPair struct {
	Dst string
	Src string
}

// PipeForDef is the static description of a PipeFor-strategy Module:
// its loop-carried inits, its stage list, and its issue interval.
type PipeForDef struct {
	Inits  []InitPair
	Stages []StageDef
	II     int
}

// HandshakeDef is the static description of a Handshake-strategy
// Module: a flat assignment list wiring primitive ports together, and
// a sink list of ports held permanently ready.
type HandshakeDef struct {
	Assign []Assignment
	Sinks  []string
}

// ModuleDef is one loaded HEC module: its argument/type signature,
// its functional-unit and submodule declarations, and the strategy
// that drives it.
type ModuleDef struct {
	Name      string
	Args      []string
	Types     []string
	NumIn     int
	Units     []UnitDef
	Instances []SubmoduleDef
	Kind      StrategyKind
	STG       *STGDef
	PipeFor   *PipeForDef
	Handshake *HandshakeDef
}

// Program is the loaded HEC level: its modules and the process-wide
// memories, streams, and constants they share, replacing the
// reference implementation's static mutable globals with an explicit,
// passed-around value.
type Program struct {
	Modules   map[string]*ModuleDef
	Memories  map[string]*storage.HardwareMemory
	Streams   map[string]*storage.HardwareFIFO
	Constants map[string]value.Value
}

// NewProgram returns an empty Program.
func NewProgram() *Program {
	return &Program{
		Modules:   map[string]*ModuleDef{},
		Memories:  map[string]*storage.HardwareMemory{},
		Streams:   map[string]*storage.HardwareFIFO{},
		Constants: map[string]value.Value{},
	}
}
