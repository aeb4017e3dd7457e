package software

import "github.com/pku-liang/hestia/value"

// OpKind tags the closed operation set of the software IR: Compute,
// Return, For, If, Yield, Load, Store, Call.
type OpKind int

const (
	OpCompute OpKind = iota
	OpReturn
	OpFor
	OpIf
	OpYield
	OpLoad
	OpStore
	OpCall
)

// Op is a single structured-operation-stack instruction. Only the
// fields relevant to Kind are populated; this mirrors the Value kernel's
// tagged-variant approach rather than one interface type per op.
type Op struct {
	Kind OpKind

	// Break/watch granularity is per named SSA result of any op
	// (Compute, Load, For, If, …); Name is that tag, empty for ops
	// with no result (Return, Yield, Store).
	Name string

	Compute value.Compute // OpCompute

	ReturnNames []string // OpReturn: operand names to read and unwind with

	For *ForSpec // OpFor
	If  *IfSpec  // OpIf

	Yield *YieldSpec // OpYield

	Load  *LoadSpec  // OpLoad
	Store *StoreSpec // OpStore

	Call *CallSpec // OpCall
}

// ForSpec describes a structured for-loop: iter ranges over
// [LowerBound, UpperBound) by Step with a strict "<" bound test.
// IterArgNames are bound inside Body from IterArgInit on first entry
// and from the enclosing Yield's values on each continuation.
type ForSpec struct {
	IterName     string
	LowerBound   string
	UpperBound   string
	Step         string
	IterArgNames []string
	IterArgInit  []string
	ResultNames  []string
	Body         []Op
}

// IfSpec describes a structured conditional: Cond selects Then or
// Else; the taken branch's Yield writes ResultNames into the parent
// scope.
type IfSpec struct {
	Cond        string
	Then        []Op
	Else        []Op
	ResultNames []string
}

// YieldSpec carries the values a For/If body hands back to its
// enclosing structured op when it completes (loop continuation or
// loop/if exit).
type YieldSpec struct {
	Values []string
}

// LoadSpec reads MemoryName[Index] into Name.
type LoadSpec struct {
	MemoryName string
	Index      string
}

// StoreSpec writes Value into MemoryName[Index].
type StoreSpec struct {
	MemoryName string
	Index      string
	Value      string
}

// CallSpec invokes Function with Args, binding the returned values to
// Names in the caller's scope once the callee returns.
type CallSpec struct {
	Function string
	Args     []string
	Names    []string
}
