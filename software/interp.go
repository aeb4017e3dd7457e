// Package software implements the structured-operation-stack machine
// for the software-level IR: a single operation stack of Function/
// For/If/Call controllers, each owning a cursor into its own body.
package software

import (
	"fmt"
	"io"

	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/value"
)

// Interp is the software interpreter: it owns the operation stack and
// drives it one structured operation at a time.
type Interp struct {
	Program *Program
	Out     io.Writer

	stack   []*Controller
	pending []*Controller

	// Returns records the values printed by each completed root call,
	// for callers (tests, cmd front door) that want them without
	// scraping Out.
	Returns [][]value.Value
}

// NewInterp returns an Interp over the given program, printing Return
// output to out.
func NewInterp(p *Program, out io.Writer) *Interp {
	return &Interp{Program: p, Out: out}
}

// CallFunction pushes a root Function controller for fn(args…) onto
// the operation stack, making it the active root instance.
func (in *Interp) CallFunction(fn string, args []value.Value) error {
	f, ok := in.Program.Functions[fn]
	if !ok {
		return fmt.Errorf("software: undefined function %q", fn)
	}
	scope := newScope()
	scope.Bind(f.Args, args)
	in.stack = append(in.stack, &Controller{
		Kind:  ControllerFunction,
		Name:  fn,
		Scope: scope,
		Body:  f.Body,
	})
	return nil
}

// Active reports whether the operation stack still has work.
func (in *Interp) Active() bool { return len(in.stack) > 0 }

// Step advances the interpreter by n operations, or until the stack
// empties or a breakpoint fires. It returns the tag of the breakpoint
// that stopped it, or "" if it ran to completion of n steps (or the
// stack emptied).
func (in *Interp) Step(n int, sess *session.Session) (haltedOn string) {
	for i := 0; i < n; i++ {
		if !in.Active() {
			return ""
		}
		top := in.stack[len(in.stack)-1]
		if top.done() {
			// A controller whose body is exhausted without an explicit
			// Return (falls off the end): treat as an implicit return of
			// no values, matching the "Function drops scope" boundary.
			in.unwindReturn(nil)
			continue
		}
		op := top.Body[top.OpNow]
		if sess != nil && op.Name != "" && sess.HasBreakpoint(op.Name) {
			return op.Name
		}
		in.execute(top, op)
		if sess != nil && op.Name != "" && sess.HasWatchpoint(op.Name) {
			fmt.Fprintf(in.Out, "watch %s = %s\n", op.Name, top.Scope.Get(op.Name))
		}
	}
	return ""
}

func (in *Interp) execute(top *Controller, op Op) {
	switch op.Kind {
	case OpCompute:
		value.OperationEnv(op.Compute, top.Scope)
		top.OpNow++

	case OpLoad:
		mem, ok := in.Program.Memories[op.Load.MemoryName]
		if !ok {
			panic(fmt.Sprintf("software: undefined memory %q", op.Load.MemoryName))
		}
		idx := int(top.Scope.Get(op.Load.Index).AsU32())
		top.Scope.Set(op.Name, mem.Load(idx))
		top.OpNow++

	case OpStore:
		mem, ok := in.Program.Memories[op.Store.MemoryName]
		if !ok {
			panic(fmt.Sprintf("software: undefined memory %q", op.Store.MemoryName))
		}
		idx := int(top.Scope.Get(op.Store.Index).AsU32())
		mem.Store(idx, top.Scope.Get(op.Store.Value))
		top.OpNow++

	case OpFor:
		child := &Controller{
			Kind:    ControllerFor,
			Scope:   top.Scope,
			Body:    op.For.Body,
			ForSpec: op.For,
		}
		lb := top.Scope.Get(op.For.LowerBound)
		child.Scope.Bind(op.For.IterArgNames, readAll(top.Scope, op.For.IterArgInit))
		child.Scope.Set(op.For.IterName, lb)
		child.IterValue = lb
		in.pending = append(in.pending, child)
		top.OpNow++

	case OpIf:
		cond := top.Scope.Get(op.If.Cond).AsBool()
		body := op.If.Then
		if !cond {
			body = op.If.Else
		}
		child := &Controller{
			Kind:   ControllerIf,
			Scope:  top.Scope,
			Body:   body,
			IfSpec: op.If,
		}
		in.pending = append(in.pending, child)
		top.OpNow++

	case OpCall:
		f, ok := in.Program.Functions[op.Call.Function]
		if !ok {
			panic(fmt.Sprintf("software: undefined function %q", op.Call.Function))
		}
		calleeScope := newScope()
		calleeScope.Bind(f.Args, readAll(top.Scope, op.Call.Args))
		child := &Controller{
			Kind:        ControllerCall,
			Name:        op.Call.Function,
			Scope:       calleeScope,
			Body:        f.Body,
			CallSpec:    op.Call,
			CallerScope: top.Scope,
		}
		in.pending = append(in.pending, child)
		top.OpNow++

	case OpReturn:
		vals := readAll(top.Scope, op.ReturnNames)
		in.unwindReturn(vals)

	case OpYield:
		in.yield(top, op.Yield)

	default:
		panic("software: unknown op kind")
	}

	if len(in.pending) > 0 {
		in.stack = append(in.stack, in.pending...)
		in.pending = in.pending[:0]
	}
}

func (in *Interp) yield(top *Controller, y *YieldSpec) {
	vals := readAll(top.Scope, y.Values)
	switch top.Kind {
	case ControllerFor:
		spec := top.ForSpec
		next := value.Add(top.IterValue, top.Scope.Get(spec.Step))
		ub := top.Scope.Get(spec.UpperBound)
		if value.Lt(next, ub).AsBool() {
			for i, n := range spec.IterArgNames {
				if i < len(vals) {
					top.Scope.Set(n, vals[i])
				}
			}
			top.Scope.Set(spec.IterName, next)
			top.IterValue = next
			top.OpNow = 0
			return
		}
		for i, n := range spec.ResultNames {
			if i < len(vals) {
				top.Scope.Set(n, vals[i])
			}
		}
		in.pop()

	case ControllerIf:
		for i, n := range top.IfSpec.ResultNames {
			if i < len(vals) {
				top.Scope.Set(n, vals[i])
			}
		}
		in.pop()

	default:
		panic("software: yield outside For/If")
	}
}

func (in *Interp) pop() {
	in.stack = in.stack[:len(in.stack)-1]
}

// unwindReturn pops controllers until it passes the innermost
// Function or Call boundary.
func (in *Interp) unwindReturn(vals []value.Value) {
	for len(in.stack) > 0 {
		top := in.stack[len(in.stack)-1]
		in.pop()
		switch top.Kind {
		case ControllerFunction:
			in.Returns = append(in.Returns, vals)
			fmt.Fprintf(in.Out, "%s returned %s\n", top.Name, formatValues(vals))
			return
		case ControllerCall:
			for i, n := range top.CallSpec.Names {
				if i < len(vals) {
					top.CallerScope.Set(n, vals[i])
				}
			}
			return
		default:
			// For/If unwound without yielding: drop and keep going.
		}
	}
}

func readAll(s *Scope, names []string) []value.Value {
	out := make([]value.Value, len(names))
	for i, n := range names {
		out[i] = s.Get(n)
	}
	return out
}

func formatValues(vals []value.Value) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ", "
		}
		out += v.String()
	}
	return out
}

// ShowStack returns the current controller stack's function/loop/if
// names, outermost first, for the show_stack command surface.
func (in *Interp) ShowStack() []string {
	out := make([]string, len(in.stack))
	for i, c := range in.stack {
		switch c.Kind {
		case ControllerFunction:
			out[i] = "function:" + c.Name
		case ControllerCall:
			out[i] = "call:" + c.Name
		case ControllerFor:
			out[i] = "for"
		case ControllerIf:
			out[i] = "if"
		}
	}
	return out
}
