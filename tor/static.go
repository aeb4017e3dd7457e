package tor

import (
	"fmt"

	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/value"
)

// Instance is one live activation of a time graph: a cursor sitting
// either at a node (edgeSel < 0, about to pick an outgoing edge) or
// mid-transit on an edge (edgeSel >= 0, counting elapsed cycles up to
// the edge's latency).
type Instance struct {
	FuncName string
	Graph    *Graph
	Env      *Env

	Node        int
	edgeSel     int
	edgeElapsed int

	// Parent/CallInfo back-reference the caller instance through the
	// arena rather than a pointer, so Call/Return never form an
	// ownership cycle.
	Parent   session.Handle
	HasParent bool
	CallInfo *CallCtl

	Waiting        bool // blocked at a Call node, callee not yet returned
	calleeReturned bool

	Done         bool
	ReturnValues []value.Value
}

// Engine drives one or more Instances across a Program's time graphs,
// one cycle per Step call, mirroring the software level's operation
// stack but indexed by edge latency instead of instruction count.
type Engine struct {
	Program *Program

	arena *session.Arena[Instance]
	roots []session.Handle

	// Returns records each completed root instance's unwound values.
	Returns [][]value.Value

	equalPoints map[string]bool
	equalValues map[string]value.Value

	cycles int
}

// NewEngine returns an Engine over the given program.
func NewEngine(p *Program) *Engine {
	return &Engine{Program: p, arena: session.NewArena[Instance]()}
}

// CallFunction spawns a root instance of fn(args…) at its graph's
// start node.
func (e *Engine) CallFunction(fn string, args []value.Value) error {
	f, ok := e.Program.Functions[fn]
	if !ok {
		return fmt.Errorf("tor: undefined function %q", fn)
	}
	env := newEnv()
	env.Bind(f.Args, args)
	inst := Instance{FuncName: fn, Graph: f.Graph, Env: env, Node: f.Graph.Start, edgeSel: -1}
	h := e.arena.Alloc(inst)
	e.roots = append(e.roots, h)
	return nil
}

// SetEqualPoint registers op as a compute name whose result value
// should be captured every time it fires, for the cosimulation
// coordinator to compare against the HEC side.
func (e *Engine) SetEqualPoint(op string) {
	if e.equalPoints == nil {
		e.equalPoints = map[string]bool{}
	}
	e.equalPoints[op] = true
}

// TakeEqualValues returns every equivalence-point value recorded since
// the last call (keyed by compute name) and clears the record.
func (e *Engine) TakeEqualValues() map[string]value.Value {
	out := e.equalValues
	e.equalValues = nil
	return out
}

// Finish reports whether every root instance has returned, matching
// the cosimulation coordinator's per-side completion check.
func (e *Engine) Finish() bool {
	return !e.Active()
}

// Cycles reports the number of cycles stepped so far, across every
// Step call.
func (e *Engine) Cycles() int { return e.cycles }

// WatchValues returns the current value of every watched tag that
// resolves against a live instance's namespace, keyed by tag, for the
// cmd front door's post-step watchpoint print. A tag already found in
// an earlier instance is not overwritten by a later one.
func (e *Engine) WatchValues(sess *session.Session) map[string]value.Value {
	if sess == nil {
		return nil
	}
	tags := sess.Watchpoints()
	if len(tags) == 0 {
		return nil
	}
	out := map[string]value.Value{}
	e.arena.Each(func(_ session.Handle, inst *Instance) {
		if inst.Done {
			return
		}
		for _, tag := range tags {
			if _, found := out[tag]; found {
				continue
			}
			if v := inst.Env.Get(tag); !v.IsError() {
				out[tag] = v
			}
		}
	})
	return out
}

// Active reports whether any instance still has work.
func (e *Engine) Active() bool {
	active := false
	e.arena.Each(func(_ session.Handle, inst *Instance) {
		if !inst.Done {
			active = true
		}
	})
	return active
}

// Step advances every live instance by n cycles in lockstep, or until
// a breakpoint fires. It returns the tag of the breakpointed result
// that stopped it, or "" otherwise.
func (e *Engine) Step(n int, sess *session.Session) (haltedOn string) {
	for i := 0; i < n; i++ {
		if !e.Active() {
			return ""
		}
		e.cycles++
		halted := ""
		e.arena.Each(func(h session.Handle, inst *Instance) {
			if halted != "" || inst.Done || inst.Waiting {
				return
			}
			if tag, stop := e.stepInstance(h, inst, sess); stop {
				halted = tag
			}
		})
		if halted != "" {
			return halted
		}
	}
	return ""
}

func (e *Engine) stepInstance(h session.Handle, inst *Instance, sess *session.Session) (tag string, halt bool) {
	if inst.edgeSel < 0 {
		node := inst.Graph.Nodes[inst.Node]
		switch node.Kind {
		case NodeReturn:
			vals := readAll(inst.Env, node.Return.Names)
			e.unwind(inst, vals)
			return "", false

		case NodeCall:
			if !inst.calleeReturned {
				e.spawnCall(h, inst, node.Call)
				inst.Waiting = true
				return "", false
			}
			inst.calleeReturned = false
			edges := inst.Graph.Edges[inst.Node]
			if len(edges) == 0 {
				panic(fmt.Sprintf("tor: call node %d has no outgoing edge", inst.Node))
			}
			inst.edgeSel, inst.edgeElapsed = 0, 0

		default:
			idx, err := selectEdge(node, inst.Env, inst.Graph.Edges[inst.Node])
			if err != nil {
				panic(err.Error())
			}
			inst.edgeSel, inst.edgeElapsed = idx, 0
		}
	}

	edge := inst.Graph.Edges[inst.Node][inst.edgeSel]
	inst.edgeElapsed++
	if inst.edgeElapsed < edge.Latency() {
		return "", false
	}

	if sess != nil {
		for _, c := range edge.Ops {
			if c.Name != "" && sess.HasBreakpoint(c.Name) {
				inst.edgeElapsed--
				return c.Name, true
			}
		}
	}
	for _, c := range edge.Ops {
		value.OperationEnv(c, inst.Env)
		if c.Name != "" && e.equalPoints[c.Name] {
			if e.equalValues == nil {
				e.equalValues = map[string]value.Value{}
			}
			e.equalValues[c.Name] = inst.Env.Get(c.Name)
		}
	}
	inst.Node, inst.edgeSel = edge.To, -1
	return "", false
}

func (e *Engine) spawnCall(caller session.Handle, inst *Instance, c *CallCtl) {
	f, ok := e.Program.Functions[c.Function]
	if !ok {
		panic(fmt.Sprintf("tor: undefined function %q", c.Function))
	}
	env := newEnv()
	env.Bind(f.Args, readAll(inst.Env, c.Args))
	child := Instance{
		FuncName: c.Function, Graph: f.Graph, Env: env, Node: f.Graph.Start, edgeSel: -1,
		Parent: caller, HasParent: true, CallInfo: c,
	}
	e.arena.Alloc(child)
}

func (e *Engine) unwind(inst *Instance, vals []value.Value) {
	inst.Done = true
	inst.ReturnValues = vals
	if !inst.HasParent {
		e.Returns = append(e.Returns, vals)
		return
	}
	parent := e.arena.Get(inst.Parent)
	if parent == nil {
		return
	}
	for i, n := range inst.CallInfo.Names {
		if i < len(vals) {
			parent.Env.Set(n, vals[i])
		}
	}
	parent.Waiting = false
	parent.calleeReturned = true
}

// selectEdge picks the outgoing edge a node with more than one choice
// takes: BeginFor tests "iter <= upper_bound" to decide whether to
// enter the loop body at all, EndFor tests "iter+step < upper_bound"
// to decide whether to continue, BeginIf tests its condition, and
// every other node kind has exactly one outgoing edge.
func selectEdge(node Node, env *Env, edges []Edge) (int, error) {
	switch node.Kind {
	case NodeBeginFor:
		i, ub := env.Get(node.For.IterName), env.Get(node.For.UpperBound)
		return findBranch(edges, branchTag(value.Lte(i, ub).AsBool(), "enter", "exit"))

	case NodeEndFor:
		i, step, ub := env.Get(node.For.IterName), env.Get(node.For.Step), env.Get(node.For.UpperBound)
		next := value.Add(i, step)
		cont := value.Lt(next, ub).AsBool()
		if cont {
			env.Set(node.For.IterName, next)
		}
		return findBranch(edges, branchTag(cont, "continue", "exit"))

	case NodeBeginIf:
		cond := env.Get(node.If.Cond).AsBool()
		return findBranch(edges, branchTag(cond, "true", "false"))

	default:
		if len(edges) == 0 {
			return 0, fmt.Errorf("tor: node has no outgoing edge")
		}
		return 0, nil
	}
}

func branchTag(cond bool, whenTrue, whenFalse string) string {
	if cond {
		return whenTrue
	}
	return whenFalse
}

func findBranch(edges []Edge, tag string) (int, error) {
	for i, e := range edges {
		if e.Branch == tag {
			return i, nil
		}
	}
	return 0, fmt.Errorf("tor: no edge tagged %q", tag)
}
