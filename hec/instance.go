package hec

import (
	"fmt"

	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/value"
)

// Instance is one live activation of a Module: either driving an STG
// (State field selects the current state) or a PipeFor (CurStages
// tracks the overlapping wavefront of in-flight iterations). Nested
// instances are owned directly by their parent's Env — HEC's go/done
// relationship is a strict tree, so unlike the ToR engine's Call/
// Return back-pointers there is no cycle to break with an arena.
type Instance struct {
	Name string
	Def  *ModuleDef
	Env  *Env

	IsPipeFor bool
	State     string
	CurStages []int
	Control   []value.Value

	Active bool
	Stall  bool
}

// NewInstance allocates an instance of def, eagerly building its
// functional-unit and nested-submodule table (submodules are
// allocated up front but stay inactive until a Go op activates them),
// matching the reference implementation's StaticEnv::new recursion.
func NewInstance(prog *Program, def *ModuleDef, name string) *Instance {
	env := newEnv(prog, name)
	for _, u := range def.Units {
		env.sub[u.Name] = &Component{Unit: NewFuncUnit(u)}
	}
	for _, sub := range def.Instances {
		subDef, ok := prog.Modules[sub.ModuleName]
		if !ok {
			panic(fmt.Sprintf("hec: %s: undefined submodule %q", name, sub.ModuleName))
		}
		if subDef.Kind != StrategySTG && subDef.Kind != StrategyPipeFor {
			continue
		}
		env.sub[sub.InstanceName] = &Component{Instance: NewInstance(prog, subDef, sub.InstanceName)}
	}

	inst := &Instance{Name: name, Def: def, Env: env}
	switch def.Kind {
	case StrategyPipeFor:
		inst.IsPipeFor = true
	case StrategySTG:
		inst.State = def.STG.Initial
	}
	return inst
}

func checkStreamGuards(prog *Program, streams []string) bool {
	for _, name := range streams {
		a, b, _ := splitDot(name)
		fifo, ok := prog.Streams[a]
		if !ok {
			continue
		}
		if b == "r_en" && fifo.IsEmpty() {
			return false
		}
		if b == "w_en" && fifo.IsFull() {
			return false
		}
	}
	return true
}

func (inst *Instance) checkStream(prog *Program) bool {
	if inst.IsPipeFor {
		for _, cur := range inst.CurStages {
			if !checkStreamGuards(prog, inst.Def.PipeFor.Stages[cur].Streams) {
				return false
			}
		}
		return true
	}
	state := inst.Def.STG.States[inst.State]
	if state.IsDone {
		return true
	}
	return checkStreamGuards(prog, state.Streams)
}

// Step advances inst by one cycle, returning the tag of a breakpointed
// state/stage that stopped it (if any) and whether it remains active.
// A stalled cycle — a stream guard not satisfied, or a breakpoint —
// still counts as advancing: the instance simply does no work and
// de-asserts done, per checkStream's existing stall contract, which a
// breakpoint halt now reuses.
func (inst *Instance) Step(prog *Program, eng *Engine, sess *session.Session) (tag string, cont bool) {
	if inst.IsPipeFor && len(inst.CurStages) == 0 {
		inst.pipeForInit(prog)
	}
	if !inst.checkStream(prog) {
		inst.Env.Set("done", value.Bool(false))
		inst.Stall = true
		return "", true
	}
	inst.Stall = false

	if inst.IsPipeFor {
		tag, cont = inst.pipeForStep(prog, sess)
	} else {
		tag, cont = inst.stgStep(prog, eng, sess)
	}
	if tag != "" {
		inst.Stall = true
		return tag, true
	}
	if !cont {
		inst.Active = false
	}
	return "", cont
}

// Update commits this cycle's register state: functional-unit
// pipelines advance, and the local variable namespace is cleared
// (preserving the PipeFor induction variable across stage boundaries,
// matching the reference StaticEnv::update(keep) behavior).
func (inst *Instance) Update() {
	if inst.Stall {
		return
	}
	inst.Env.update(inst.IsPipeFor)
}

func (e *Env) update(keepIter bool) {
	if keepIter {
		i, ok := e.vars["i"]
		e.vars = map[string]value.Value{}
		if ok {
			e.vars["i"] = i
		}
	} else {
		e.vars = map[string]value.Value{}
	}
	for _, c := range e.sub {
		if c.Unit != nil {
			c.Unit.Update()
		}
	}
}

// Clear resets an instance's environment when it returns to its
// initial, inactive state, so a reused submodule slot never leaks a
// stale variable or pipeline value into its next activation.
func (inst *Instance) Clear() {
	inst.Env.clear()
}

func (e *Env) clear() {
	e.vars = map[string]value.Value{}
	e.Set("done", value.Bool(false))
	for _, c := range e.sub {
		switch {
		case c.Unit != nil:
			c.Unit.Clear()
		case c.Instance != nil:
			c.Instance.Clear()
		}
	}
}

// stgStep returns the breakpoint tag that stopped it (if any) and
// whether inst remains active. A breakpoint on the current state name
// is checked before either the terminal or non-terminal branch runs,
// so halting on a state about to publish a return value works the
// same as halting on any other state: nothing in it has executed yet.
func (inst *Instance) stgStep(prog *Program, eng *Engine, sess *session.Session) (string, bool) {
	inst.Env.Set("done", value.Bool(false))
	state := inst.Def.STG.States[inst.State]

	if sess != nil && sess.HasBreakpoint(inst.State) {
		return inst.State, true
	}

	if state.IsDone {
		returnArgs := inst.Def.Args[inst.Def.NumIn : len(inst.Def.Args)-1]
		for i, name := range state.Done {
			if i < len(returnArgs) {
				inst.Env.Set(returnArgs[i], inst.Env.Get(name))
			}
		}
		inst.Env.Set("done", value.Bool(true))
		inst.State = inst.Def.STG.Initial
		return "", false
	}

	for _, op := range state.Ops {
		switch op.Kind {
		case OpGo:
			inst.activateSubmodule(op.Instance, eng)
		case OpAssign:
			evalAssign(op.Assign, inst.Env)
		case OpCompute:
			value.OperationEnv(op.Compute, inst.Env)
		case OpEnable:
			inst.Env.Set(op.Port, value.Bool(true))
		case OpDeliver:
			// Deliver only fires inside a PipeFor's stage evaluation;
			// an STG op list never contains one.
		}
	}

	for _, t := range state.Transitions {
		if inst.Env.HasBool(t.Cond, true) {
			inst.State = t.Target
			return "", true
		}
	}
	if state.Default != "" {
		inst.State = state.Default
	}
	return "", true
}

// activateSubmodule marks the named nested instance active on a Go op.
// The submodule takes its first real step on the following cycle — a
// Go pulse only raises the activation flag and enqueues the instance,
// it does not itself step the child.
func (inst *Instance) activateSubmodule(name string, eng *Engine) {
	comp, ok := inst.Env.sub[name]
	if !ok || comp.Instance == nil {
		return
	}
	sub := comp.Instance
	if sub.Active {
		return
	}
	sub.Active = true
	if sub.IsPipeFor {
		sub.Env.Set("done", value.Bool(false))
	}
	eng.active = append(eng.active, sub)
}

func evalAssign(a Assignment, env *Env) {
	if a.Guard != "" && !env.HasBool(a.Guard, true) {
		return
	}
	env.Set(a.Dst, env.Get(a.Src))
}
