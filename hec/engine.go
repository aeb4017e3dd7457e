package hec

import (
	"github.com/pku-liang/hestia/handshake"
	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/value"
)

// Engine drives every live instance and, for a Handshake-strategy
// call, the single top-level dataflow network — the reference
// implementation never nests a Handshake module inside another
// instance, so one Engine owns at most one Scheduler at a time.
type Engine struct {
	Prog *Program

	active []*Instance

	network *handshake.Scheduler
	cycles  int

	rootIndex map[*Instance]int
	// Returns holds, per root CallFunction call in call order, the
	// values an STG root published on the cycle it terminated —
	// captured before that instance's env is cleared, since a plain
	// variable does not survive past the cycle that set it.
	Returns [][]value.Value

	equalPoints map[string][]string
	equalValues map[[2]string]value.Value
}

// equalKey identifies one HEC equivalence point: an STG state paired
// with the named primitive (functional unit) whose "<primitive>.result"
// port is read while that state is current.
type equalKey = [2]string

// SetEqualPoint registers primitive as a functional unit whose result
// port should be captured every cycle an instance is sitting in state,
// for the cosimulation coordinator to compare against the ToR side.
func (eng *Engine) SetEqualPoint(state, primitive string) {
	if eng.equalPoints == nil {
		eng.equalPoints = map[string][]string{}
	}
	eng.equalPoints[state] = append(eng.equalPoints[state], primitive)
}

// TakeEqualValues returns every equivalence-point value recorded since
// the last call (keyed by state+primitive) and clears the record.
func (eng *Engine) TakeEqualValues() map[equalKey]value.Value {
	out := eng.equalValues
	eng.equalValues = nil
	return out
}

// Finish reports whether there is no remaining work, matching the
// cosimulation coordinator's per-side completion check.
func (eng *Engine) Finish() bool {
	return !eng.Active()
}

// NewEngine creates an engine bound to prog's memories, streams, and
// module table.
func NewEngine(prog *Program) *Engine {
	return &Engine{Prog: prog}
}

// CallFunction activates moduleName as a root instance bound to args,
// or — for a Handshake-strategy module — builds its dataflow network.
// It returns the root instance, or nil for a Handshake call (there is
// no STG/PipeFor instance to report on).
func (eng *Engine) CallFunction(moduleName string, args []value.Value) *Instance {
	def, ok := eng.Prog.Modules[moduleName]
	if !ok {
		panic("hec: undefined module " + moduleName)
	}

	if def.Kind == StrategyHandshake {
		eng.network = buildHandshakeNetwork(eng.Prog, def, args)
		return nil
	}

	inst := NewInstance(eng.Prog, def, moduleName)
	for i, a := range args {
		if i < len(def.Args) {
			inst.Env.Set(def.Args[i], a)
		}
	}
	inst.Active = true
	if inst.IsPipeFor {
		inst.pipeForInit(eng.Prog)
	}
	eng.active = append(eng.active, inst)

	if eng.rootIndex == nil {
		eng.rootIndex = map[*Instance]int{}
	}
	eng.rootIndex[inst] = len(eng.Returns)
	eng.Returns = append(eng.Returns, nil)
	return inst
}

// returnValues reads inst's published return slots (the module's
// trailing args, excluding the implicit done flag) in declaration
// order. Only meaningful for an STG instance that just turned
// terminal this cycle.
func (inst *Instance) returnValues() []value.Value {
	if inst.IsPipeFor || inst.Def.STG == nil {
		return nil
	}
	names := inst.Def.Args[inst.Def.NumIn : len(inst.Def.Args)-1]
	vals := make([]value.Value, len(names))
	for i, name := range names {
		vals[i] = inst.Env.Get(name)
	}
	return vals
}

// Active reports whether there is still work left to step: a live
// STG/PipeFor instance, or a dataflow network with an unretired
// value in flight.
func (eng *Engine) Active() bool {
	if len(eng.active) > 0 {
		return true
	}
	return eng.network != nil && !eng.network.Quiescent()
}

// Step advances the simulation by up to n cycles, or until a
// breakpoint fires, mirroring tor.Engine.Step's batch-with-early-halt
// shape. It returns the tag of the state or pipeline stage that
// stopped it, or "" if all n cycles ran (or the engine ran out of
// active work) without hitting one. sess may be nil, disabling
// breakpoint checks entirely.
func (eng *Engine) Step(n int, sess *session.Session) (haltedOn string) {
	for i := 0; i < n; i++ {
		if !eng.Active() {
			return ""
		}
		if tag := eng.stepCycle(sess); tag != "" {
			return tag
		}
	}
	return ""
}

// stepCycle advances every live instance (or the dataflow network) by
// one cycle. A breakpoint hit on one instance does not retroactively
// undo work already committed by instances processed earlier in this
// same cycle's pass — the same ordering-dependent trade-off
// tor.Engine.Step already makes — it only stops that instance, and
// every instance from that point on in the pass, from doing any work
// this cycle.
func (eng *Engine) stepCycle(sess *session.Session) string {
	eng.cycles++
	if eng.network != nil {
		eng.network.StepCycle()
		return ""
	}

	current := eng.active
	eng.active = nil

	halted := ""
	var continuing, stopped []*Instance
	for _, inst := range current {
		if halted != "" {
			continuing = append(continuing, inst)
			continue
		}
		tag, cont := inst.Step(eng.Prog, eng, sess)
		if tag != "" {
			halted = tag
		}
		if cont {
			continuing = append(continuing, inst)
		} else {
			stopped = append(stopped, inst)
			if idx, ok := eng.rootIndex[inst]; ok {
				eng.Returns[idx] = inst.returnValues()
			}
		}
	}
	for _, inst := range continuing {
		inst.Update()
	}
	for _, inst := range stopped {
		inst.Clear()
	}
	// Instances activated via Go this cycle (appended to eng.active by
	// activateSubmodule, called from within the loop above) are
	// deliberately left untouched otherwise: a Go op only raises the
	// activation flag, it does not step the child, so a parent's
	// same-cycle Assign writing the child's input ports must still be
	// visible when the child takes its own first step next cycle.
	eng.active = append(continuing, eng.active...)

	for _, m := range eng.Prog.Memories {
		m.Update()
	}
	for _, f := range eng.Prog.Streams {
		f.Update()
	}

	if len(eng.equalPoints) > 0 {
		eng.captureEqualValues()
	}
	return halted
}

// captureEqualValues mirrors the reference engine's post-update
// equivalence scan: every still-active STG instance (a PipeFor never
// carries an equivalence point — the reference scan skips it outright)
// whose current state has one or more registered primitives has each
// primitive's "<name>.result" port value recorded, keyed by state and
// primitive name.
func (eng *Engine) captureEqualValues() {
	for _, inst := range eng.active {
		if inst.IsPipeFor {
			continue
		}
		primitives, ok := eng.equalPoints[inst.State]
		if !ok {
			continue
		}
		if eng.equalValues == nil {
			eng.equalValues = map[equalKey]value.Value{}
		}
		for _, prim := range primitives {
			eng.equalValues[equalKey{inst.State, prim}] = inst.Env.Get(prim + ".result")
		}
	}
}

// Cycles reports the number of cycles stepped so far, across every
// Step call.
func (eng *Engine) Cycles() int { return eng.cycles }

// WatchValues returns the current value of every watched tag that
// resolves against a live instance's namespace — a plain variable or a
// "<unit>.<port>" dotted reference — keyed by tag, for the cmd front
// door's post-step watchpoint print. A tag already found in an
// earlier instance is not overwritten by a later one.
func (eng *Engine) WatchValues(sess *session.Session) map[string]value.Value {
	if sess == nil {
		return nil
	}
	tags := sess.Watchpoints()
	if len(tags) == 0 {
		return nil
	}
	out := map[string]value.Value{}
	for _, inst := range eng.active {
		for _, tag := range tags {
			if _, found := out[tag]; found {
				continue
			}
			if v, ok := inst.Env.TryGet(tag); ok {
				out[tag] = v
			}
		}
	}
	return out
}
