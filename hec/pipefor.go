package hec

import (
	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/value"
)

func (inst *Instance) pipeForInit(prog *Program) {
	def := inst.Def.PipeFor
	args := inst.Def.Args
	inst.Control = []value.Value{inst.Env.Get(args[0]), inst.Env.Get(args[1]), inst.Env.Get(args[2])}

	if value.Lte(inst.Control[0], inst.Control[1]).AsBool() {
		inst.CurStages = []int{0}
		for _, init := range def.Inits {
			inst.Env.Set(init.Dst, inst.Env.Get(init.Src))
		}
		inst.Env.Set("i", inst.Control[0])
		inst.Env.Set("done", value.Bool(false))
	} else {
		inst.Env.Set("done", value.Bool(true))
	}
}

// pipeForStep advances every in-flight stage of the wavefront by one
// position, issues a new iteration once the lead stage clears the
// issue interval, and retires the trailing iteration once it walks
// off the end of the stage list. Go ops inside a pipeline stage are
// evaluated for every other side effect but never activate a
// submodule — the reference implementation's pipeline stepper only
// acts on a stage op's Deliver result, silently dropping Go, so a
// submodule can only be started from an STG state's op list.
//
// A breakpoint on any in-flight stage's name halts the whole instance
// for this cycle rather than just that one stage: the wavefront's
// stages share a single advance/admit/retire pass, so there is no way
// to stop one stage's bookkeeping without corrupting the others.
func (inst *Instance) pipeForStep(prog *Program, sess *session.Session) (string, bool) {
	def := inst.Def.PipeFor
	env := inst.Env
	env.Set("done", value.Bool(false))

	if len(inst.CurStages) == 0 {
		return "", false
	}

	if sess != nil {
		for _, cur := range inst.CurStages {
			if name := def.Stages[cur].Name; name != "" && sess.HasBreakpoint(name) {
				return name, true
			}
		}
	}
	stageNum := len(inst.CurStages)

	for i, cur := range inst.CurStages {
		stage := def.Stages[cur]
		for _, op := range stage.Ops {
			switch op.Kind {
			case OpDeliver:
				val := env.Get(op.Deliver.Src)
				if stageNum > 1 {
					env.Set(op.Deliver.DstReg, val)
				} else {
					env.Set(op.Deliver.DstPort, val)
				}
			case OpAssign:
				evalAssign(op.Assign, env)
			case OpCompute:
				value.OperationEnv(op.Compute, env)
			case OpEnable:
				env.Set(op.Port, value.Bool(true))
			case OpGo:
				// Intentionally ignored inside a pipeline stage.
			}
		}
		inst.CurStages[i] = cur + 1
	}

	if inst.CurStages[0] == def.II {
		iter := env.Get("i")
		next := value.Add(iter, inst.Control[2])
		if value.Lte(next, inst.Control[1]).AsBool() {
			env.Set("i", next)
			inst.CurStages = append([]int{0}, inst.CurStages...)
		}
	}

	if inst.CurStages[len(inst.CurStages)-1] == len(def.Stages) {
		inst.CurStages = inst.CurStages[:len(inst.CurStages)-1]
		if len(inst.CurStages) == 0 {
			env.Set("done", value.Bool(true))
			return "", false
		}
	}
	return "", true
}
