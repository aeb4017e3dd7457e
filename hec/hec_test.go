package hec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/hec"
	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

// latchModule bridges a value across a single instance's own
// vars-clear boundary: state s0 stages the input argument into a
// register functional unit, state s1 (terminal) reads the register
// one cycle later and publishes it as the module's return value. A
// plain variable set in s0 would already be gone by the time s1 runs
// — Update() wipes every local variable every cycle — so only a
// register port (not cleared until the instance itself is Clear()'d)
// can carry a value across the boundary.
func latchModule() *hec.ModuleDef {
	return &hec.ModuleDef{
		Name:  "latch",
		Args:  []string{"x", "y", "done"},
		Types: []string{"i32", "i32", "bool"},
		NumIn: 1,
		Units: []hec.UnitDef{{OpType: "register", Name: "reg", Types: []string{"i32"}}},
		Kind:  hec.StrategySTG,
		STG: &hec.STGDef{
			Initial: "s0",
			States: map[string]*hec.StateDef{
				"s0": {
					Ops: []hec.Operation{
						{Kind: hec.OpAssign, Assign: hec.Assignment{Dst: "reg.reg", Src: "x"}},
					},
					Default: "s1",
				},
				"s1": {
					IsDone: true,
					Done:   []string{"reg.reg"},
				},
			},
		},
	}
}

// looperModule is a PipeFor with a 2-stage body and an issue interval
// equal to the stage count, so no two iterations ever overlap.
func looperModule() *hec.ModuleDef {
	return &hec.ModuleDef{
		Name:  "looper",
		Args:  []string{"lower", "upper", "step"},
		NumIn: 3,
		Kind:  hec.StrategyPipeFor,
		PipeFor: &hec.PipeForDef{
			Stages: []hec.StageDef{
				{Name: "stage0"},
				{Name: "stage1"},
			},
			II: 2,
		},
	}
}

// waiterModule never leaves its initial state while its guarded
// stream has no data for it to read.
func waiterModule() *hec.ModuleDef {
	return &hec.ModuleDef{
		Name:  "waiter",
		Args:  []string{"x", "done"},
		NumIn: 1,
		Kind:  hec.StrategySTG,
		STG: &hec.STGDef{
			Initial: "s0",
			States: map[string]*hec.StateDef{
				"s0": {
					Streams: []string{"in.r_en"},
					Default: "s0",
				},
			},
		},
	}
}

// callerModule activates a submodule, writing its input port the same
// cycle it pulses Go.
func callerModule() *hec.ModuleDef {
	return &hec.ModuleDef{
		Name:      "caller",
		Args:      []string{"in", "done"},
		NumIn:     1,
		Instances: []hec.SubmoduleDef{{InstanceName: "child", ModuleName: "childMod"}},
		Kind:      hec.StrategySTG,
		STG: &hec.STGDef{
			Initial: "s0",
			States: map[string]*hec.StateDef{
				"s0": {
					Ops: []hec.Operation{
						{Kind: hec.OpAssign, Assign: hec.Assignment{Dst: "child.in", Src: "in"}},
						{Kind: hec.OpGo, Instance: "child"},
					},
					Default: "s1",
				},
				"s1": {Default: "s1"},
			},
		},
	}
}

// childModule latches its input into its own register every cycle it
// runs, forever — used only to observe when it first takes a step.
func childModule() *hec.ModuleDef {
	return &hec.ModuleDef{
		Name:  "childMod",
		Args:  []string{"in", "done"},
		NumIn: 1,
		Units: []hec.UnitDef{{OpType: "register", Name: "reg", Types: []string{"i32"}}},
		Kind:  hec.StrategySTG,
		STG: &hec.STGDef{
			Initial: "s0",
			States: map[string]*hec.StateDef{
				"s0": {
					Ops: []hec.Operation{
						{Kind: hec.OpAssign, Assign: hec.Assignment{Dst: "reg.reg", Src: "in"}},
					},
					Default: "s0",
				},
			},
		},
	}
}

var _ = Describe("HEC static engine", func() {
	It("publishes a terminal STG's return value via a register, not a plain variable", func() {
		p := hec.NewProgram()
		p.Modules["latch"] = latchModule()

		eng := hec.NewEngine(p)
		eng.CallFunction("latch", []value.Value{value.I32(7)})

		for eng.Active() {
			eng.Step(1, nil)
		}

		Expect(eng.Cycles()).To(Equal(2))
		Expect(eng.Returns).To(HaveLen(1))
		Expect(eng.Returns[0][0].AsI32()).To(Equal(int32(7)))
	})

	It("drains a 3-iteration, 2-stage, fully-sequential PipeFor in exactly 6 cycles", func() {
		p := hec.NewProgram()
		p.Modules["looper"] = looperModule()

		eng := hec.NewEngine(p)
		eng.CallFunction("looper", []value.Value{value.I32(0), value.I32(2), value.I32(1)})

		for eng.Active() {
			eng.Step(1, nil)
		}

		Expect(eng.Cycles()).To(Equal(6))
	})

	It("stalls an STG state whose guarded stream has no data, without asserting done", func() {
		p := hec.NewProgram()
		p.Modules["waiter"] = waiterModule()
		p.Streams["in"] = storage.NewHardwareFIFO("in", "i32", 1)

		eng := hec.NewEngine(p)
		inst := eng.CallFunction("waiter", []value.Value{value.I32(1)})

		for i := 0; i < 5; i++ {
			eng.Step(1, nil)
		}

		Expect(inst.State).To(Equal("s0"))
		Expect(inst.Stall).To(BeTrue())
		Expect(inst.Env.Get("done").AsBool()).To(BeFalse())
	})

	It("activates a submodule on the cycle after Go, not the same cycle, so a same-cycle input Assign survives", func() {
		p := hec.NewProgram()
		p.Modules["caller"] = callerModule()
		p.Modules["childMod"] = childModule()

		eng := hec.NewEngine(p)
		root := eng.CallFunction("caller", []value.Value{value.I32(9)})

		eng.Step(1, nil)
		// The child has been enqueued but has not taken a step yet: its
		// input port is already set (the parent's same-cycle Assign was
		// never wiped), but its register has not latched anything.
		Expect(root.Env.Get("child.in").AsI32()).To(Equal(int32(9)))
		Expect(root.Env.Get("child.reg.reg").IsError()).To(BeTrue())

		eng.Step(1, nil)
		// Only now, one cycle after Go, has the child taken its first
		// step and latched its input into its register.
		Expect(root.Env.Get("child.reg.reg").AsI32()).To(Equal(int32(9)))
	})

	It("halts before a breakpointed state's cycle executes, then resumes once it is cleared", func() {
		p := hec.NewProgram()
		p.Modules["latch"] = latchModule()

		sess := session.New()
		sess.SetBreakpoint("s0")

		eng := hec.NewEngine(p)
		inst := eng.CallFunction("latch", []value.Value{value.I32(7)})

		tag := eng.Step(1, sess)
		Expect(tag).To(Equal("s0"))
		Expect(inst.State).To(Equal("s0"))
		Expect(eng.Returns[0]).To(BeNil())

		sess.UnsetBreakpoint("s0")
		for eng.Active() {
			eng.Step(1, sess)
		}

		Expect(eng.Returns[0][0].AsI32()).To(Equal(int32(7)))
	})
})
