package software_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/software"
	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

// S1: fib(10) via for i in 2..=10 accumulating a,b = b, a+b.
var _ = Describe("Software interpreter: S1 fib", func() {
	It("computes fib(10) == 55", func() {
		p := software.NewProgram()
		fib := &software.Function{
			Name: "fib",
			Args: []string{"n", "a0", "b0", "i0", "ub", "step"},
			Body: []software.Op{
				{
					Kind: software.OpFor,
					Name: "loop",
					For: &software.ForSpec{
						IterName:     "i",
						LowerBound:   "i0",
						UpperBound:   "ub",
						Step:         "step",
						IterArgNames: []string{"a", "b"},
						IterArgInit:  []string{"a0", "b0"},
						ResultNames:  []string{"a_final", "b_final"},
						Body: []software.Op{
							{Kind: software.OpCompute, Name: "sum", Compute: value.Compute{
								Name: "sum", OpType: "add", Operands: []string{"a", "b"},
							}},
							{Kind: software.OpYield, Yield: &software.YieldSpec{Values: []string{"b", "sum"}}},
						},
					},
				},
				{Kind: software.OpReturn, ReturnNames: []string{"b_final"}},
			},
		}
		Expect(p.AddFunction(fib)).To(Succeed())

		var out bytes.Buffer
		interp := software.NewInterp(p, &out)
		Expect(interp.CallFunction("fib", []value.Value{
			value.I32(10), value.I32(0), value.I32(1), value.I32(2), value.I32(11), value.I32(1),
		})).To(Succeed())

		for interp.Active() {
			interp.Step(1, nil)
		}

		Expect(interp.Returns).To(HaveLen(1))
		Expect(interp.Returns[0][0].AsI32()).To(Equal(int32(55)))
	})

	It("stops before executing a breakpointed op", func() {
		p := software.NewProgram()
		fn := &software.Function{
			Name: "f",
			Args: nil,
			Body: []software.Op{
				{Kind: software.OpCompute, Name: "x", Compute: value.Compute{Name: "x", OpType: "add", Operands: nil}},
				{Kind: software.OpReturn, ReturnNames: []string{"x"}},
			},
		}
		Expect(p.AddFunction(fn)).To(Succeed())

		var out bytes.Buffer
		interp := software.NewInterp(p, &out)
		Expect(interp.CallFunction("f", nil)).To(Succeed())

		sess := session.New()
		sess.SetBreakpoint("x")
		halted := interp.Step(5, sess)
		Expect(halted).To(Equal("x"))
		Expect(interp.Returns).To(BeEmpty())
	})
})

// S2: a[i] = i*i for i in [0,4); show_mem a reports [0,1,4,9]; load a[2] == 4.
var _ = Describe("Software interpreter: S2 memory", func() {
	It("writes squares into memory and loads a[2] == 4", func() {
		p := software.NewProgram()
		mem := storage.NewMemory("a", "i32", 4)
		Expect(p.AddMemory(mem)).To(Succeed())

		fn := &software.Function{
			Name: "squares",
			Args: []string{"i0", "ub", "step", "two_idx"},
			Body: []software.Op{
				{
					Kind: software.OpFor,
					Name: "loop",
					For: &software.ForSpec{
						IterName:    "i",
						LowerBound:  "i0",
						UpperBound:  "ub",
						Step:        "step",
						ResultNames: nil,
						Body: []software.Op{
							{Kind: software.OpCompute, Name: "sq", Compute: value.Compute{
								Name: "sq", OpType: "mul", Operands: []string{"i", "i"},
							}},
							{Kind: software.OpStore, Store: &software.StoreSpec{MemoryName: "a", Index: "i", Value: "sq"}},
							{Kind: software.OpYield, Yield: &software.YieldSpec{Values: nil}},
						},
					},
				},
				{Kind: software.OpLoad, Name: "loaded", Load: &software.LoadSpec{MemoryName: "a", Index: "two_idx"}},
				{Kind: software.OpReturn, ReturnNames: []string{"loaded"}},
			},
		}
		Expect(p.AddFunction(fn)).To(Succeed())

		var out bytes.Buffer
		interp := software.NewInterp(p, &out)
		Expect(interp.CallFunction("squares", []value.Value{
			value.I32(0), value.I32(4), value.I32(1), value.I32(2),
		})).To(Succeed())

		for interp.Active() {
			interp.Step(1, nil)
		}

		snap := mem.Snapshot()
		Expect(snap[0].AsI32()).To(Equal(int32(0)))
		Expect(snap[1].AsI32()).To(Equal(int32(1)))
		Expect(snap[2].AsI32()).To(Equal(int32(4)))
		Expect(snap[3].AsI32()).To(Equal(int32(9)))

		Expect(interp.Returns[0][0].AsI32()).To(Equal(int32(4)))
	})
})
