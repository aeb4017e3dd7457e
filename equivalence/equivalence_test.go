package equivalence_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/equivalence"
	"github.com/pku-liang/hestia/hec"
	"github.com/pku-liang/hestia/tor"
	"github.com/pku-liang/hestia/value"
)

// torMulGraph computes result = x*y in a single edge, named "result"
// so it can be installed as a ToR-side equivalence point.
func torMulGraph() *tor.Graph {
	g := tor.NewGraph(2)
	g.Start, g.End = 0, 1
	g.Nodes[0] = tor.Node{Kind: tor.NodeNormal}
	g.Nodes[1] = tor.Node{Kind: tor.NodeReturn, Return: &tor.ReturnCtl{Names: []string{"result"}}}
	g.AddEdge(0, tor.Edge{To: 1, Kind: tor.EdgeStatic, Ops: []value.Compute{
		{Name: "result", OpType: "mul", Operands: []string{"x", "y"}},
	}})
	return g
}

// hecMulModule computes the same product through a 3-cycle
// mul_integer unit, idling two states so the pipelined result has
// time to surface on "mul0.result" before the terminal state reads
// it. "s3" — the resting state the instance lands in once the
// product is ready but before the terminal state's own ops run — is
// the HEC-side equivalence point.
func hecMulModule() *hec.ModuleDef {
	return &hec.ModuleDef{
		Name:  "mulfn",
		Args:  []string{"x", "y", "result", "done"},
		Types: []string{"i32", "i32", "i32", "bool"},
		NumIn: 2,
		Units: []hec.UnitDef{{OpType: "mul_integer", Name: "mul0", Types: []string{"i32", "i32", "i32"}}},
		Kind:  hec.StrategySTG,
		STG: &hec.STGDef{
			Initial: "s0",
			States: map[string]*hec.StateDef{
				"s0": {
					Ops: []hec.Operation{
						{Kind: hec.OpAssign, Assign: hec.Assignment{Dst: "mul0.operand0", Src: "x"}},
						{Kind: hec.OpAssign, Assign: hec.Assignment{Dst: "mul0.operand1", Src: "y"}},
					},
					Default: "s1",
				},
				"s1": {Default: "s2"},
				"s2": {Default: "s3"},
				"s3": {
					IsDone: true,
					Done:   []string{"mul0.result"},
				},
			},
		},
	}
}

var _ = Describe("equivalence coordinator", func() {
	It("cosimulates a matching ToR/HEC pair without a mismatch", func() {
		tp := tor.NewProgram()
		Expect(tp.AddFunction(&tor.Function{Name: "mulfn", Args: []string{"x", "y"}, Graph: torMulGraph()})).To(Succeed())
		torEng := tor.NewEngine(tp)
		Expect(torEng.CallFunction("mulfn", []value.Value{value.I32(3), value.I32(4)})).To(Succeed())

		hp := hec.NewProgram()
		hp.Modules["mulfn"] = hecMulModule()
		hecEng := hec.NewEngine(hp)
		hecEng.CallFunction("mulfn", []value.Value{value.I32(3), value.I32(4)})

		coord := equivalence.NewCoordinator(torEng, hecEng)
		coord.Load([]equivalence.Mapping{
			{Start: "s0", End: "s3", Op: "result", Primitive: "mul0"},
		})

		var result equivalence.Result
		Expect(func() { result = coord.Run(nil) }).NotTo(Panic())

		Expect(torEng.Returns).To(HaveLen(1))
		Expect(torEng.Returns[0][0].AsI32()).To(Equal(int32(12)))
		Expect(hecEng.Returns[0][0].AsI32()).To(Equal(int32(12)))
		Expect(result.ToRCycles).To(BeNumerically(">", 0))
		Expect(result.HECCycles).To(BeNumerically(">", 0))
	})

	It("panics naming the operation and primitive on a value mismatch", func() {
		tp := tor.NewProgram()
		Expect(tp.AddFunction(&tor.Function{Name: "mulfn", Args: []string{"x", "y"}, Graph: torMulGraph()})).To(Succeed())
		torEng := tor.NewEngine(tp)
		Expect(torEng.CallFunction("mulfn", []value.Value{value.I32(3), value.I32(4)})).To(Succeed())

		hp := hec.NewProgram()
		hp.Modules["mulfn"] = hecMulModule()
		hecEng := hec.NewEngine(hp)
		// Deliberately mismatched operand so the HEC side's product
		// diverges from the ToR side's.
		hecEng.CallFunction("mulfn", []value.Value{value.I32(3), value.I32(5)})

		coord := equivalence.NewCoordinator(torEng, hecEng)
		coord.Load([]equivalence.Mapping{
			{Start: "s0", End: "s3", Op: "result", Primitive: "mul0"},
		})

		Expect(func() { coord.Run(nil) }).To(PanicWith(ContainSubstring(`operation "result" and primitive "mul0"`)))
	})
})
