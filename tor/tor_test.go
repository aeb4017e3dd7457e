package tor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/tor"
	"github.com/pku-liang/hestia/value"
)

func sumLoopGraph() *tor.Graph {
	g := tor.NewGraph(4)
	g.Start, g.End = 0, 3

	g.Nodes[0] = tor.Node{Kind: tor.NodeBeginFor, For: &tor.ForCtl{IterName: "i", UpperBound: "ub", Step: "step"}}
	g.Nodes[1] = tor.Node{Kind: tor.NodeNormal}
	g.Nodes[2] = tor.Node{Kind: tor.NodeEndFor, For: &tor.ForCtl{IterName: "i", UpperBound: "ub", Step: "step"}}
	g.Nodes[3] = tor.Node{Kind: tor.NodeReturn, Return: &tor.ReturnCtl{Names: []string{"acc"}}}

	g.AddEdge(0, tor.Edge{To: 1, Kind: tor.EdgeStatic, Branch: "enter"})
	g.AddEdge(0, tor.Edge{To: 3, Kind: tor.EdgeStatic, Branch: "exit"})
	g.AddEdge(1, tor.Edge{To: 2, Kind: tor.EdgeStatic, Ops: []value.Compute{
		{Name: "acc", OpType: "add", Operands: []string{"acc", "i"}},
	}})
	g.AddEdge(2, tor.Edge{To: 1, Kind: tor.EdgeStatic, Branch: "continue"})
	g.AddEdge(2, tor.Edge{To: 3, Kind: tor.EdgeStatic, Branch: "exit"})
	return g
}

var _ = Describe("ToR static engine", func() {
	It("sums i in [0,4) via BeginFor/EndFor", func() {
		p := tor.NewProgram()
		Expect(p.AddFunction(&tor.Function{Name: "sum", Args: []string{"i", "ub", "step", "acc"}, Graph: sumLoopGraph()})).To(Succeed())

		e := tor.NewEngine(p)
		Expect(e.CallFunction("sum", []value.Value{value.I32(0), value.I32(4), value.I32(1), value.I32(0)})).To(Succeed())

		for e.Active() {
			e.Step(1, nil)
		}

		Expect(e.Returns).To(HaveLen(1))
		Expect(e.Returns[0][0].AsI32()).To(Equal(int32(6)))
	})

	It("unwinds a Call node back into the caller's environment", func() {
		inner := tor.NewGraph(2)
		inner.Start, inner.End = 0, 1
		inner.Nodes[0] = tor.Node{Kind: tor.NodeNormal}
		inner.Nodes[1] = tor.Node{Kind: tor.NodeReturn, Return: &tor.ReturnCtl{Names: []string{"twice"}}}
		inner.AddEdge(0, tor.Edge{To: 1, Kind: tor.EdgeStatic, Ops: []value.Compute{
			{Name: "twice", OpType: "add", Operands: []string{"x", "x"}},
		}})

		outer := tor.NewGraph(2)
		outer.Start, outer.End = 0, 1
		outer.Nodes[0] = tor.Node{Kind: tor.NodeCall, Call: &tor.CallCtl{Function: "inner", Args: []string{"n"}, Names: []string{"r"}}}
		outer.Nodes[1] = tor.Node{Kind: tor.NodeReturn, Return: &tor.ReturnCtl{Names: []string{"r"}}}
		outer.AddEdge(0, tor.Edge{To: 1, Kind: tor.EdgeStatic})

		p := tor.NewProgram()
		Expect(p.AddFunction(&tor.Function{Name: "inner", Args: []string{"x"}, Graph: inner})).To(Succeed())
		Expect(p.AddFunction(&tor.Function{Name: "outer", Args: []string{"n"}, Graph: outer})).To(Succeed())

		e := tor.NewEngine(p)
		Expect(e.CallFunction("outer", []value.Value{value.I32(5)})).To(Succeed())

		for e.Active() {
			e.Step(1, nil)
		}

		Expect(e.Returns).To(HaveLen(1))
		Expect(e.Returns[0][0].AsI32()).To(Equal(int32(10)))
	})
})

var _ = Describe("ToR aligned-if latency", func() {
	It("pads the shorter branch so both arrive at the if-end node together", func() {
		g := tor.NewGraph(4)
		g.Nodes[0] = tor.Node{Kind: tor.NodeBeginIf, If: &tor.IfCtl{Cond: "c", EndNode: 3}}
		g.Nodes[1] = tor.Node{Kind: tor.NodeNormal}
		g.Nodes[2] = tor.Node{Kind: tor.NodeNormal}
		g.Nodes[3] = tor.Node{Kind: tor.NodeIfEnd}

		g.AddEdge(0, tor.Edge{To: 1, Kind: tor.EdgeStatic, Branch: "true"})
		g.AddEdge(0, tor.Edge{To: 2, Kind: tor.EdgeStaticN, Cycles: 3, Branch: "false"})
		g.AddEdge(1, tor.Edge{To: 3, Kind: tor.EdgeStatic})
		g.AddEdge(2, tor.Edge{To: 3, Kind: tor.EdgeStatic})

		tor.AlignIfLatencies(g)

		Expect(g.Nodes[0].If.AlignedLatency).To(Equal(4))
		trueEdge := g.Edges[0][0]
		Expect(trueEdge.Kind).To(Equal(tor.EdgeStaticN))
		Expect(trueEdge.Cycles).To(Equal(3))
		falseEdge := g.Edges[0][1]
		Expect(falseEdge.Cycles).To(Equal(3))
	})
})

var _ = Describe("ToR pipelined for", func() {
	It("overlaps n=8 iterations at ii=1 over a 3-cycle body in 12 cycles", func() {
		var order []int
		spec := &tor.PipelineSpec{
			TripCount: 8,
			II:        1,
			Latency:   3,
			IterName:  "i",
			Commit: func(iter int, env *tor.Env) {
				order = append(order, iter)
			},
		}
		inst := tor.NewPipelineInstance(spec)
		cycles := inst.Run()

		Expect(cycles).To(Equal(12))
		Expect(order).To(HaveLen(8))
		Expect(order[7]).To(Equal(7))
	})
})
