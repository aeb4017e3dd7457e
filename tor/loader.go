package tor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pku-liang/hestia/ir"
	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

// bundle is the on-disk shape of a ToR-level IR file: a level header,
// the memories/streams every function can share, and the function
// table itself.
type bundle struct {
	ir.Header
	Memories  []ir.MemoryDef    `json:"memories"`
	Streams   []ir.StreamDef    `json:"streams"`
	Functions []functionDecoder `json:"functions"`
}

type functionDecoder struct {
	Name  string       `json:"name"`
	Args  []string     `json:"args"`
	Graph graphDecoder `json:"graph"`
}

type graphDecoder struct {
	Start int            `json:"start"`
	End   int            `json:"end"`
	Nodes []nodeDecoder  `json:"nodes"`
	Edges []edgeDecoder  `json:"edges"`
}

type nodeDecoder struct {
	Kind string `json:"kind"`

	IterName   string `json:"iter_name"`
	LowerBound string `json:"lower_bound"`
	UpperBound string `json:"upper_bound"`
	Step       string `json:"step"`

	Cond    string `json:"cond"`
	EndNode int    `json:"end_node"`

	Names []string `json:"names"`

	Function string   `json:"function"`
	Args     []string `json:"args"`
}

// lower turns one decoded node into its runtime Node. Control tags
// that carry no payload (Normal, EndFor, IfEnd) need nothing beyond
// the Kind switch below; EndFor reuses the same ForCtl as BeginFor
// since both read iter/step/upper_bound off the same loop variables.
func (d nodeDecoder) lower() (Node, error) {
	switch d.Kind {
	case "normal":
		return Node{Kind: NodeNormal}, nil
	case "begin_for", "end_for":
		kind := NodeBeginFor
		if d.Kind == "end_for" {
			kind = NodeEndFor
		}
		return Node{Kind: kind, For: &ForCtl{
			IterName:   d.IterName,
			LowerBound: d.LowerBound,
			UpperBound: d.UpperBound,
			Step:       d.Step,
		}}, nil
	case "begin_if":
		return Node{Kind: NodeBeginIf, If: &IfCtl{Cond: d.Cond, EndNode: d.EndNode}}, nil
	case "if_end":
		return Node{Kind: NodeIfEnd}, nil
	case "return":
		return Node{Kind: NodeReturn, Return: &ReturnCtl{Names: d.Names}}, nil
	case "call":
		return Node{Kind: NodeCall, Call: &CallCtl{Function: d.Function, Args: d.Args, Names: d.Names}}, nil
	default:
		return Node{}, fmt.Errorf("tor: undefined node kind %q", d.Kind)
	}
}

type edgeDecoder struct {
	From   int            `json:"from"`
	To     int            `json:"to"`
	Type   string         `json:"type"`
	Ops    []ir.ComputeDef `json:"ops"`
	Branch string         `json:"branch"`
}

// lower decodes the edge's type tag: "static" (one cycle), "static-for"
// (the pipelined loop back-edge, also one cycle), or "static:N" (a
// fixed N-cycle edge used to pad a branch's latency).
func (d edgeDecoder) lower() (Edge, error) {
	e := Edge{To: d.To, Branch: d.Branch}
	for _, c := range d.Ops {
		e.Ops = append(e.Ops, value.Compute{
			Name:       c.Name,
			OpType:     c.OpType,
			ReturnType: c.ReturnType,
			Operands:   c.Operands,
		})
	}
	switch {
	case d.Type == "static":
		e.Kind = EdgeStatic
	case d.Type == "static-for":
		e.Kind = EdgeStaticFor
	case strings.HasPrefix(d.Type, "static:"):
		n, err := strconv.Atoi(strings.TrimPrefix(d.Type, "static:"))
		if err != nil {
			return Edge{}, fmt.Errorf("tor: malformed edge type %q: %w", d.Type, err)
		}
		e.Kind, e.Cycles = EdgeStaticN, n
	default:
		return Edge{}, fmt.Errorf("tor: undefined edge type %q", d.Type)
	}
	return e, nil
}

func (d graphDecoder) lower() (*Graph, error) {
	g := NewGraph(len(d.Nodes))
	g.Start, g.End = d.Start, d.End
	for i, nd := range d.Nodes {
		node, err := nd.lower()
		if err != nil {
			return nil, err
		}
		g.Nodes[i] = node
	}
	for _, ed := range d.Edges {
		edge, err := ed.lower()
		if err != nil {
			return nil, err
		}
		g.AddEdge(ed.From, edge)
	}
	AlignIfLatencies(g)
	return g, nil
}

// Load decodes a ToR-level IR bundle into a runnable Program, aligning
// every if-region's branch latencies as it builds each function's
// graph.
func Load(data []byte) (*Program, error) {
	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("tor: malformed bundle: %w", err)
	}
	if b.Level != ir.LevelToR {
		return nil, fmt.Errorf("tor: bundle level is %q, want %q", b.Level, ir.LevelToR)
	}

	p := NewProgram()
	for _, m := range b.Memories {
		if err := p.AddMemory(storage.NewMemory(m.Name, m.Type, m.Size)); err != nil {
			return nil, err
		}
	}
	for _, s := range b.Streams {
		p.Streams[s.Name] = storage.NewStream(s.Name, s.Type, s.Depth)
	}
	for _, f := range b.Functions {
		g, err := f.Graph.lower()
		if err != nil {
			return nil, fmt.Errorf("tor: function %q: %w", f.Name, err)
		}
		if err := p.AddFunction(&Function{Name: f.Name, Args: f.Args, Graph: g}); err != nil {
			return nil, err
		}
	}
	return p, nil
}
