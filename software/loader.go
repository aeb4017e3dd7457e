package software

import (
	"encoding/json"
	"fmt"

	"github.com/pku-liang/hestia/ir"
	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

// bundle is the on-disk shape of a software-level IR file: a level
// header, a list of memories, and a list of function definitions.
type bundle struct {
	ir.Header
	Memories  []ir.MemoryDef    `json:"memories"`
	Functions []functionDecoder `json:"functions"`
}

type functionDecoder struct {
	Name string          `json:"name"`
	Args []string        `json:"args"`
	Body []opDecoder      `json:"body"`
}

// opDecoder discriminates a body element: structural kinds (return,
// for, if, yield, load, store, call) are recognized by op_type; any
// other op_type is a Computation IR node lowered into an OpCompute.
type opDecoder struct {
	Name       string          `json:"name"`
	OpType     string          `json:"op_type"`
	ReturnType string          `json:"return_type"`
	Operands   []string        `json:"operands"`

	IterName     string      `json:"iter_name"`
	LowerBound   string      `json:"lower_bound"`
	UpperBound   string      `json:"upper_bound"`
	Step         string      `json:"step"`
	IterArgs     []string    `json:"iter_args"`
	IterArgsInit []string    `json:"iter_args_init"`
	Results      []string    `json:"results"`
	Body         []opDecoder `json:"body"`

	Cond string      `json:"cond"`
	Then []opDecoder `json:"then"`
	Else []opDecoder `json:"else"`

	Values []string `json:"values"`

	Memory string `json:"memory"`
	Index  string `json:"index"`
	Value  string `json:"value"`

	Function string   `json:"function"`
	Args     []string `json:"args"`
	Names    []string `json:"names"`
}

func (d opDecoder) lower() Op {
	switch d.OpType {
	case "return":
		return Op{Kind: OpReturn, ReturnNames: d.Operands}
	case "for":
		return Op{Kind: OpFor, Name: d.Name, For: &ForSpec{
			IterName:     d.IterName,
			LowerBound:   d.LowerBound,
			UpperBound:   d.UpperBound,
			Step:         d.Step,
			IterArgNames: d.IterArgs,
			IterArgInit:  d.IterArgsInit,
			ResultNames:  d.Results,
			Body:         lowerAll(d.Body),
		}}
	case "if":
		return Op{Kind: OpIf, Name: d.Name, If: &IfSpec{
			Cond:        d.Cond,
			Then:        lowerAll(d.Then),
			Else:        lowerAll(d.Else),
			ResultNames: d.Results,
		}}
	case "yield":
		return Op{Kind: OpYield, Yield: &YieldSpec{Values: d.Values}}
	case "load":
		return Op{Kind: OpLoad, Name: d.Name, Load: &LoadSpec{MemoryName: d.Memory, Index: d.Index}}
	case "store":
		return Op{Kind: OpStore, Store: &StoreSpec{MemoryName: d.Memory, Index: d.Index, Value: d.Value}}
	case "call":
		return Op{Kind: OpCall, Name: d.Name, Call: &CallSpec{Function: d.Function, Args: d.Args, Names: d.Names}}
	default:
		return Op{Kind: OpCompute, Name: d.Name, Compute: value.Compute{
			Name:       d.Name,
			OpType:     d.OpType,
			ReturnType: d.ReturnType,
			Operands:   d.Operands,
		}}
	}
}

func lowerAll(ds []opDecoder) []Op {
	out := make([]Op, len(ds))
	for i, d := range ds {
		out[i] = d.lower()
	}
	return out
}

// Load decodes a software-level IR bundle into a runnable Program.
func Load(data []byte) (*Program, error) {
	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("software: malformed bundle: %w", err)
	}
	if b.Level != ir.LevelSoftware {
		return nil, fmt.Errorf("software: bundle level is %q, want %q", b.Level, ir.LevelSoftware)
	}

	p := NewProgram()
	for _, m := range b.Memories {
		if err := p.AddMemory(storage.NewMemory(m.Name, m.Type, m.Size)); err != nil {
			return nil, err
		}
	}
	for _, f := range b.Functions {
		body := make([]Op, len(f.Body))
		for i, d := range f.Body {
			body[i] = d.lower()
		}
		if err := p.AddFunction(&Function{Name: f.Name, Args: f.Args, Body: body}); err != nil {
			return nil, err
		}
	}
	return p, nil
}
