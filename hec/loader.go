package hec

import (
	"encoding/json"
	"fmt"

	"github.com/pku-liang/hestia/ir"
	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

// bundle is the on-disk shape of a HEC-level IR file: a level header,
// the memories/streams/constants every module can share, and the
// module table itself.
type bundle struct {
	ir.Header
	Memories  []ir.MemoryDef     `json:"memories"`
	Streams   []ir.StreamDef     `json:"streams"`
	Constants []ir.ConstantDef   `json:"constants"`
	Modules   []moduleDecoder    `json:"modules"`
}

type moduleDecoder struct {
	Name      string             `json:"name"`
	Args      []string           `json:"args"`
	Types     []string           `json:"types"`
	NumIn     int                `json:"num_in"`
	Units     []unitDecoder      `json:"units"`
	Instances []instanceDecoder  `json:"instances"`
	Strategy  string             `json:"strategy"`
	STG       *stgDecoder        `json:"stg"`
	PipeFor   *pipeForDecoder    `json:"pipe_for"`
	Handshake *handshakeDecoder  `json:"handshake"`
}

type unitDecoder struct {
	OpType string   `json:"op_type"`
	Name   string   `json:"name"`
	Types  []string `json:"types"`
}

type instanceDecoder struct {
	InstanceName string `json:"instance_name"`
	ModuleName   string `json:"module_name"`
}

type stgDecoder struct {
	Initial string                    `json:"initial"`
	States  map[string]stateDecoder   `json:"states"`
}

type stateDecoder struct {
	Ops         []opDecoder        `json:"ops"`
	Streams     []string           `json:"streams"`
	Transitions []transitionDecoder `json:"transitions"`
	Default     string             `json:"default"`
	// Done is a pointer so a present-but-empty array (a terminal state
	// that publishes no return values) is distinguishable from the key
	// being absent entirely (a non-terminal state).
	Done *[]string `json:"done"`
}

type transitionDecoder struct {
	Target string `json:"target"`
	Cond   string `json:"cond"`
}

type pipeForDecoder struct {
	Inits  []initPairDecoder `json:"inits"`
	Stages []stageDecoder    `json:"stages"`
	II     int               `json:"ii"`
}

type initPairDecoder struct {
	Dst string `json:"dst"`
	Src string `json:"src"`
}

type stageDecoder struct {
	Name    string      `json:"name"`
	Ops     []opDecoder `json:"ops"`
	Streams []string    `json:"streams"`
}

type handshakeDecoder struct {
	Assign []assignDecoder `json:"assign"`
	Sinks  []string        `json:"sinks"`
}

type assignDecoder struct {
	Dst   string `json:"dst"`
	Src   string `json:"src"`
	Guard string `json:"guard"`
}

type deliverDecoder struct {
	DstPort string `json:"dst_port"`
	DstReg  string `json:"dst_reg"`
	Src     string `json:"src"`
}

// opDecoder discriminates one Operation by its kind tag.
type opDecoder struct {
	Kind     string          `json:"kind"`
	Port     string          `json:"port"`
	Assign   assignDecoder   `json:"assign"`
	Compute  ir.ComputeDef   `json:"compute"`
	Instance string          `json:"instance"`
	Deliver  deliverDecoder  `json:"deliver"`
}

func (d opDecoder) lower() (Operation, error) {
	switch d.Kind {
	case "enable":
		return Operation{Kind: OpEnable, Port: d.Port}, nil
	case "assign":
		return Operation{Kind: OpAssign, Assign: Assignment(d.Assign)}, nil
	case "compute":
		return Operation{Kind: OpCompute, Compute: value.Compute{
			Name:       d.Compute.Name,
			OpType:     d.Compute.OpType,
			ReturnType: d.Compute.ReturnType,
			Operands:   d.Compute.Operands,
		}}, nil
	case "go":
		return Operation{Kind: OpGo, Instance: d.Instance}, nil
	case "deliver":
		return Operation{Kind: OpDeliver, Deliver: Deliver(d.Deliver)}, nil
	default:
		return Operation{}, fmt.Errorf("hec: undefined operation kind %q", d.Kind)
	}
}

func lowerOps(ds []opDecoder) ([]Operation, error) {
	out := make([]Operation, len(ds))
	for i, d := range ds {
		op, err := d.lower()
		if err != nil {
			return nil, err
		}
		out[i] = op
	}
	return out, nil
}

func (d moduleDecoder) lower() (*ModuleDef, error) {
	def := &ModuleDef{
		Name:  d.Name,
		Args:  d.Args,
		Types: d.Types,
		NumIn: d.NumIn,
	}
	for _, u := range d.Units {
		def.Units = append(def.Units, UnitDef{OpType: u.OpType, Name: u.Name, Types: u.Types})
	}
	for _, inst := range d.Instances {
		def.Instances = append(def.Instances, SubmoduleDef{InstanceName: inst.InstanceName, ModuleName: inst.ModuleName})
	}

	switch d.Strategy {
	case "stg":
		def.Kind = StrategySTG
		if d.STG == nil {
			return nil, fmt.Errorf("hec: module %q: strategy \"stg\" missing stg body", d.Name)
		}
		states := map[string]*StateDef{}
		for name, s := range d.STG.States {
			ops, err := lowerOps(s.Ops)
			if err != nil {
				return nil, fmt.Errorf("hec: module %q state %q: %w", d.Name, name, err)
			}
			sd := &StateDef{
				Ops:     ops,
				Streams: s.Streams,
				Default: s.Default,
			}
			for _, t := range s.Transitions {
				sd.Transitions = append(sd.Transitions, Transition{Target: t.Target, Cond: t.Cond})
			}
			if s.Done != nil {
				sd.IsDone = true
				sd.Done = *s.Done
			}
			states[name] = sd
		}
		def.STG = &STGDef{States: states, Initial: d.STG.Initial}
	case "pipeline_for":
		def.Kind = StrategyPipeFor
		if d.PipeFor == nil {
			return nil, fmt.Errorf("hec: module %q: strategy \"pipeline_for\" missing pipe_for body", d.Name)
		}
		pf := &PipeForDef{II: d.PipeFor.II}
		for _, in := range d.PipeFor.Inits {
			pf.Inits = append(pf.Inits, InitPair{Dst: in.Dst, Src: in.Src})
		}
		for _, s := range d.PipeFor.Stages {
			ops, err := lowerOps(s.Ops)
			if err != nil {
				return nil, fmt.Errorf("hec: module %q stage %q: %w", d.Name, s.Name, err)
			}
			pf.Stages = append(pf.Stages, StageDef{Name: s.Name, Ops: ops, Streams: s.Streams})
		}
		def.PipeFor = pf
	case "handshake":
		def.Kind = StrategyHandshake
		if d.Handshake == nil {
			return nil, fmt.Errorf("hec: module %q: strategy \"handshake\" missing handshake body", d.Name)
		}
		hd := &HandshakeDef{Sinks: d.Handshake.Sinks}
		for _, a := range d.Handshake.Assign {
			hd.Assign = append(hd.Assign, Assignment(a))
		}
		def.Handshake = hd
	default:
		return nil, fmt.Errorf("hec: module %q: undefined strategy %q", d.Name, d.Strategy)
	}
	return def, nil
}

// Load decodes a HEC-level IR bundle into a runnable Program.
func Load(data []byte) (*Program, error) {
	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("hec: malformed bundle: %w", err)
	}
	if b.Level != ir.LevelHEC {
		return nil, fmt.Errorf("hec: bundle level is %q, want %q", b.Level, ir.LevelHEC)
	}

	p := NewProgram()
	for _, m := range b.Memories {
		p.Memories[m.Name] = storage.NewHardwareMemory(m.Name, m.Type, m.Size)
	}
	for _, s := range b.Streams {
		p.Streams[s.Name] = storage.NewHardwareFIFO(s.Name, s.Type, s.Depth)
	}
	for _, c := range b.Constants {
		p.Constants[c.Name] = value.Build(c.Type, c.LiteralValue())
	}
	for _, m := range b.Modules {
		def, err := m.lower()
		if err != nil {
			return nil, err
		}
		if _, exists := p.Modules[def.Name]; exists {
			return nil, fmt.Errorf("hec: duplicate module %q", def.Name)
		}
		p.Modules[def.Name] = def
	}
	return p, nil
}
