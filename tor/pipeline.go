package tor

import "github.com/pku-liang/hestia/value"

// PipelineSpec describes a pipelined for-loop's timing and per-
// iteration body: TripCount iterations launch II cycles apart and
// each takes Latency cycles from launch to its result being ready,
// overlapping in flight the way a synthesized multi-stage pipeline
// does rather than running one iteration to completion before the
// next starts.
type PipelineSpec struct {
	TripCount int
	II        int
	Latency   int
	IterName  string
	Body      []value.Compute
	// Commit receives the per-iteration environment once Body has run,
	// e.g. to store a result into memory; may be nil.
	Commit func(iter int, env *Env)
}

type inflightIter struct {
	index     int
	remaining int
}

// PipelineInstance drives one pipelined-for loop: one header-enter
// cycle, then overlapped iterations, then one drain cycle once the
// last iteration's result has committed.
type PipelineInstance struct {
	Spec *PipelineSpec

	header   bool
	draining bool
	Done     bool

	cursor         int
	bodyStep       int
	lastLaunchStep int
	inflight       []inflightIter
	envs           map[int]*Env
}

// NewPipelineInstance returns a PipelineInstance ready to Step.
func NewPipelineInstance(spec *PipelineSpec) *PipelineInstance {
	return &PipelineInstance{Spec: spec, lastLaunchStep: -1, envs: map[int]*Env{}}
}

// Active reports whether the pipeline still has work.
func (p *PipelineInstance) Active() bool { return !p.Done }

// Step advances the pipeline by one cycle.
func (p *PipelineInstance) Step() {
	if p.Done {
		return
	}
	if !p.header {
		p.header = true
		return
	}
	if p.draining {
		p.Done = true
		return
	}

	s := p.Spec
	p.bodyStep++
	if p.cursor < s.TripCount && (p.lastLaunchStep < 0 || p.bodyStep-p.lastLaunchStep >= s.II) {
		env := newEnv()
		env.Set(s.IterName, value.I32(int32(p.cursor)))
		p.envs[p.cursor] = env
		p.inflight = append(p.inflight, inflightIter{index: p.cursor, remaining: s.Latency})
		p.lastLaunchStep = p.bodyStep
		p.cursor++
	}

	kept := p.inflight[:0]
	for _, it := range p.inflight {
		it.remaining--
		if it.remaining > 0 {
			kept = append(kept, it)
			continue
		}
		env := p.envs[it.index]
		for _, c := range s.Body {
			value.OperationEnv(c, env)
		}
		if s.Commit != nil {
			s.Commit(it.index, env)
		}
		delete(p.envs, it.index)
	}
	p.inflight = kept

	if p.cursor == s.TripCount && len(p.inflight) == 0 {
		p.draining = true
	}
}

// Run steps the pipeline to completion and returns the cycle count
// consumed, including the header-enter and drain cycles.
func (p *PipelineInstance) Run() int {
	cycles := 0
	for p.Active() {
		p.Step()
		cycles++
	}
	return cycles
}
