package equivalence

import (
	"github.com/pku-liang/hestia/hec"
	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/tor"
)

// backlogThreshold bounds how far either side is allowed to run
// ahead of the other before the coordinator stops advancing it and
// waits for the slower side to catch up, matching the reference
// cosim loop's fixed 10-value window on each side.
const backlogThreshold = 10

// Coordinator couples a ToR engine and a HEC engine running the same
// program, advancing whichever side has the smaller backlog one cycle
// at a time and cross-checking every equivalence point as it fires.
type Coordinator struct {
	ToR *tor.Engine
	HEC *hec.Engine

	queues map[string]*queue  // keyed by mapping.Op
	lowOp  map[[2]string]string // (end_state, primitive) -> mapping.Op
}

// NewCoordinator binds a coordinator to an already-constructed ToR
// engine and HEC engine, both expected to be running the same program
// at its two lower levels.
func NewCoordinator(torEng *tor.Engine, hecEng *hec.Engine) *Coordinator {
	return &Coordinator{
		ToR:    torEng,
		HEC:    hecEng,
		queues: map[string]*queue{},
		lowOp:  map[[2]string]string{},
	}
}

// Load installs every mapping in mappings as an equivalence point on
// both engines and allocates its value queue.
func (c *Coordinator) Load(mappings []Mapping) {
	for _, m := range mappings {
		c.ToR.SetEqualPoint(m.Op)
		c.HEC.SetEqualPoint(m.End, m.Primitive)
		c.lowOp[[2]string{m.End, m.Primitive}] = m.Op
		c.queues[m.Op] = newQueue(m)
	}
}

// Result summarizes a completed cosimulation run.
type Result struct {
	ToRCycles int
	HECCycles int
}

// Run drives the cosim loop until both sides report finish: whichever
// side has the smaller backlog is advanced by one cycle, its
// freshly-fired equivalence values are harvested and folded into
// their queues (a mismatch panics, per the queue's fatal contract),
// and the loop repeats. sess may be nil to run with no breakpoints
// installed on either engine.
func (c *Coordinator) Run(sess *session.Session) Result {
	for {
		torDone, hecDone := c.ToR.Finish(), c.HEC.Finish()
		if torDone && hecDone {
			break
		}

		advanceLow, advanceHigh := false, false
		for _, q := range c.queues {
			size := q.size()
			if size < backlogThreshold {
				advanceLow = true
			}
			if size > -backlogThreshold {
				advanceHigh = true
			}
		}

		if !torDone && advanceHigh {
			c.ToR.Step(1, sess)
			for op, v := range c.ToR.TakeEqualValues() {
				if q, ok := c.queues[op]; ok {
					q.pushHigh(v)
				}
			}
		}
		if !hecDone && advanceLow {
			c.HEC.Step(1, sess)
			for key, v := range c.HEC.TakeEqualValues() {
				op, ok := c.lowOp[key]
				if !ok {
					continue
				}
				if q, ok := c.queues[op]; ok {
					q.pushLow(v)
				}
			}
		}
	}

	return Result{ToRCycles: c.ToR.Cycles(), HECCycles: c.HEC.Cycles()}
}
