package handshake

// Unit is the capability set every handshake primitive implements:
// set_value/get_value by port name, a propagate/update pair run by
// the scheduler, and is_valid for termination detection.
type Unit interface {
	SetValue(port string, v HandshakeValue)
	GetValue(port string) HandshakeValue
	IsValid() bool
	Propagate() []string
	Update() bool
}

// Scheduler owns a network of named unit instances and the wiring
// between their ports, and drives the per-cycle work-list propagation
// described for Handshake-strategy modules: every unit is queued
// initially, propagate() is run until the queue drains (pushing
// changed port values across the wiring and re-queuing affected
// peers), then update() runs once for every unit, and whichever units
// committed a register change seed the next cycle's queue.
type Scheduler struct {
	order []string
	units map[string]Unit
	edges map[string][]string

	pending []string
	cycle   int
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{units: map[string]Unit{}, edges: map[string][]string{}}
}

// AddUnit registers a named unit instance.
func (s *Scheduler) AddUnit(name string, u Unit) {
	s.units[name] = u
	s.order = append(s.order, name)
}

// Connect wires fromUnit.fromPort to toUnit.toPort. The wire is a
// single shared value conceptually; the scheduler keeps it as two
// copies kept in sync, which is why the connection is symmetric: a
// change on either end is pushed to the other.
func (s *Scheduler) Connect(fromUnit, fromPort, toUnit, toPort string) {
	a, b := fromUnit+"."+fromPort, toUnit+"."+toPort
	s.edges[a] = append(s.edges[a], b)
	s.edges[b] = append(s.edges[b], a)
}

func splitPort(full string) (unit, port string) {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '.' {
			return full[:i], full[i+1:]
		}
	}
	return full, ""
}

// StepCycle runs one full cycle: work-list propagation to a fixed
// point, then a single update() pass over every unit.
func (s *Scheduler) StepCycle() {
	queue := s.pending
	if s.cycle == 0 {
		queue = append([]string{}, s.order...)
	}
	s.cycle++

	inQueue := map[string]bool{}
	for _, n := range queue {
		inQueue[n] = true
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		inQueue[name] = false

		u, ok := s.units[name]
		if !ok {
			continue
		}
		for _, port := range u.Propagate() {
			full := name + "." + port
			v := u.GetValue(port)
			for _, peer := range s.edges[full] {
				pUnit, pPort := splitPort(peer)
				if pu, ok := s.units[pUnit]; ok {
					pu.SetValue(pPort, v)
					if !inQueue[pUnit] {
						queue = append(queue, pUnit)
						inQueue[pUnit] = true
					}
				}
			}
		}
	}

	var next []string
	for _, name := range s.order {
		if s.units[name].Update() {
			next = append(next, name)
		}
	}
	s.pending = next
}

// Quiescent reports whether no unit currently holds a valid signal —
// the termination condition for an accurate cycle-count readout.
func (s *Scheduler) Quiescent() bool {
	for _, u := range s.units {
		if u.IsValid() {
			return false
		}
	}
	return true
}

// Run steps the network until quiescent (or maxCycles is reached as a
// runaway guard) and returns the number of cycles consumed.
func (s *Scheduler) Run(maxCycles int) int {
	cycles := 0
	for !s.Quiescent() && cycles < maxCycles {
		s.StepCycle()
		cycles++
	}
	return cycles
}
