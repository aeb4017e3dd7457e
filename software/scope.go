package software

import "github.com/pku-liang/hestia/value"

// Scope is a function activation's flat variable namespace. SSA
// naming in the source IR guarantees uniqueness within one function
// body, including names produced by nested For/If bodies, so a single
// flat map per function activation (shared by every For/If controller
// spawned from it) is sufficient — there is no shadowing to resolve.
type Scope struct {
	vars map[string]value.Value
}

func newScope() *Scope {
	return &Scope{vars: map[string]value.Value{}}
}

// Get implements value.Env.
func (s *Scope) Get(name string) value.Value {
	if v, ok := s.vars[name]; ok {
		return v
	}
	return value.Error
}

// Set implements value.Env.
func (s *Scope) Set(name string, v value.Value) {
	s.vars[name] = v
}

// Bind assigns the argument values to the named parameters.
func (s *Scope) Bind(names []string, vals []value.Value) {
	for i, n := range names {
		if i < len(vals) {
			s.vars[n] = vals[i]
		} else {
			s.vars[n] = value.Error
		}
	}
}
