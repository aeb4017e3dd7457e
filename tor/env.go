package tor

import "github.com/pku-liang/hestia/value"

// Env is one instance's flat variable namespace, the ToR analogue of
// the software level's Scope: SSA naming guarantees every name written
// along the graph is unique within the function, so one flat map per
// instance is enough.
type Env struct {
	vars map[string]value.Value
}

func newEnv() *Env {
	return &Env{vars: map[string]value.Value{}}
}

// Get implements value.Env.
func (e *Env) Get(name string) value.Value {
	if v, ok := e.vars[name]; ok {
		return v
	}
	return value.Error
}

// Set implements value.Env.
func (e *Env) Set(name string, v value.Value) {
	e.vars[name] = v
}

// Bind assigns the argument values to the named parameters.
func (e *Env) Bind(names []string, vals []value.Value) {
	for i, n := range names {
		if i < len(vals) {
			e.vars[n] = vals[i]
		} else {
			e.vars[n] = value.Error
		}
	}
}

func readAll(e *Env, names []string) []value.Value {
	out := make([]value.Value, len(names))
	for i, n := range names {
		out[i] = e.Get(n)
	}
	return out
}
