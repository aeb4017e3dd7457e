package hec

import (
	"fmt"
	"strconv"

	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

// Component is one entry of an Env's submodule namespace: either a
// local functional unit or a nested instance, mutually exclusive.
type Component struct {
	Unit     *FuncUnit
	Instance *Instance
}

// Env is one instance's namespace: local variables plus a submodule
// table of functional units and nested instances, with memories,
// streams, and constants resolved through the shared Program. This
// replaces the reference implementation's StaticEnv, which reached
// the same tables through process-wide raw pointers.
type Env struct {
	vars map[string]value.Value
	sub  map[string]*Component
	prog *Program
	name string
}

func newEnv(prog *Program, name string) *Env {
	return &Env{vars: map[string]value.Value{}, sub: map[string]*Component{}, prog: prog, name: name}
}

func splitDot(name string) (string, string, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:], true
		}
	}
	return name, "", false
}

// Get implements value.Env, resolving constants first (matching the
// reference implementation's precedence), then dotted references into
// memories, streams, and submodules, then a plain local variable.
func (e *Env) Get(name string) value.Value {
	if v, ok := e.prog.Constants[name]; ok {
		return v
	}
	return e.getInner(name)
}

func (e *Env) getInner(name string) value.Value {
	a, b, dotted := splitDot(name)
	if !dotted {
		if v, ok := e.vars[name]; ok {
			return v
		}
		return value.Error
	}
	if mem, ok := e.prog.Memories[a]; ok {
		return memoryGet(mem, b)
	}
	if fifo, ok := e.prog.Streams[a]; ok {
		return fifoGet(fifo, b)
	}
	comp, ok := e.sub[a]
	if !ok {
		panic(fmt.Sprintf("hec: %s: undefined reference %q", e.name, name))
	}
	switch {
	case comp.Unit != nil:
		return comp.Unit.Get(b)
	case comp.Instance != nil:
		return comp.Instance.Env.getInner(b)
	default:
		return value.Error
	}
}

// TryGet resolves name exactly as Get does, but reports ok=false
// instead of panicking when a dotted reference names a submodule this
// instance doesn't have — used by watchpoint printing, which probes
// every live instance's namespace without knowing in advance which
// ones a given watched tag actually belongs to.
func (e *Env) TryGet(name string) (v value.Value, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return e.Get(name), true
}

// Set implements value.Env, recursing through the same dotted
// resolution as Get.
func (e *Env) Set(name string, v value.Value) {
	a, b, dotted := splitDot(name)
	if !dotted {
		e.vars[name] = v
		return
	}
	if mem, ok := e.prog.Memories[a]; ok {
		memorySet(mem, b, v)
		return
	}
	if fifo, ok := e.prog.Streams[a]; ok {
		fifoSet(fifo, b, v)
		return
	}
	comp, ok := e.sub[a]
	if !ok {
		panic(fmt.Sprintf("hec: %s: undefined reference %q", e.name, name))
	}
	switch {
	case comp.Unit != nil:
		comp.Unit.Set(b, v)
	case comp.Instance != nil:
		comp.Instance.Env.Set(b, v)
	}
}

// HasBool reports whether name currently holds a Bool equal to want;
// any other kind reads as false. Guard and transition checks call it
// with want=true, the comparison the reference implementation
// performs.
func (e *Env) HasBool(name string, want bool) bool {
	v := e.Get(name)
	return v.Kind == value.KindBool && v.AsBool() == want
}

func memoryGet(m *storage.HardwareMemory, port string) value.Value {
	switch port {
	case "r_data":
		return m.ReadData(m.PortA())
	case "r_data2":
		return m.ReadData(m.PortB())
	default:
		panic(fmt.Sprintf("hec: memory: unsupported read port %q", port))
	}
}

func memorySet(m *storage.HardwareMemory, port string, v value.Value) {
	switch port {
	case "r_en":
		m.PortA().REn = v.AsBool()
	case "w_en":
		m.PortA().WEn = v.AsBool()
	case "addr":
		m.PortA().SetAddr(v)
	case "w_data":
		m.PortA().Data = v
	case "r_en2":
		m.PortB().REn = v.AsBool()
	case "w_en2":
		m.PortB().WEn = v.AsBool()
	case "addr2":
		m.PortB().SetAddr(v)
	case "w_data2":
		m.PortB().Data = v
	}
}

func fifoGet(f *storage.HardwareFIFO, port string) value.Value {
	if port != "r_data" {
		panic(fmt.Sprintf("hec: stream: unsupported read port %q", port))
	}
	return f.RData()
}

func fifoSet(f *storage.HardwareFIFO, port string, v value.Value) {
	switch port {
	case "r_en":
		f.REn = v.AsBool()
	case "w_en":
		f.WEn = v.AsBool()
	case "w_data":
		f.WData = v
	}
}

// portFromSuffix splits a handshake-style "name.N" port at its first
// dot into the name and the index N (0 when N is absent or not a
// number).
func portFromSuffix(full string) (string, int) {
	a, b, ok := splitDot(full)
	if !ok {
		return full, 0
	}
	n, _ := strconv.Atoi(b)
	return a, n
}
