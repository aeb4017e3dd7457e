package hec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pku-liang/hestia/handshake"
	"github.com/pku-liang/hestia/value"
)

// sinkUnit is a single-port unit that is always ready to accept a
// value, used to terminate a Handshake module's declared sinks so
// they never back-pressure their producer.
type sinkUnit struct{ in handshake.HandshakeValue }

func (s *sinkUnit) SetValue(port string, v handshake.HandshakeValue) { s.in = v }
func (s *sinkUnit) GetValue(port string) handshake.HandshakeValue {
	v := s.in
	v.Ready = true
	return v
}
func (s *sinkUnit) IsValid() bool { return s.in.Valid }
func (s *sinkUnit) Propagate() []string {
	if s.in.Ready {
		return nil
	}
	s.in.Ready = true
	return []string{"in"}
}
func (s *sinkUnit) Update() bool        { return false }

// sourceUnit drives a single fixed value as permanently valid, used
// to bake a constant (a literal, or a caller-supplied argument) into
// every port it feeds instead of allocating a live constant unit for
// it.
type sourceUnit struct {
	out handshake.HandshakeValue
}

func newSourceUnit(v value.Value) *sourceUnit {
	return &sourceUnit{out: handshake.HandshakeValue{Valid: true, Data: v}}
}
func (s *sourceUnit) SetValue(port string, v handshake.HandshakeValue) { s.out.Ready = v.Ready }
func (s *sourceUnit) GetValue(port string) handshake.HandshakeValue    { return s.out }
func (s *sourceUnit) IsValid() bool                                    { return false }
func (s *sourceUnit) Propagate() []string                              { return []string{"out"} }
func (s *sourceUnit) Update() bool                                     { return false }

func binaryFuncFor(opType string) handshake.BinaryFunc {
	switch opType {
	case "add_integer", "add_float":
		return value.Add
	case "sub_integer", "sub_float":
		return value.Sub
	case "mul_integer", "mul_float":
		return value.Mul
	case "div_float", "div_integer":
		return value.Div
	case "shift_left":
		return value.Shl
	case "cmp_integer_sle":
		return value.Sle
	case "cmp_integer_ne":
		return value.Ne
	case "cmp_float_ugt":
		return value.Gt
	case "and":
		return value.And
	default:
		panic(fmt.Sprintf("hec: undefined handshake unit op_type %q", opType))
	}
}

// createHandshakeUnit maps one units[] declaration of a Handshake
// module onto its primitive, following the same op_type dispatch the
// reference implementation's create_handshake table uses. "select" is
// not part of this catalog's ported surface and is refused explicitly
// rather than silently mistranslated.
func createHandshakeUnit(u UnitDef) handshake.Unit {
	switch {
	case u.OpType == "branch":
		return handshake.NewBranch()
	case u.OpType == "buffer":
		return handshake.NewElasticBuffer()
	case u.OpType == "mux_dynamic":
		return handshake.NewMuxDynamic(2)
	case u.OpType == "control_merge":
		return handshake.NewControlMerge()
	case u.OpType == "mul_integer":
		return handshake.NewBinaryUnitSeq(value.Mul, 4)
	case u.OpType == "div_float" || u.OpType == "mul_float":
		return handshake.NewBinaryUnitSeq(binaryFuncFor(u.OpType), 9)
	case u.OpType == "sub_float" || u.OpType == "add_float":
		return handshake.NewBinaryUnitSeq(binaryFuncFor(u.OpType), 13)
	case u.OpType == "cmp_float_ugt":
		return handshake.NewBinaryUnitSeq(value.Gt, 2)
	case u.OpType == "trunc_integer":
		return handshake.NewBinaryUnit(func(a, _ value.Value) value.Value {
			return value.Convert(a, "i32")
		})
	case u.OpType == "select":
		panic("hec: handshake unit \"select\" is not implemented")
	case strings.HasPrefix(u.OpType, "fork"):
		return handshake.NewFork(forkWidth(u.OpType))
	case strings.HasPrefix(u.OpType, "fifo"):
		return handshake.NewElasticFIFO(forkWidth(u.OpType))
	case strings.HasPrefix(u.OpType, "dyn_Mem:"):
		loads, stores, size := dynMemSpec(u.OpType)
		zero := value.Build(lastType(u.Types), "0")
		mem, err := handshake.NewDynMem(loads, stores, size, zero)
		if err != nil {
			panic(fmt.Sprintf("hec: %v", err))
		}
		return mem
	case strings.HasPrefix(u.OpType, "load"):
		return &handshake.Load{}
	case strings.HasPrefix(u.OpType, "store"):
		return handshake.NewStore()
	default:
		return handshake.NewBinaryUnit(binaryFuncFor(u.OpType))
	}
}

func forkWidth(opType string) int {
	if i := strings.IndexByte(opType, ':'); i >= 0 {
		n, err := strconv.Atoi(opType[i+1:])
		if err == nil {
			return n
		}
	}
	return 2
}

func dynMemSpec(opType string) (loads, stores, size int) {
	rest := strings.TrimPrefix(opType, "dyn_Mem:")
	parts := strings.SplitN(rest, "#", 2)
	counts := strings.SplitN(parts[0], ",", 2)
	loads, _ = strconv.Atoi(counts[0])
	if len(counts) > 1 {
		stores, _ = strconv.Atoi(counts[1])
	}
	if len(parts) > 1 {
		size, _ = strconv.Atoi(parts[1])
	}
	return loads, stores, size
}

func lastType(types []string) string {
	if len(types) == 0 {
		return "i32"
	}
	return types[len(types)-1]
}

// buildHandshakeNetwork compiles a Handshake-strategy module into a
// running scheduler: one primitive per declared unit, wired by the
// module's flat port-to-port assignment list, with a literal or
// caller-supplied argument source baked directly into its consumer
// instead of allocated as a live unit, and every declared sink made
// permanently ready.
func buildHandshakeNetwork(prog *Program, def *ModuleDef, args []value.Value) *handshake.Scheduler {
	sched := handshake.NewScheduler()
	for _, u := range def.Units {
		sched.AddUnit(u.Name, createHandshakeUnit(u))
	}

	argValue := map[string]value.Value{}
	for i, name := range def.Args {
		if i < len(args) {
			argValue[name] = args[i]
		}
	}

	assigned := map[string]bool{}
	for _, a := range def.Handshake.Assign {
		assigned[a.Dst] = true

		if v, ok := resolveConstantSource(prog, argValue, a.Src); ok {
			dstUnit, dstPort := splitDot(a.Dst)
			src := "__const_" + a.Dst
			sched.AddUnit(src, newSourceUnit(v))
			sched.Connect(src, "out", dstUnit, dstPort)
			continue
		}

		fromUnit, fromPort, _ := splitDot(a.Src)
		toUnit, toPort, _ := splitDot(a.Dst)
		sched.Connect(fromUnit, fromPort, toUnit, toPort)
	}

	for _, sink := range def.Handshake.Sinks {
		if assigned[sink] {
			continue
		}
		sinkUnitName := "__sink_" + sink
		unit, port := splitDot(sink)
		sched.AddUnit(sinkUnitName, &sinkUnit{})
		sched.Connect(unit, port, sinkUnitName, "in")
	}

	return sched
}

// resolveConstantSource reports whether src names a bare (undotted)
// identifier resolving to a process-wide constant or a bound call
// argument, in which case it should be baked into its consumer rather
// than wired as a live port connection.
func resolveConstantSource(prog *Program, argValue map[string]value.Value, src string) (value.Value, bool) {
	if strings.Contains(src, ".") {
		return value.Value{}, false
	}
	if v, ok := argValue[src]; ok {
		return v, true
	}
	if v, ok := prog.Constants[src]; ok {
		return v, true
	}
	return value.Value{}, false
}
