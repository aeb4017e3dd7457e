package hec

import (
	"fmt"

	"github.com/pku-liang/hestia/timedvalue"
	"github.com/pku-liang/hestia/value"
)

// FuncUnit is a pipelined functional unit: a fixed-latency operator
// exposed as named ports, each a TimedValue, so that a value written
// to an operand port surfaces on the result port exactly Latency
// cycles later. This is the HEC-level analogue of the handshake
// network's BinaryUnitSeq, used by STG and pipeline-for modules that
// reference a shared multiplier, divider, or float adder by name
// instead of inlining its timing.
type FuncUnit struct {
	OpType string
	ports  map[string]*timedvalue.TimedValue
	types  map[string]string
}

func latencyOf(opType string, types []string) int {
	switch opType {
	case "register":
		return 1
	case "mul_integer":
		return 3
	case "truncf", "extf", "sitofp":
		return 2
	case "div_integer":
		return 10
	case "sub_float", "add_float":
		return floatLatency(types, 13, 8)
	case "mul_float":
		return floatLatency(types, 9, 4)
	case "div_float":
		return floatLatency(types, 30, 20)
	default:
		if len(opType) >= 9 && opType[:9] == "cmp_float" {
			return 2
		}
		panic(fmt.Sprintf("hec: undefined functional unit op_type %q", opType))
	}
}

func floatLatency(types []string, f64Latency, f32Latency int) int {
	if len(types) < 3 {
		panic("hec: functional unit missing result type")
	}
	switch types[2] {
	case "f64":
		return f64Latency
	case "f32":
		return f32Latency
	default:
		panic(fmt.Sprintf("hec: unsupported float width %q", types[2]))
	}
}

// NewFuncUnit builds the named-port pipeline for one units[] entry,
// matching the reference implementation's per-op_type port/latency
// table.
func NewFuncUnit(u UnitDef) *FuncUnit {
	latency := latencyOf(u.OpType, u.Types)

	var names []string
	var depths []int
	switch {
	case u.OpType == "register":
		names, depths = []string{"reg"}, []int{1}
	case u.OpType == "div_float" || u.OpType == "mul_float" || u.OpType == "sub_float" ||
		u.OpType == "add_float" || u.OpType == "mul_integer" || u.OpType == "div_integer":
		names, depths = []string{"operand0", "operand1", "result"}, []int{0, 0, latency}
	case u.OpType == "truncf" || u.OpType == "sitofp" || u.OpType == "extf":
		names, depths = []string{"operand", "result"}, []int{0, latency}
	case len(u.OpType) >= 9 && u.OpType[:9] == "cmp_float":
		names, depths = []string{"operand0", "operand1", "result"}, []int{0, 0, latency}
	default:
		panic(fmt.Sprintf("hec: undefined functional unit op_type %q", u.OpType))
	}

	ports := map[string]*timedvalue.TimedValue{}
	types := map[string]string{}
	for i, name := range names {
		typ := "bool"
		if i < len(u.Types) {
			typ = u.Types[i]
		}
		ports[name] = timedvalue.New(typ, depths[i])
		types[name] = typ
	}
	return &FuncUnit{OpType: u.OpType, ports: ports, types: types}
}

// Get reads a named port's currently visible value.
func (f *FuncUnit) Get(port string) value.Value {
	p, ok := f.ports[port]
	if !ok {
		return value.Error
	}
	return p.Get()
}

// Set stages a named port's next value.
func (f *FuncUnit) Set(port string, v value.Value) {
	p, ok := f.ports[port]
	if !ok {
		return
	}
	p.Set(v)
}

// HasValue reports whether any port currently holds a non-Error
// value, used to decide whether an instance's environment still has
// live state worth printing or keeping.
func (f *FuncUnit) HasValue() bool {
	for _, p := range f.ports {
		if p.HasValue() {
			return true
		}
	}
	return false
}

// Clear blanks every port back to Error, run when an instance
// finishes so a reused functional unit never leaks stale pipeline
// contents into the next activation.
func (f *FuncUnit) Clear() {
	for _, p := range f.ports {
		p.Reset()
	}
}

// Update computes this cycle's result (if operands are ready) and
// advances every port's register chain by one stage.
func (f *FuncUnit) Update() {
	switch f.OpType {
	case "div_float", "div_integer", "mul_float", "sub_float", "add_float", "mul_integer":
		op0, op1 := f.Get("operand0"), f.Get("operand1")
		if !op0.IsError() && !op1.IsError() {
			f.Set("result", binaryResult(f.OpType, op0, op1))
		}
	case "register":
		// The reference register unit only advances when fed; an
		// Error staged value simply lets the chain fall quiet.
	default:
		if f.OpType == "truncf" || f.OpType == "sitofp" || f.OpType == "extf" {
			op := f.Get("operand")
			if !op.IsError() {
				f.Set("result", value.Convert(op, f.resultType()))
			}
		} else if len(f.OpType) >= 9 && f.OpType[:9] == "cmp_float" {
			op0, op1 := f.Get("operand0"), f.Get("operand1")
			if !op0.IsError() && !op1.IsError() {
				f.Set("result", cmpFloatResult(f.OpType, op0, op1))
			}
		}
	}
	for _, p := range f.ports {
		p.Update()
	}
}

func (f *FuncUnit) resultType() string {
	if t, ok := f.types["result"]; ok {
		return t
	}
	return "f32"
}

func binaryResult(opType string, a, b value.Value) value.Value {
	switch opType {
	case "div_float", "div_integer":
		return value.Div(a, b)
	case "mul_float", "mul_integer":
		return value.Mul(a, b)
	case "add_float":
		return value.Add(a, b)
	case "sub_float":
		return value.Sub(a, b)
	default:
		panic(fmt.Sprintf("hec: undefined functional unit op_type %q", opType))
	}
}

func cmpFloatResult(opType string, a, b value.Value) value.Value {
	switch opType {
	case "cmp_float_ugt", "cmp_float_ogt":
		return value.Gt(a, b)
	case "cmp_float_oge":
		return value.Gte(a, b)
	case "cmp_float_olt":
		return value.Lt(a, b)
	case "cmp_float_une":
		return value.Ne(a, b)
	default:
		panic(fmt.Sprintf("hec: undefined float comparator %q", opType))
	}
}
