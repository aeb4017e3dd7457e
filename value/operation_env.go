package value

import "fmt"

// Env is the minimal environment contract operation_env needs:
// reading named operands and writing a named result. Every engine
// (software, ToR, HEC) satisfies this with its own variable/port
// table; Env lets the operator dispatch live in one place instead of
// being duplicated per engine.
type Env interface {
	Get(name string) Value
	Set(name string, v Value)
}

// Compute is the decoded Computation IR node: a named result produced
// by applying OpType to Operands, with the declared ReturnType used
// for conversions that need a target width (sitofp, trunc, index_cast).
type Compute struct {
	Name       string
	OpType     string
	ReturnType string
	Operands   []string
}

// OperationEnv dispatches over op_type strings taken from the IR,
// writing the result into env[name]. Unknown operators are a fatal
// condition (malformed IR the simulator does not implement) and
// panic, matching §7's "Undefined op_type: fatal".
func OperationEnv(c Compute, env Env) {
	ops := make([]Value, len(c.Operands))
	for i, name := range c.Operands {
		ops[i] = env.Get(name)
	}
	env.Set(c.Name, dispatch(c.OpType, c.ReturnType, ops))
}

func arg(ops []Value, i int) Value {
	if i >= len(ops) {
		return Error
	}
	return ops[i]
}

func dispatch(op, returnType string, ops []Value) Value {
	switch op {
	case "add":
		return Add(arg(ops, 0), arg(ops, 1))
	case "sub":
		return Sub(arg(ops, 0), arg(ops, 1))
	case "mul":
		return Mul(arg(ops, 0), arg(ops, 1))
	case "div":
		return Div(arg(ops, 0), arg(ops, 1))
	case "divsi":
		return Divsi(arg(ops, 0), arg(ops, 1))
	case "shl":
		return Shl(arg(ops, 0), arg(ops, 1))
	case "shr":
		return Shr(arg(ops, 0), arg(ops, 1))
	case "and":
		return And(arg(ops, 0), arg(ops, 1))
	case "or":
		return Or(arg(ops, 0), arg(ops, 1))
	case "not":
		return Not(arg(ops, 0))
	case "select":
		return Select(arg(ops, 0), arg(ops, 1), arg(ops, 2))
	case "exp":
		return Exp(arg(ops, 0))
	case "sqrt":
		return Sqrt(arg(ops, 0))
	case "powf":
		return Powf(arg(ops, 0), arg(ops, 1))
	case "erf":
		return Erf(arg(ops, 0))
	case "cmp_eq", "eq":
		return Eq(arg(ops, 0), arg(ops, 1))
	case "cmp_ne", "ne":
		return Ne(arg(ops, 0), arg(ops, 1))
	case "cmp_lt", "lt", "cmp_slt", "cmp_ult":
		return Lt(arg(ops, 0), arg(ops, 1))
	case "cmp_lte", "lte", "cmp_sle", "cmp_ule":
		return Lte(arg(ops, 0), arg(ops, 1))
	case "cmp_gt", "gt", "cmp_sgt", "cmp_ugt":
		return Gt(arg(ops, 0), arg(ops, 1))
	case "cmp_gte", "gte", "cmp_sge", "cmp_uge", "cmp_oge":
		return Gte(arg(ops, 0), arg(ops, 1))
	case "sle":
		return Sle(arg(ops, 0), arg(ops, 1))
	case "index_cast":
		return arg(ops, 0)
	case "sitofp":
		return Convert(arg(ops, 0), returnType)
	case "trunc":
		return Bool(arg(ops, 0).AsBool())
	default:
		panic(fmt.Sprintf("operation_env: undefined op_type %q", op))
	}
}
