package value

import "math"

// expBase is the literal constant the upstream simulator uses for Exp
// instead of math.E. Preserved for numeric continuity with existing
// equivalence-point expectations; see DESIGN.md Open Question (b).
const expBase = 2.71828

// Add implements the numeric (int or float) add family.
func Add(a, b Value) Value { return numeric(a, b, addInt, addFloat) }

// Sub implements the numeric (int or float) sub family.
func Sub(a, b Value) Value { return numeric(a, b, subInt, subFloat) }

// Mul implements the numeric (int or float) mul family.
func Mul(a, b Value) Value { return numeric(a, b, mulInt, mulFloat) }

// Div implements the numeric (int or float) div family. Integer
// division truncates toward zero (Go's native "/" on signed and
// unsigned integers), matching the host division the original
// simulator dispatches to; see DESIGN.md Open Question (a).
func Div(a, b Value) Value { return numeric(a, b, divInt, divFloat) }

func addInt(k Kind, x, y int64) int64   { return x + y }
func subInt(k Kind, x, y int64) int64   { return x - y }
func mulInt(k Kind, x, y int64) int64   { return x * y }
func divInt(k Kind, x, y int64) int64 {
	if y == 0 {
		return 0
	}
	return x / y
}

func addFloat(x, y float64) float64 { return x + y }
func subFloat(x, y float64) float64 { return x - y }
func mulFloat(x, y float64) float64 { return x * y }
func divFloat(x, y float64) float64 {
	if y == 0 {
		return 0
	}
	return x / y
}

func numeric(a, b Value, intOp func(Kind, int64, int64) int64, floatOp func(float64, float64) float64) Value {
	k := MergeType(a.Kind, b.Kind)
	switch k {
	case KindU32:
		return U32(uint32(intOp(k, int64(a.AsU32()), int64(b.AsU32()))))
	case KindI32:
		return I32(int32(intOp(k, int64(a.AsI32()), int64(b.AsI32()))))
	case KindU64:
		return U64(uint64(intOp(k, int64(a.AsU64()), int64(b.AsU64()))))
	case KindI64:
		return I64(intOp(k, a.AsI64(), b.AsI64()))
	case KindF32:
		return F32(float32(floatOp(float64(a.AsF32()), float64(b.AsF32()))))
	case KindF64:
		return F64(floatOp(a.AsF64(), b.AsF64()))
	default:
		return Error
	}
}

// Shl is integer-only left shift; non-integer operands are Error.
func Shl(a, b Value) Value { return shiftOp(a, b, func(x, s uint64) uint64 { return x << s }) }

// Shr is integer-only right shift; non-integer operands are Error.
func Shr(a, b Value) Value { return shiftOp(a, b, func(x, s uint64) uint64 { return x >> s }) }

func shiftOp(a, b Value, op func(uint64, uint64) uint64) Value {
	if !a.IsInteger() || !b.IsInteger() {
		return Error
	}
	switch a.Kind {
	case KindU32, KindI32:
		return rebuild(a.Kind, op(uint64(a.AsU32()), uint64(b.AsU32())))
	default:
		return rebuild(a.Kind, op(a.AsU64(), b.AsU64()))
	}
}

func rebuild(k Kind, bits uint64) Value {
	switch k {
	case KindU32:
		return U32(uint32(bits))
	case KindI32:
		return I32(int32(uint32(bits)))
	case KindU64:
		return U64(bits)
	case KindI64:
		return I64(int64(bits))
	default:
		return Error
	}
}

// Divsi is the signed-integer-only division family; dispatched by the
// return type of the producing op, using host "/" truncation. Errors
// on non-integer operands.
func Divsi(a, b Value) Value {
	if !a.IsInteger() || !b.IsInteger() {
		return Error
	}
	return Div(a, b)
}

// And is the bitwise-or-boolean and family.
func And(a, b Value) Value { return bitwise(a, b, func(x, y uint64) uint64 { return x & y }, func(x, y bool) bool { return x && y }) }

// Or is the bitwise-or-boolean or family.
func Or(a, b Value) Value { return bitwise(a, b, func(x, y uint64) uint64 { return x | y }, func(x, y bool) bool { return x || y }) }

func bitwise(a, b Value, intOp func(uint64, uint64) uint64, boolOp func(bool, bool) bool) Value {
	if a.Kind == KindBool && b.Kind == KindBool {
		return Bool(boolOp(a.b, b.b))
	}
	k := MergeType(a.Kind, b.Kind)
	if !isIntLike(k) {
		return Error
	}
	return rebuild(k, intOp(a.AsU64(), b.AsU64()))
}

// Not implements unary boolean negation.
func Not(a Value) Value {
	if a.Kind != KindBool {
		return Error
	}
	return Bool(!a.b)
}

// Select implements the ternary select(cond, x, y).
func Select(cond, x, y Value) Value {
	if cond.Kind != KindBool {
		return Error
	}
	if cond.b {
		return x
	}
	return y
}

type cmp func(a, b float64) bool

func eqCmp(a, b float64) bool  { return a == b }
func neCmp(a, b float64) bool  { return a != b }
func ltCmp(a, b float64) bool  { return a < b }
func lteCmp(a, b float64) bool { return a <= b }
func gtCmp(a, b float64) bool  { return a > b }
func gteCmp(a, b float64) bool { return a >= b }

func compare(a, b Value, c cmp) Value {
	k := MergeType(a.Kind, b.Kind)
	if k == KindError {
		return Error
	}
	switch k {
	case KindF32, KindF64:
		return Bool(c(a.AsF64(), b.AsF64()))
	case KindI32, KindI64:
		// signed compare
		return Bool(c(float64(a.AsI64()), float64(b.AsI64())))
	default:
		return Bool(c(float64(a.AsU64()), float64(b.AsU64())))
	}
}

// Eq, Ne, Lt, Lte, Gt, Gte, Sle implement the comparison family. Type
// merge decides the host operation; mismatched classes return Error.
func Eq(a, b Value) Value  { return compare(a, b, eqCmp) }
func Ne(a, b Value) Value  { return compare(a, b, neCmp) }
func Lt(a, b Value) Value  { return compare(a, b, ltCmp) }
func Lte(a, b Value) Value { return compare(a, b, lteCmp) }
func Gt(a, b Value) Value  { return compare(a, b, gtCmp) }
func Gte(a, b Value) Value { return compare(a, b, gteCmp) }

// Sle is the signed less-than-or-equal comparison (cmp_sle).
func Sle(a, b Value) Value {
	return Bool(a.AsI64() <= b.AsI64())
}

// Exp computes exp(x) ≈ pow(2.71828, x), using the literal constant
// rather than math.E; see Open Question (b).
func Exp(x Value) Value {
	switch x.Kind {
	case KindF32:
		return F32(float32(math.Pow(expBase, float64(x.AsF32()))))
	case KindF64:
		return F64(math.Pow(expBase, x.AsF64()))
	default:
		return Error
	}
}

// Sqrt computes the square root, preserving float width.
func Sqrt(x Value) Value {
	switch x.Kind {
	case KindF32:
		return F32(float32(math.Sqrt(float64(x.AsF32()))))
	case KindF64:
		return F64(math.Sqrt(x.AsF64()))
	default:
		return Error
	}
}

// Powf computes x**y for float operands of the same width.
func Powf(x, y Value) Value {
	if x.Kind != y.Kind {
		return Error
	}
	switch x.Kind {
	case KindF32:
		return F32(float32(math.Pow(float64(x.AsF32()), float64(y.AsF32()))))
	case KindF64:
		return F64(math.Pow(x.AsF64(), y.AsF64()))
	default:
		return Error
	}
}

// Erf is a stub returning 0.0 of the matching float type; see Open
// Question (c).
func Erf(x Value) Value {
	switch x.Kind {
	case KindF32:
		return F32(0.0)
	case KindF64:
		return F64(0.0)
	default:
		return Error
	}
}
