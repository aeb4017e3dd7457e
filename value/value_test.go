package value_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/value"
)

var _ = Describe("Value coercion", func() {
	It("builds typed values from literals", func() {
		Expect(value.Build("i32", "-7").AsI32()).To(Equal(int32(-7)))
		Expect(value.Build("u32", "42").AsU32()).To(Equal(uint32(42)))
		Expect(value.Build("bool", "true").AsBool()).To(BeTrue())
	})

	It("returns Error for unrecognized types", func() {
		Expect(value.Build("not-a-type", "1").IsError()).To(BeTrue())
	})

	It("converts integers to float losslessly", func() {
		v := value.I32(10)
		Expect(value.Convert(v, "f64").AsF64()).To(Equal(10.0))
	})

	It("round-trips lossless conversions", func() {
		v := value.I32(5)
		a := value.Convert(v, "i64")
		b := value.Convert(a, "i64")
		Expect(a.Equal(b)).To(BeTrue())
	})

	Describe("MergeType", func() {
		It("promotes equal signedness to the wider width", func() {
			Expect(value.MergeType(value.KindI32, value.KindI64)).To(Equal(value.KindI64))
			Expect(value.MergeType(value.KindU32, value.KindU64)).To(Equal(value.KindU64))
		})

		It("errors mixing signed and unsigned", func() {
			Expect(value.MergeType(value.KindI32, value.KindU32)).To(Equal(value.KindError))
		})

		It("errors mixing integer and float", func() {
			Expect(value.MergeType(value.KindI32, value.KindF32)).To(Equal(value.KindError))
		})
	})

	Describe("divsi", func() {
		It("truncates toward zero like host division", func() {
			Expect(value.Divsi(value.I32(-7), value.I32(2)).AsI32()).To(Equal(int32(-3)))
		})
	})

	Describe("comparisons with mixed classes", func() {
		It("returns Error", func() {
			Expect(value.Eq(value.I32(1), value.F32(1.0)).IsError()).To(BeTrue())
		})
	})

	Describe("exp", func() {
		It("uses the 2.71828 literal constant, not math.E", func() {
			got := value.Exp(value.F64(1.0)).AsF64()
			Expect(got).To(BeNumerically("~", 2.71828, 1e-9))
		})
	})

	Describe("erf", func() {
		It("is a stub returning 0.0", func() {
			Expect(value.Erf(value.F32(3.0)).AsF32()).To(Equal(float32(0.0)))
		})
	})
})

var _ = Describe("OperationEnv", func() {
	It("dispatches add into the named environment slot", func() {
		env := newFakeEnv(map[string]value.Value{
			"a": value.I32(2),
			"b": value.I32(3),
		})
		value.OperationEnv(value.Compute{Name: "c", OpType: "add", ReturnType: "i32", Operands: []string{"a", "b"}}, env)
		Expect(env.Get("c").AsI32()).To(Equal(int32(5)))
	})

	It("panics on an undefined op_type", func() {
		env := newFakeEnv(nil)
		Expect(func() {
			value.OperationEnv(value.Compute{Name: "x", OpType: "bogus_op"}, env)
		}).To(Panic())
	})
})

type fakeEnv struct{ vars map[string]value.Value }

func newFakeEnv(vars map[string]value.Value) *fakeEnv {
	if vars == nil {
		vars = map[string]value.Value{}
	}
	return &fakeEnv{vars: vars}
}

func (e *fakeEnv) Get(name string) value.Value { return e.vars[name] }
func (e *fakeEnv) Set(name string, v value.Value) { e.vars[name] = v }
