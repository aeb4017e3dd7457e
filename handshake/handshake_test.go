package handshake_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/handshake"
	"github.com/pku-liang/hestia/value"
)

var _ = Describe("Fork", func() {
	It("replicates one token to both branches and resets once both have drained it", func() {
		f := handshake.NewFork(2)
		f.DataIn.SetValid(true, value.I32(7))
		f.DataOut[0].SetReady(false)
		f.DataOut[1].SetReady(true)

		f.Propagate()
		Expect(f.DataOut[0].Valid).To(BeTrue())
		Expect(f.DataOut[1].Valid).To(BeTrue())
		Expect(f.DataIn.Ready).To(BeFalse(), "branch 0 has not yet accepted the token")
		f.Update()

		// branch 0 unblocks; branch 1's output has already latched low
		// since its sub-register committed false last cycle.
		f.DataOut[0].SetReady(true)
		f.Propagate()
		Expect(f.DataOut[1].Valid).To(BeFalse())
		Expect(f.DataIn.Ready).To(BeTrue(), "both branches have now drained the token")
		f.Update()

		f.DataOut[0].SetReady(true)
		f.DataOut[1].SetReady(true)
		f.Propagate()
		Expect(f.DataOut[0].Valid).To(BeTrue())
		Expect(f.DataOut[1].Valid).To(BeTrue())
	})
})

var _ = Describe("DynMem", func() {
	It("arbitrates two simultaneous loads by fixed priority over four cycles", func() {
		d, err := handshake.NewDynMem(2, 0, 4, value.I32(0))
		Expect(err).NotTo(HaveOccurred())
		d.SetMemory([]value.Value{value.I32(10), value.I32(20), value.I32(30), value.I32(40)})

		d.LoadData[0].SetReady(true)
		d.LoadData[1].SetReady(true)
		d.LoadAddress[0].SetValid(true, value.U64(3))
		d.LoadAddress[1].SetValid(true, value.U64(1))

		// Cycle 1: both addresses present; index 0 wins priority (lowest
		// index) and its grant is staged; index 1's address is held back.
		d.Propagate()
		Expect(d.LoadAddress[0].Ready).To(BeTrue())
		Expect(d.LoadAddress[1].Ready).To(BeFalse())
		d.Update()

		// Cycle 2: the registered grant now drives mem[3] onto
		// load_data[0]; index 0 still holds priority so index 1 remains
		// held back.
		d.Propagate()
		Expect(d.LoadData[0].Valid).To(BeTrue())
		Expect(d.LoadData[0].Data.AsI32()).To(Equal(int32(40)))
		Expect(d.LoadAddress[1].Ready).To(BeFalse())
		d.Update()

		// The consumer has its result; withdraw address 0 so arbitration
		// moves on to index 1.
		d.LoadAddress[0].SetValid(false, value.Error)

		// Cycle 3: index 1 now wins and is admitted; index 0's buffered
		// result is still draining from the prior grant.
		d.Propagate()
		Expect(d.LoadAddress[1].Ready).To(BeTrue())
		d.Update()

		// Cycle 4: the new grant reaches memory and load_data[1] carries
		// mem[1]; load_data[0] has gone invalid now that the grant moved.
		d.Propagate()
		Expect(d.LoadData[1].Valid).To(BeTrue())
		Expect(d.LoadData[1].Data.AsI32()).To(Equal(int32(20)))
		Expect(d.LoadData[0].Valid).To(BeFalse())
	})

	It("rejects the combined one-load-plus-one-store configuration", func() {
		_, err := handshake.NewDynMem(1, 1, 4, value.I32(0))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("MuxDynamic", func() {
	var m *handshake.MuxDynamic

	BeforeEach(func() {
		m = handshake.NewMuxDynamic(2)
	})

	It("routes the selected input through once the condition and input are both valid", func() {
		m.Condition.SetValid(true, value.U32(0))
		m.DataIn[0].SetValid(true, value.I32(11))
		m.DataOut.SetReady(true)
		m.Propagate()
		Expect(m.DataIn[0].Ready).To(BeTrue())
		Expect(m.DataIn[1].Ready).To(BeTrue(), "unselected-but-invalid input drains its stale ready")
	})

	It("holds an unselected but currently valid input not-ready", func() {
		m.Condition.SetValid(true, value.U32(0))
		m.DataIn[0].SetValid(true, value.I32(11))
		m.DataIn[1].SetValid(true, value.I32(22))
		m.DataOut.SetReady(true)
		m.Propagate()
		Expect(m.DataIn[0].Ready).To(BeTrue())
		Expect(m.DataIn[1].Ready).To(BeFalse(), "input 1 is valid but not selected this cycle")
	})

	It("readies every input when the condition itself is not valid", func() {
		m.DataIn[0].SetValid(true, value.I32(11))
		m.DataIn[1].SetValid(true, value.I32(22))
		m.Propagate()
		Expect(m.DataIn[0].Ready).To(BeFalse(), "valid but no condition to select it")
		Expect(m.DataIn[1].Ready).To(BeFalse())
		Expect(m.DataOut.Valid).To(BeFalse())
	})
})

var _ = Describe("BinaryUnitSeq", func() {
	It("delivers the computed result only after the first cycle, once it has drained through the delay line", func() {
		add := func(a, b value.Value) value.Value { return value.I32(a.AsI32() + b.AsI32()) }
		u := handshake.NewBinaryUnitSeq(add, 3)

		u.Operand0.SetValid(true, value.I32(2))
		u.Operand1.SetValid(true, value.I32(3))
		u.Result.SetReady(true)

		seenResult := -1
		for cycle := 0; cycle < 6 && !u.Result.Valid; cycle++ {
			u.Propagate()
			u.Update()
			u.Propagate()
			if u.Result.Valid {
				seenResult = cycle
			}
		}
		Expect(u.Result.Valid).To(BeTrue())
		Expect(u.Result.Data.AsI32()).To(Equal(int32(5)))
		Expect(seenResult).To(BeNumerically(">=", 1))
	})
})
