package storage_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/value"
)

var _ = Describe("Memory", func() {
	It("stores a[i] = i*i and loads a[2] == 4", func() {
		m := storage.NewMemory("a", "i32", 4)
		for i := 0; i < 4; i++ {
			m.Store(i, value.I32(int32(i*i)))
		}
		Expect(m.Load(2).AsI32()).To(Equal(int32(4)))
		snap := m.Snapshot()
		Expect(snap[0].AsI32()).To(Equal(int32(0)))
		Expect(snap[3].AsI32()).To(Equal(int32(9)))
	})

	It("rejects bulk loads that overflow capacity", func() {
		m := storage.NewMemory("a", "i32", 2)
		Expect(m.LoadBulk([]string{"1", "2", "3"})).To(HaveOccurred())
	})
})

var _ = Describe("Stream", func() {
	It("reports empty and full correctly", func() {
		s := storage.NewStream("s", "u32", 2)
		Expect(s.IsEmpty()).To(BeTrue())
		s.Push(value.U32(1))
		s.Push(value.U32(2))
		Expect(s.IsFull()).To(BeTrue())
		Expect(s.Pop().AsU32()).To(Equal(uint32(1)))
		Expect(s.IsFull()).To(BeFalse())
	})
})

var _ = Describe("HardwareMemory", func() {
	It("returns the stored value at the latched address", func() {
		m := storage.NewHardwareMemory("mem", "i32", 4)
		for i, v := range []int32{10, 20, 30, 40} {
			m.PortA().WEn = true
			m.PortA().SetAddr(value.U32(uint32(i)))
			m.PortA().Data = value.I32(v)
			m.Update()
		}
		m.PortB().REn = true
		m.PortB().SetAddr(value.U32(1))
		m.Update() // latch address
		Expect(m.ReadData(m.PortB()).AsI32()).To(Equal(int32(20)))
	})
})

var _ = Describe("HardwareFIFO", func() {
	It("commits writes and reads on Update", func() {
		f := storage.NewHardwareFIFO("f", "i32", 2)
		f.WEn = true
		f.WData = value.I32(5)
		f.Update()
		Expect(f.IsEmpty()).To(BeFalse())

		f.WEn = false
		f.REn = true
		f.Update()
		Expect(f.RData().AsI32()).To(Equal(int32(5)))
	})
})
