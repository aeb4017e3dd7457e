package session_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pku-liang/hestia/session"
)

var _ = Describe("Session breakpoints and watchpoints", func() {
	It("tracks set/unset independently", func() {
		s := session.New()
		s.SetBreakpoint("state_a")
		Expect(s.HasBreakpoint("state_a")).To(BeTrue())
		s.UnsetBreakpoint("state_a")
		Expect(s.HasBreakpoint("state_a")).To(BeFalse())

		s.SetWatchpoint("x")
		Expect(s.HasWatchpoint("x")).To(BeTrue())
	})

	It("defaults to the software level", func() {
		s := session.New()
		Expect(s.Level).To(Equal(session.LevelSoftware))
	})
})

var _ = Describe("Arena", func() {
	It("allocates, gets, and frees by handle", func() {
		a := session.NewArena[int]()
		h1 := a.Alloc(10)
		h2 := a.Alloc(20)
		Expect(*a.Get(h1)).To(Equal(10))
		Expect(*a.Get(h2)).To(Equal(20))
		Expect(a.Len()).To(Equal(2))

		a.Free(h1)
		Expect(a.Get(h1)).To(BeNil())
		Expect(a.Len()).To(Equal(1))

		h3 := a.Alloc(30)
		Expect(*a.Get(h3)).To(Equal(30))
	})
})
