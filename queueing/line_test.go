package queueing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/procsim/instrumentation/hooking"
)

var _ = Describe("Line", func() {
	var line *Line[string]

	BeforeEach(func() {
		line = NewLine[string]("TestLine", 0)
	})

	Context("when newly created", func() {
		It("should have correct name", func() {
			Expect(line.Name()).To(Equal("TestLine"))
		})

		It("should be empty and unbounded", func() {
			Expect(line.Size()).To(Equal(0))
			Expect(line.Capacity()).To(Equal(0))
			Expect(line.CanPush()).To(BeTrue())
		})

		It("should report nothing to peek or pop", func() {
			_, ok := line.Peek()
			Expect(ok).To(BeFalse())

			_, ok = line.Pop()
			Expect(ok).To(BeFalse())
		})
	})

	Context("when elements are added", func() {
		BeforeEach(func() {
			line.Push("c1")
			line.Push("c2")
			line.Push("c3")
		})

		It("should pop elements in FIFO order", func() {
			e, ok := line.Pop()
			Expect(ok).To(BeTrue())
			Expect(e).To(Equal("c1"))

			e, _ = line.Pop()
			Expect(e).To(Equal("c2"))
			Expect(line.Size()).To(Equal(1))
		})

		It("should peek without removing", func() {
			e, ok := line.Peek()

			Expect(ok).To(BeTrue())
			Expect(e).To(Equal("c1"))
			Expect(line.Size()).To(Equal(3))
		})

		It("should remove from the middle and keep order", func() {
			Expect(line.Remove("c2")).To(BeTrue())

			Expect(line.Items()).To(Equal([]string{"c1", "c3"}))
			Expect(line.Contains("c2")).To(BeFalse())
		})

		It("should leave the line alone when removing an absent element", func() {
			Expect(line.Remove("c9")).To(BeFalse())

			Expect(line.Items()).To(Equal([]string{"c1", "c2", "c3"}))
		})

		It("should report positions", func() {
			Expect(line.Position("c3")).To(Equal(2))
			Expect(line.Position("c9")).To(Equal(-1))
		})

		It("should clear", func() {
			line.Clear()

			Expect(line.Size()).To(Equal(0))
		})

		It("should return a copy of the items", func() {
			items := line.Items()
			items[0] = "changed"

			e, _ := line.Peek()
			Expect(e).To(Equal("c1"))
		})
	})

	Context("with a capacity", func() {
		BeforeEach(func() {
			line = NewLine[string]("Bounded", 2)
			line.Push("a")
			line.Push("b")
		})

		It("should refuse more elements", func() {
			Expect(line.CanPush()).To(BeFalse())
			Expect(func() { line.Push("c") }).To(Panic())
		})
	})

	It("should panic on negative capacity", func() {
		Expect(func() { NewLine[int]("bad", -1) }).To(Panic())
	})

	It("should invoke hooks", func() {
		var got []string
		line.AcceptHook(hooking.NewHookFunc(func(ctx hooking.HookCtx) {
			got = append(got, ctx.Pos.Name+":"+ctx.Item.(string))
		}))

		line.Push("a")
		line.Push("b")
		line.Remove("b")
		line.Pop()

		Expect(got).To(Equal([]string{
			"Line Push:a", "Line Push:b", "Line Remove:b", "Line Pop:a",
		}))
	})
})
