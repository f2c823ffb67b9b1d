package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func eventQueueBehavior(newQueue func() EventQueue) {
	var (
		env   *Environment
		queue EventQueue
	)

	BeforeEach(func() {
		env = NewEnvironment()
		queue = newQueue()
	})

	It("should pop in order", func() {
		numEvents := 100
		for i := 0; i < numEvents; i++ {
			queue.Push(VTimeInSec(rand.Float64()*100), env.NewEvent())
		}

		now := VTimeInSec(-1)
		for i := 0; i < numEvents; i++ {
			t, evt, err := queue.PopMin()
			Expect(err).NotTo(HaveOccurred())
			Expect(evt).NotTo(BeNil())
			Expect(t >= now).To(BeTrue())
			now = t
		}

		Expect(queue.Len()).To(Equal(0))
	})

	It("should pop same-time events in push order", func() {
		a := env.NewEvent().SetName("A")
		b := env.NewEvent().SetName("B")
		c := env.NewEvent().SetName("C")

		queue.Push(5, a)
		queue.Push(7, c)
		queue.Push(5, b)

		_, first, _ := queue.PopMin()
		_, second, _ := queue.PopMin()
		_, third, _ := queue.PopMin()

		Expect(first).To(BeIdenticalTo(a))
		Expect(second).To(BeIdenticalTo(b))
		Expect(third).To(BeIdenticalTo(c))
	})

	It("should keep FIFO order among many equal times", func() {
		events := make([]*Event, 50)
		for i := range events {
			events[i] = env.NewEvent()
			queue.Push(VTimeInSec(i%3), events[i])
		}

		for slot := 0; slot < 3; slot++ {
			for i := slot; i < len(events); i += 3 {
				t, evt, err := queue.PopMin()
				Expect(err).NotTo(HaveOccurred())
				Expect(t).To(Equal(VTimeInSec(slot)))
				Expect(evt).To(BeIdenticalTo(events[i]))
			}
		}
	})

	It("should peek without removing", func() {
		evt := env.NewEvent()
		queue.Push(3, evt)

		t, peeked, err := queue.Peek()

		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(VTimeInSec(3)))
		Expect(peeked).To(BeIdenticalTo(evt))
		Expect(queue.Len()).To(Equal(1))
	})

	It("should report an empty queue", func() {
		_, _, err := queue.PopMin()
		Expect(err).To(MatchError(ErrEmptyQueue))

		_, _, err = queue.Peek()
		Expect(err).To(MatchError(ErrEmptyQueue))
	})
}

var _ = Describe("HeapEventQueue", func() {
	eventQueueBehavior(func() EventQueue { return NewEventQueue() })
})

var _ = Describe("InsertionQueue", func() {
	eventQueueBehavior(func() EventQueue { return NewInsertionQueue() })
})
