package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Event", func() {
	var env *Environment

	BeforeEach(func() {
		env = NewEnvironment()
	})

	It("should start unfired and without a time", func() {
		evt := env.NewEvent()

		Expect(evt.Fired()).To(BeFalse())
		Expect(evt.HasTime()).To(BeFalse())
		Expect(evt.Kind()).To(Equal(KindSignal))
	})

	It("should fire at the current time on succeed", func() {
		evt := env.NewEvent()

		Expect(evt.Succeed(42)).To(Succeed())

		Expect(evt.Fired()).To(BeTrue())
		Expect(evt.Ok()).To(BeTrue())
		Expect(evt.HasTime()).To(BeTrue())
		Expect(evt.Time()).To(Equal(VTimeInSec(0)))
		Expect(evt.Value()).To(Equal(42))
		Expect(env.QueueLen()).To(Equal(1))
	})

	It("should refuse to succeed twice, every time", func() {
		evt := env.NewEvent()
		Expect(evt.Succeed(nil)).To(Succeed())

		err1 := evt.Succeed(nil)
		err2 := evt.Succeed(nil)

		Expect(err1).To(MatchError(ErrAlreadyFired))
		Expect(err2).To(MatchError(ErrAlreadyFired))
		Expect(env.QueueLen()).To(Equal(1))
	})

	It("should refuse to fail a fired event", func() {
		evt := env.NewEvent()
		Expect(evt.Fail(errors.New("boom"))).To(Succeed())

		Expect(evt.Fail(errors.New("again"))).To(MatchError(ErrAlreadyFired))
		Expect(evt.Succeed(nil)).To(MatchError(ErrAlreadyFired))
		Expect(evt.Ok()).To(BeFalse())
		Expect(evt.Err()).To(MatchError("boom"))
	})

	It("should panic when failed with a nil error", func() {
		evt := env.NewEvent()

		Expect(func() { _ = evt.Fail(nil) }).To(Panic())
	})

	It("should not allow timeouts to be succeeded by hand", func() {
		evt, err := env.Timeout(3)
		Expect(err).NotTo(HaveOccurred())

		Expect(evt.Succeed(nil)).To(MatchError(ErrAlreadyFired))
		Expect(evt.Fired()).To(BeFalse())
	})

	It("should schedule timeouts at now plus delay", func() {
		evt, err := env.Timeout(2.5)

		Expect(err).NotTo(HaveOccurred())
		Expect(evt.Kind()).To(Equal(KindTimeout))
		Expect(evt.HasTime()).To(BeTrue())
		Expect(evt.Time()).To(Equal(VTimeInSec(2.5)))
	})

	It("should reject negative delays", func() {
		_, err := env.Timeout(-1)

		Expect(err).To(MatchError(ErrInvalidDelay))
		Expect(env.QueueLen()).To(Equal(0))
	})

	It("should refuse waiters after firing", func() {
		evt := env.NewEvent()
		p := env.Start("p", func(*Process) error { return nil })
		Expect(evt.Succeed(nil)).To(Succeed())

		Expect(evt.AddWaiter(p)).To(MatchError(ErrEventAlreadyFired))
	})

	It("should keep waiters in registration order", func() {
		evt := env.NewEvent()
		p1 := env.Start("p1", func(*Process) error { return nil })
		p2 := env.Start("p2", func(*Process) error { return nil })

		Expect(evt.AddWaiter(p1)).To(Succeed())
		Expect(evt.AddWaiter(p2)).To(Succeed())
		Expect(evt.NumWaiters()).To(Equal(2))

		Expect(evt.Succeed(nil)).To(Succeed())

		Expect(evt.NumWaiters()).To(Equal(0))
		Expect(evt.takeResumeList()).To(Equal([]*Process{p1, p2}))
	})
})
