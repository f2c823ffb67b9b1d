package tracing

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/procsim/sim"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/mock/gomock"
)

func startTwoProcesses(env *sim.Environment) {
	env.Start("a", func(p *sim.Process) error {
		return p.Sleep(1)
	})
	env.Start("b", func(p *sim.Process) error {
		if err := p.Sleep(2); err != nil {
			return err
		}

		return errors.New("b broke")
	})
}

var _ = Describe("FiringRecorder", func() {
	It("should record every fired event in order", func() {
		env := sim.NewEnvironment()
		rec := NewFiringRecorder()
		env.AcceptHook(rec)
		startTwoProcesses(env)

		Expect(env.Run()).To(Succeed())

		Expect(rec.Firings()).To(Equal([]Firing{
			{Time: 0, Name: "init a", Kind: sim.KindInit, Ok: true, Waiters: 1},
			{Time: 0, Name: "init b", Kind: sim.KindInit, Ok: true, Waiters: 1},
			{Time: 1, Name: "timeout a", Kind: sim.KindTimeout, Ok: true, Waiters: 1},
			{Time: 1, Name: "done a", Kind: sim.KindDone, Ok: true, Waiters: 0},
			{Time: 2, Name: "timeout b", Kind: sim.KindTimeout, Ok: true, Waiters: 1},
			{Time: 2, Name: "done b", Kind: sim.KindDone, Ok: false, Waiters: 0},
		}))
	})

	It("should produce equal traces for equal runs", func() {
		trace := func() []Firing {
			env := sim.NewEnvironment()
			rec := NewFiringRecorder()
			env.AcceptHook(rec)
			startTwoProcesses(env)
			Expect(env.Run()).To(Succeed())

			return rec.Firings()
		}

		Expect(trace()).To(Equal(trace()))
	})
})

var _ = Describe("LifetimeTracer", func() {
	It("should add up process lifetimes", func() {
		env := sim.NewEnvironment()
		tracer := NewLifetimeTracer(AllProcesses)
		env.AcceptHook(tracer)
		startTwoProcesses(env)

		Expect(env.Run()).To(Succeed())

		Expect(tracer.Lifetimes()).To(Equal([]sim.VTimeInSec{1, 2}))
		Expect(tracer.TotalTime()).To(Equal(sim.VTimeInSec(3)))
		Expect(tracer.AverageTime()).To(Equal(sim.VTimeInSec(1.5)))
		Expect(tracer.NumFailed()).To(Equal(1))
		Expect(tracer.NumInflight()).To(Equal(0))
	})

	It("should only trace filtered processes", func() {
		env := sim.NewEnvironment()
		tracer := NewLifetimeTracer(func(p *sim.Process) bool {
			return p.Name() == "b"
		})
		env.AcceptHook(tracer)
		startTwoProcesses(env)

		Expect(env.Run()).To(Succeed())

		Expect(tracer.Lifetimes()).To(Equal([]sim.VTimeInSec{2}))
	})

	It("should keep waiting processes in flight", func() {
		env := sim.NewEnvironment()
		tracer := NewLifetimeTracer(AllProcesses)
		env.AcceptHook(tracer)
		env.Start("stuck", func(p *sim.Process) error {
			_, err := p.Wait(env.NewEvent())
			return err
		})

		Expect(env.Run()).To(Succeed())
		env.Shutdown()

		Expect(tracer.NumInflight()).To(Equal(1))
		Expect(tracer.AverageTime()).To(Equal(sim.VTimeInSec(0)))
	})
})

var _ = Describe("EventLogger", func() {
	It("should log one debug entry per fired event", func() {
		logger, hook := logrustest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)

		env := sim.NewEnvironment()
		env.AcceptHook(NewEventLogger(logger))
		env.Start("a", func(p *sim.Process) error {
			return p.Sleep(1)
		})

		Expect(env.Run()).To(Succeed())

		entries := hook.AllEntries()
		Expect(entries).To(HaveLen(3))
		Expect(entries[1].Level).To(Equal(logrus.DebugLevel))
		Expect(entries[1].Message).To(Equal("event fired"))
		Expect(entries[1].Data).To(HaveKeyWithValue("event", "timeout a"))
		Expect(entries[1].Data).To(HaveKeyWithValue("time", 1.0))
		Expect(entries[1].Data).To(HaveKeyWithValue("waiters", 1))
	})
})

var _ = Describe("DBRecorderHook", func() {
	var (
		mockCtrl *gomock.Controller
		recorder *MockDataRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		recorder = NewMockDataRecorder(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should create its tables", func() {
		recorder.EXPECT().CreateTable(FiringTable, firingEntry{})
		recorder.EXPECT().CreateTable(ProcessEndTable, processEndEntry{})

		NewDBRecorderHook(recorder)
	})

	It("should write firings and process ends", func() {
		recorder.EXPECT().CreateTable(gomock.Any(), gomock.Any()).Times(2)

		var firings []firingEntry
		var ends []processEndEntry
		recorder.EXPECT().InsertData(FiringTable, gomock.Any()).
			Do(func(_ string, e any) {
				firings = append(firings, e.(firingEntry))
			}).
			Times(6)
		recorder.EXPECT().InsertData(ProcessEndTable, gomock.Any()).
			Do(func(_ string, e any) {
				ends = append(ends, e.(processEndEntry))
			}).
			Times(2)

		env := sim.NewEnvironment()
		env.AcceptHook(NewDBRecorderHook(recorder))
		startTwoProcesses(env)

		Expect(env.Run()).To(Succeed())

		Expect(firings[2]).To(Equal(firingEntry{
			Time: 1, Name: "timeout a", Kind: "timeout", Ok: true, Waiters: 1,
		}))
		Expect(ends).To(HaveLen(2))
		Expect(ends[0].Process).To(Equal("a"))
		Expect(ends[0].State).To(Equal("terminated"))
		Expect(ends[0].Error).To(BeEmpty())
		Expect(ends[1].Process).To(Equal("b"))
		Expect(ends[1].State).To(Equal("failed"))
		Expect(ends[1].Time).To(Equal(2.0))
		Expect(ends[1].Error).To(Equal("b broke"))
	})
})
