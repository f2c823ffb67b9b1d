package reneging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/procsim/config"
	"github.com/sarchlab/procsim/instrumentation/tracing"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/variate"
)

type countingProgress struct {
	inProgress uint64
	finished   uint64
}

func (c *countingProgress) IncrementInProgress(amount uint64) {
	c.inProgress += amount
}

func (c *countingProgress) MoveInProgressToFinished(amount uint64) {
	c.inProgress -= amount
	c.finished += amount
}

func fixedParams() config.Reneging {
	return config.Reneging{
		Customers:        10,
		MeanInterarrival: 0.5,
		MeanService:      1.3,
		Patience:         1.3,
	}
}

func fixedSources() (Sources, *variate.Scripted, *variate.Scripted) {
	arrival := variate.NewScripted(0.5)
	service := variate.NewScripted(1.3)

	return Sources{Arrival: arrival, Service: service}, arrival, service
}

var _ = Describe("Reneging", func() {
	Context("with fixed interarrival and service times", func() {
		var (
			res      Result
			arrival  *variate.Scripted
			service  *variate.Scripted
			progress *countingProgress
		)

		BeforeEach(func() {
			var sources Sources
			sources, arrival, service = fixedSources()
			progress = &countingProgress{}

			env := sim.NewEnvironment()
			m := New(env, fixedParams(), sources).WithProgress(progress)
			m.Start()

			Expect(env.Run()).To(Succeed())
			res = m.Result()
			env.Shutdown()
		})

		It("should let five customers renege", func() {
			Expect(res.Customers).To(Equal(10))
			Expect(res.Reneged).To(Equal([]string{
				"Customer-3", "Customer-5", "Customer-6",
				"Customer-8", "Customer-10",
			}))

			expected := []float64{2.8, 3.8, 4.3, 5.3, 6.3}
			Expect(res.RenegeTimes).To(HaveLen(len(expected)))
			for i, t := range expected {
				Expect(float64(res.RenegeTimes[i])).To(BeNumerically("~", t, 1e-9))
			}

			Expect(res.RenegeProbability()).To(Equal(0.5))
		})

		It("should serve the others in arrival order", func() {
			Expect(res.Served).To(Equal([]string{
				"Customer-1", "Customer-2", "Customer-4",
				"Customer-7", "Customer-9",
			}))

			expected := []float64{0, 0.8, 1.1, 0.9, 1.2}
			Expect(res.Waits).To(HaveLen(len(expected)))
			for i, w := range expected {
				Expect(res.Waits[i]).To(BeNumerically("~", w, 1e-9))
			}
		})

		It("should measure the time in system of every customer", func() {
			expected := []float64{
				1.3, 1.3, 2.1, 1.3, 1.3, 2.4, 1.3, 2.2, 1.3, 2.5,
			}
			Expect(res.TimesInSystem).To(HaveLen(len(expected)))
			for i, d := range expected {
				Expect(res.TimesInSystem[i]).To(BeNumerically("~", d, 1e-9))
			}

			sum := 0.0
			for _, d := range res.TimesInSystem {
				sum += d
			}
			Expect(sum / float64(len(res.TimesInSystem))).
				To(BeNumerically("~", 1.7, 1e-9))
		})

		It("should stop after the last service completes", func() {
			Expect(float64(res.EndTime)).To(BeNumerically("~", 7.0, 1e-9))
		})

		It("should draw with the configured rates", func() {
			Expect(arrival.NumDraws()).To(Equal(10))
			Expect(arrival.Rates()).To(HaveEach(2.0))

			Expect(service.NumDraws()).To(Equal(5))
			Expect(service.Rates()[0]).To(BeNumerically("~", 1/1.3, 1e-12))
		})

		It("should report progress", func() {
			Expect(progress.finished).To(Equal(uint64(10)))
			Expect(progress.inProgress).To(BeZero())
		})
	})

	It("should abandon the idle server", func() {
		sources, _, _ := fixedSources()
		env := sim.NewEnvironment()

		_, err := Run(env, fixedParams(), sources)

		Expect(err).NotTo(HaveOccurred())
		server := env.Processes()[0]
		Expect(server.Name()).To(Equal("Server"))
		Expect(server.State()).To(Equal(sim.ProcessAbandoned))
	})

	It("should handle a run without customers", func() {
		sources, _, _ := fixedSources()
		params := fixedParams()
		params.Customers = 0

		res, err := Run(sim.NewEnvironment(), params, sources)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Customers).To(BeZero())
		Expect(res.RenegeProbability()).To(BeZero())
	})

	It("should be reproducible with the same seed", func() {
		run := func(seed uint64) (Result, []tracing.Firing) {
			env := sim.NewEnvironment()
			rec := tracing.NewFiringRecorder()
			env.AcceptHook(rec)

			params := config.Default().Reneging
			params.Customers = 300

			res, err := Run(env, params,
				SourcesFrom(variate.NewPartitioned(seed)))
			Expect(err).NotTo(HaveOccurred())

			return res, rec.Firings()
		}

		res1, trace1 := run(42)
		res2, trace2 := run(42)
		res3, _ := run(43)

		Expect(res1).To(Equal(res2))
		Expect(trace1).To(Equal(trace2))
		Expect(res1.RenegeTimes).NotTo(Equal(res3.RenegeTimes))
	})

	It("should account for every customer", func() {
		params := config.Default().Reneging
		params.Customers = 2000

		res, err := Run(sim.NewEnvironment(), params,
			SourcesFrom(variate.NewPartitioned(7)))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Customers).To(Equal(2000))
		Expect(len(res.Served) + len(res.Reneged)).To(Equal(2000))
		Expect(res.RenegeProbability()).To(BeNumerically(">", 0.1))
		Expect(res.RenegeProbability()).To(BeNumerically("<", 0.9))
	})
})
