package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/procsim/queueing"
	"github.com/sarchlab/procsim/sim"
)

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

var _ = Describe("Monitor", func() {
	var (
		env     *sim.Environment
		m       *Monitor
		handler http.Handler
		stuck   *sim.Process
	)

	BeforeEach(func() {
		env = sim.NewEnvironment()
		stuck = env.Start("stuck", func(p *sim.Process) error {
			_, err := p.Wait(env.NewEvent().SetName("never"))
			return err
		})
		env.Start("quick", func(p *sim.Process) error {
			return p.Sleep(2)
		})
		Expect(env.Run()).To(Succeed())

		m = NewMonitor()
		m.RegisterEnvironment(env)
		handler = m.Handler()
	})

	AfterEach(func() {
		env.Shutdown()
	})

	It("should replace privileged ports with a random one", func() {
		m.WithPortNumber(80)

		Expect(m.portNumber).To(Equal(0))
	})

	It("should report the current time", func() {
		rec := get(handler, "/api/now")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp nowRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Now).To(Equal(2.0))
		Expect(rsp.Paused).To(BeFalse())
	})

	It("should pause and continue the environment", func() {
		Expect(get(handler, "/api/pause").Code).To(Equal(http.StatusOK))
		Expect(env.IsPaused()).To(BeTrue())

		var rsp nowRsp
		Expect(json.Unmarshal(get(handler, "/api/now").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp.Paused).To(BeTrue())

		Expect(get(handler, "/api/continue").Code).To(Equal(http.StatusOK))
		Expect(env.IsPaused()).To(BeFalse())
	})

	It("should list processes", func() {
		var infos []ProcessInfo
		Expect(json.Unmarshal(get(handler, "/api/processes").Body.Bytes(), &infos)).
			To(Succeed())

		Expect(infos).To(HaveLen(2))
		Expect(infos[0].Name).To(Equal("stuck"))
		Expect(infos[0].State).To(Equal("waiting"))
		Expect(infos[0].WaitingOn).To(ContainSubstring("never"))
		Expect(infos[1].Name).To(Equal("quick"))
		Expect(infos[1].State).To(Equal("terminated"))
	})

	It("should filter processes by state", func() {
		var infos []ProcessInfo
		body := get(handler, "/api/processes?state=terminated").Body.Bytes()
		Expect(json.Unmarshal(body, &infos)).To(Succeed())

		Expect(infos).To(HaveLen(1))
		Expect(infos[0].Name).To(Equal("quick"))
	})

	It("should serialize a single process", func() {
		rec := get(handler, "/api/process/"+stuck.ID().String())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("stuck"))
	})

	It("should answer 404 for unknown processes", func() {
		Expect(get(handler, "/api/process/99999").Code).
			To(Equal(http.StatusNotFound))
		Expect(get(handler, "/api/process/abc").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should report line occupancy", func() {
		line := queueing.NewLine[string]("Line", 5)
		line.Push("Customer-1")
		m.RegisterLine(line)

		var rsp []lineRsp
		Expect(json.Unmarshal(get(handler, "/api/lines").Body.Bytes(), &rsp)).
			To(Succeed())

		Expect(rsp).To(Equal([]lineRsp{{Name: "Line", Size: 1, Capacity: 5}}))
	})

	It("should list progress bars until they complete", func() {
		bar := m.CreateProgressBar("Customers", 10)
		bar.IncrementInProgress(3)
		bar.MoveInProgressToFinished(2)

		var rsp []progressRsp
		Expect(json.Unmarshal(get(handler, "/api/progress").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("Customers"))
		Expect(rsp[0].Finished).To(Equal(uint64(2)))
		Expect(rsp[0].InProgress).To(Equal(uint64(1)))
		Expect(bar.Fraction()).To(Equal(0.2))

		m.CompleteProgressBar(bar)

		Expect(json.Unmarshal(get(handler, "/api/progress").Body.Bytes(), &rsp)).
			To(Succeed())
		Expect(rsp).To(BeEmpty())
	})

	It("should report resource usage", func() {
		rec := get(handler, "/api/resource")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})
})
