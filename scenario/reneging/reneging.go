// Package reneging models a single server queue whose customers give up if
// service has not started within their patience.
//
// A generator process creates customers at exponential intervals. Each
// customer joins the line and waits for its patience to run out; if it is
// still in the line at that point it leaves and is counted as reneged. The
// server takes customers from the front of the line, serves them for an
// exponential time, and sleeps on an arrival event when the line is empty.
package reneging

import (
	"fmt"

	"github.com/sarchlab/procsim/config"
	"github.com/sarchlab/procsim/queueing"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/variate"
)

// Random-variate subsystems used by the model.
const (
	SubsystemArrival = "arrival"
	SubsystemService = "service"
)

// Sources are the random draws of the model.
type Sources struct {
	Arrival variate.Source
	Service variate.Source
}

// SourcesFrom takes the arrival and service streams of a partitioned source.
func SourcesFrom(p *variate.Partitioned) Sources {
	return Sources{
		Arrival: p.ForSubsystem(SubsystemArrival),
		Service: p.ForSubsystem(SubsystemService),
	}
}

// Progress is told about customers as they arrive and leave the line.
type Progress interface {
	IncrementInProgress(amount uint64)
	MoveInProgressToFinished(amount uint64)
}

// Result is what a run of the model observed.
type Result struct {
	// Customers is the number of customers that arrived.
	Customers int

	// Served lists the customers in the order service started.
	Served []string

	// Reneged lists the customers that gave up, in the order they left.
	Reneged []string

	// RenegeTimes holds the time each reneging customer left.
	RenegeTimes []sim.VTimeInSec

	// Waits holds, for each served customer, the time from arrival to the
	// start of service.
	Waits []float64

	// TimesInSystem holds, for each customer that left, the time from arrival
	// to the end of service or to reneging, in the order customers left.
	TimesInSystem []float64

	// EndTime is the time of the last event.
	EndTime sim.VTimeInSec
}

// NumReneged returns the number of customers that gave up.
func (r Result) NumReneged() int {
	return len(r.Reneged)
}

// RenegeProbability estimates the probability that a customer reneges.
func (r Result) RenegeProbability() float64 {
	if r.Customers == 0 {
		return 0
	}

	return float64(len(r.Reneged)) / float64(r.Customers)
}

// Model holds the shared state of the processes.
type Model struct {
	env      *sim.Environment
	params   config.Reneging
	sources  Sources
	progress Progress

	line          *queueing.Line[string]
	arrivalEvents []*sim.Event
	arrivalTimes  map[string]sim.VTimeInSec

	result Result
}

// New creates a model in env. Start must be called before running env.
func New(
	env *sim.Environment,
	params config.Reneging,
	sources Sources,
) *Model {
	return &Model{
		env:          env,
		params:       params,
		sources:      sources,
		line:         queueing.NewLine[string]("Line", 0),
		arrivalTimes: make(map[string]sim.VTimeInSec),
	}
}

// WithProgress reports arrivals and departures to p.
func (m *Model) WithProgress(p Progress) *Model {
	m.progress = p
	return m
}

// Line returns the line customers wait in.
func (m *Model) Line() *queueing.Line[string] {
	return m.line
}

// Start registers the server and the customer generator, in that order.
func (m *Model) Start() {
	m.env.Start("Server", m.server)
	m.env.Start("Generator", m.generator)
}

// Result returns the observations so far.
func (m *Model) Result() Result {
	r := m.result
	r.EndTime = m.env.Now()

	return r
}

func (m *Model) customer(name string) sim.ProcessFunc {
	return func(p *sim.Process) error {
		m.line.Push(name)
		m.arrivalTimes[name] = m.env.Now()
		m.result.Customers++

		if m.progress != nil {
			m.progress.IncrementInProgress(1)
		}

		if err := p.Sleep(sim.VTimeInSec(m.params.Patience)); err != nil {
			return err
		}

		if !m.line.Remove(name) {
			return nil
		}

		m.result.Reneged = append(m.result.Reneged, name)
		m.result.RenegeTimes = append(m.result.RenegeTimes, m.env.Now())
		m.depart(name)

		if m.progress != nil {
			m.progress.MoveInProgressToFinished(1)
		}

		return nil
	}
}

func (m *Model) generator(p *sim.Process) error {
	rate := 1 / m.params.MeanInterarrival

	for k := 1; k <= m.params.Customers; k++ {
		gap := m.sources.Arrival.NextExponential(rate)
		if err := p.Sleep(sim.VTimeInSec(gap)); err != nil {
			return err
		}

		name := fmt.Sprintf("Customer-%d", k)
		m.env.Start(name, m.customer(name))

		for len(m.arrivalEvents) > 0 {
			evt := m.arrivalEvents[0]
			m.arrivalEvents = m.arrivalEvents[1:]

			if err := evt.Succeed(name); err != nil {
				return err
			}
		}
	}

	return nil
}

func (m *Model) server(p *sim.Process) error {
	rate := 1 / m.params.MeanService

	for {
		for m.line.Size() > 0 {
			name, _ := m.line.Pop()
			m.startService(name)

			d := m.sources.Service.NextExponential(rate)
			if err := p.Sleep(sim.VTimeInSec(d)); err != nil {
				return err
			}

			m.depart(name)
		}

		arrival := m.env.NewEvent().SetName("new arrival")
		m.arrivalEvents = append(m.arrivalEvents, arrival)

		if _, err := p.Wait(arrival); err != nil {
			return err
		}
	}
}

func (m *Model) startService(name string) {
	m.result.Served = append(m.result.Served, name)
	m.result.Waits = append(m.result.Waits,
		float64(m.env.Now()-m.arrivalTimes[name]))

	if m.progress != nil {
		m.progress.MoveInProgressToFinished(1)
	}
}

func (m *Model) depart(name string) {
	m.result.TimesInSystem = append(m.result.TimesInSystem,
		float64(m.env.Now()-m.arrivalTimes[name]))
	delete(m.arrivalTimes, name)
}

// Run builds the model in env, runs it until no event is left, and abandons
// the idle server.
func Run(
	env *sim.Environment,
	params config.Reneging,
	sources Sources,
) (Result, error) {
	m := New(env, params, sources)
	m.Start()

	err := env.Run()
	res := m.Result()
	env.Shutdown()

	return res, err
}
