package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/sarchlab/procsim/idgen"
	"github.com/sarchlab/procsim/instrumentation/hooking"
	"github.com/sirupsen/logrus"
)

// StopReason tells why the last run returned.
type StopReason int

const (
	// StopNotRun means the environment has not run yet.
	StopNotRun StopReason = iota

	// StopQueueEmpty means there was no event left to fire.
	StopQueueEmpty

	// StopHorizonReached means the next event lies beyond the run horizon.
	StopHorizonReached

	// StopFatal means an invariant violation aborted the run.
	StopFatal
)

func (r StopReason) String() string {
	switch r {
	case StopNotRun:
		return "not run"
	case StopQueueEmpty:
		return "queue empty"
	case StopHorizonReached:
		return "horizon reached"
	case StopFatal:
		return "fatal"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// A SimulationEndHandler is a handler that is called after the simulation
// ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Environment owns the simulated clock, the event queue, and the processes
// of one simulation. It is both the clock processes read and the driver that
// pops events and resumes their waiters.
type Environment struct {
	*hooking.HookableBase

	timeLock sync.RWMutex
	now      VTimeInSec

	queue  EventQueue
	ids    idgen.Generator
	logger logrus.FieldLogger

	processLock sync.RWMutex
	processes   []*Process

	current    *Process
	running    bool
	fatalErr   error
	stopReason StopReason

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewEnvironment creates an Environment with the default heap queue,
// sequential IDs, and the standard logrus logger.
func NewEnvironment() *Environment {
	return MakeBuilder().Build()
}

// Now returns the current simulated time. It is safe to call from any
// goroutine.
func (e *Environment) Now() VTimeInSec {
	return e.readNow()
}

func (e *Environment) readNow() VTimeInSec {
	e.timeLock.RLock()
	t := e.now
	e.timeLock.RUnlock()

	return t
}

func (e *Environment) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Logger returns the logger the environment reports process failures to.
func (e *Environment) Logger() logrus.FieldLogger {
	return e.logger
}

// NewEvent creates an unscheduled event. It fires when Succeed or Fail is
// called on it.
func (e *Environment) NewEvent() *Event {
	return e.newEvent(KindSignal, "event")
}

func (e *Environment) newEvent(kind EventKind, name string) *Event {
	return &Event{
		env:  e,
		id:   e.ids.Generate(),
		name: name,
		kind: kind,
	}
}

// Timeout creates an event that fires delay units of time from now.
func (e *Environment) Timeout(delay VTimeInSec) (*Event, error) {
	return e.timeout(delay, nil, "timeout")
}

// TimeoutWithValue creates an event that fires delay units of time from now
// and delivers value to its waiters.
func (e *Environment) TimeoutWithValue(
	delay VTimeInSec,
	value any,
) (*Event, error) {
	return e.timeout(delay, value, "timeout")
}

func (e *Environment) timeout(
	delay VTimeInSec,
	value any,
	name string,
) (*Event, error) {
	d := float64(delay)
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return nil, e.fatal(wrapf(ErrInvalidDelay, "%v", d))
	}

	evt := e.newEvent(KindTimeout, name)
	evt.time = e.readNow() + delay
	evt.hasTime = true
	evt.value = value
	e.queue.Push(evt.time, evt)

	return evt, nil
}

// Start registers a new process and schedules its first turn at the current
// time. Processes started at the same time run in the order they were
// started.
func (e *Environment) Start(name string, fn ProcessFunc) *Process {
	p := newProcess(e, name, fn)

	e.processLock.Lock()
	e.processes = append(e.processes, p)
	e.processLock.Unlock()

	init := e.newEvent(KindInit, "init "+name)
	init.waiters = append(init.waiters, p)
	p.waitingOn = init
	p.state = ProcessRunnable

	if err := init.Succeed(nil); err != nil {
		panic(err)
	}

	return p
}

// Processes returns every process started in the environment, in start
// order.
func (e *Environment) Processes() []*Process {
	e.processLock.RLock()
	defer e.processLock.RUnlock()

	ps := make([]*Process, len(e.processes))
	copy(ps, e.processes)

	return ps
}

// QueueLen returns the number of pending queue entries.
func (e *Environment) QueueLen() int {
	return e.queue.Len()
}

// LastStopReason tells why the most recent run returned.
func (e *Environment) LastStopReason() StopReason {
	return e.stopReason
}

// fatal records err as the error that aborts the current run. Outside a run
// the error is only returned to the caller.
func (e *Environment) fatal(err error) error {
	if e.running && e.fatalErr == nil {
		e.fatalErr = err
	}

	return err
}

// Run fires events until the queue is empty. A process that never stops
// scheduling events keeps Run from returning; use RunUntil for those.
func (e *Environment) Run() error {
	return e.run(0, false)
}

// RunUntil fires every event scheduled at or before until and then sets the
// clock to until. Events after the horizon stay queued, so a later RunUntil
// with a larger horizon continues where this one stopped.
func (e *Environment) RunUntil(until VTimeInSec) error {
	if math.IsNaN(float64(until)) || math.IsInf(float64(until), 0) {
		return wrapf(ErrInvalidUntil, "until %v is not finite", float64(until))
	}

	if until < e.readNow() {
		return wrapf(ErrInvalidUntil, "until %v is before now %v",
			float64(until), float64(e.readNow()))
	}

	return e.run(until, true)
}

func (e *Environment) run(until VTimeInSec, bounded bool) error {
	if e.running {
		return wrapf(ErrAlreadyRunning, "nested run at %v", float64(e.readNow()))
	}

	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	e.running = true
	e.fatalErr = nil

	defer func() { e.running = false }()

	for {
		if e.fatalErr != nil {
			e.stopReason = StopFatal
			return e.fatalErr
		}

		e.pauseLock.Lock()

		t, evt, err := e.queue.Peek()
		if err != nil {
			e.pauseLock.Unlock()
			e.stopReason = StopQueueEmpty

			break
		}

		if bounded && t > until {
			e.pauseLock.Unlock()
			e.stopReason = StopHorizonReached

			break
		}

		_, _, _ = e.queue.PopMin()
		e.step(t, evt)

		e.pauseLock.Unlock()
	}

	if bounded && e.readNow() < until {
		e.writeNow(until)
	}

	return nil
}

func (e *Environment) step(t VTimeInSec, evt *Event) {
	now := e.readNow()
	if t < now {
		panic(fmt.Sprintf(
			"sim: cannot run event in the past, evt %s @ %.10f, now %.10f",
			evt, t, now,
		))
	}

	e.writeNow(t)

	if !evt.fired {
		evt.fire(evt.value, nil)
	}

	waiters := evt.takeResumeList()

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
		Detail: FiringDetail{NumWaiters: len(waiters)},
	}
	e.InvokeHook(hookCtx)

	for _, p := range waiters {
		if e.fatalErr != nil {
			break
		}

		e.resume(p, evt)
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)
}

// resume hands control to p and blocks until p waits again or ends.
func (e *Environment) resume(p *Process, evt *Event) {
	if p.state.Finished() || p.waitingOn != evt {
		return
	}

	p.waitingOn = nil
	p.state = ProcessRunnable
	e.current = p

	if !p.started {
		p.started = true
		go p.body()
	} else {
		p.resumeCh <- resumeSignal{value: evt.value, err: evt.err}
	}

	<-p.yieldCh
	e.current = nil
}

// Shutdown abandons every process that is still waiting and drops the pending
// events. Deferred functions of the abandoned processes run, but the
// processes cannot wait again. The environment must not be run afterwards.
func (e *Environment) Shutdown() {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for _, p := range e.Processes() {
		if p.state != ProcessWaiting {
			continue
		}

		e.current = p
		p.resumeCh <- resumeSignal{abandon: true}
		<-p.yieldCh
		e.current = nil
	}

	for e.queue.Len() > 0 {
		_, _, _ = e.queue.PopMin()
	}
}

// Pause prevents the environment from firing more events until Continue is
// called. It may be called from any goroutine.
func (e *Environment) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the environment to fire events again.
func (e *Environment) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused tells if Pause has been called without a matching Continue.
func (e *Environment) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// Inspect runs f between two events, so that f observes a consistent view of
// the processes and events. It is meant for observers on other goroutines.
func (e *Environment) Inspect(f func()) {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		f()
		return
	}

	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	f()
}

// RegisterSimulationEndHandler registers a handler that perform some actions
// after the simulation is finished.
func (e *Environment) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished invokes all the registered SimulationEndHandler.
func (e *Environment) Finished() {
	now := e.readNow()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
