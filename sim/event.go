package sim

import (
	"fmt"

	"github.com/sarchlab/procsim/idgen"
)

// VTimeInSec defines the time in the simulated space. The unit is whatever
// the scenario decides (the queueing examples use minutes).
type VTimeInSec float64

// EventKind tells how an event gets fired.
type EventKind int

const (
	// KindSignal events are fired explicitly with Succeed or Fail.
	KindSignal EventKind = iota

	// KindTimeout events are fired by the driver when the clock reaches them.
	KindTimeout

	// KindInit events carry the first resumption of a process.
	KindInit

	// KindDone events fire when a process terminates.
	KindDone
)

func (k EventKind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindTimeout:
		return "timeout"
	case KindInit:
		return "init"
	case KindDone:
		return "done"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// An Event is something processes can wait on. It fires at most once. When it
// fires, every process registered as a waiter at that moment is resumed, in
// registration order, with the event's outcome.
type Event struct {
	env  *Environment
	id   idgen.ID
	name string
	kind EventKind

	time    VTimeInSec
	hasTime bool

	fired bool
	value any
	err   error

	waiters    []*Process
	resumeList []*Process
}

// ID returns the identifier of the event, unique within its environment.
func (e *Event) ID() idgen.ID {
	return e.id
}

// Name returns the human readable name of the event.
func (e *Event) Name() string {
	return e.name
}

// SetName renames the event and returns it, so that it can be chained after
// NewEvent.
func (e *Event) SetName(name string) *Event {
	e.name = name
	return e
}

// Kind returns how the event is fired.
func (e *Event) Kind() EventKind {
	return e.kind
}

// Time returns the time the event is scheduled at. It is only meaningful if
// HasTime returns true.
func (e *Event) Time() VTimeInSec {
	return e.time
}

// HasTime tells if the event has a fire time. Timeouts have one from the
// start; signal events get one when they are succeeded or failed.
func (e *Event) HasTime() bool {
	return e.hasTime
}

// Fired tells if the event has fired.
func (e *Event) Fired() bool {
	return e.fired
}

// Ok tells if the event fired successfully.
func (e *Event) Ok() bool {
	return e.fired && e.err == nil
}

// Value returns the payload delivered to the waiters.
func (e *Event) Value() any {
	return e.value
}

// Err returns the error delivered to the waiters, if the event failed.
func (e *Event) Err() error {
	return e.err
}

// NumWaiters returns the number of processes currently waiting on the event.
func (e *Event) NumWaiters() int {
	return len(e.waiters)
}

// Succeed fires the event at the current time with the given value. The
// waiters registered so far are resumed, in registration order, once the
// driver reaches the event.
func (e *Event) Succeed(value any) error {
	return e.trigger(value, nil)
}

// Fail fires the event at the current time with an error outcome. Every
// waiter receives err from its Wait call.
func (e *Event) Fail(err error) error {
	if err == nil {
		panic("sim: Fail requires a non-nil error")
	}

	return e.trigger(nil, err)
}

func (e *Event) trigger(value any, err error) error {
	if e.fired {
		return e.env.fatal(wrapf(ErrAlreadyFired, "%s", e))
	}

	if e.kind == KindTimeout {
		return e.env.fatal(
			wrapf(ErrAlreadyFired, "%s fires automatically", e))
	}

	e.time = e.env.Now()
	e.hasTime = true
	e.fire(value, err)
	e.env.queue.Push(e.time, e)

	return nil
}

// AddWaiter registers a process to be resumed when the event fires.
func (e *Event) AddWaiter(p *Process) error {
	if e.fired {
		return wrapf(ErrEventAlreadyFired, "%s", e)
	}

	e.waiters = append(e.waiters, p)

	return nil
}

func (e *Event) fire(value any, err error) {
	e.fired = true
	e.value = value
	e.err = err
	e.resumeList = e.waiters
	e.waiters = nil
}

func (e *Event) takeResumeList() []*Process {
	l := e.resumeList
	e.resumeList = nil

	return l
}

func (e *Event) String() string {
	if e.hasTime {
		return fmt.Sprintf("%s#%d(%s)@%.10f", e.name, e.id, e.kind, e.time)
	}

	return fmt.Sprintf("%s#%d(%s)", e.name, e.id, e.kind)
}
