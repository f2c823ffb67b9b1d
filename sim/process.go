package sim

import (
	"errors"
	"fmt"

	"github.com/sarchlab/procsim/idgen"
	"github.com/sarchlab/procsim/instrumentation/hooking"
)

// ProcessFunc is the logic of a process. It runs until it returns, suspending
// itself every time it calls Wait or Sleep on the Process it is given.
// Returning a non-nil error terminates the process abnormally.
type ProcessFunc func(p *Process) error

// ProcessState is the lifecycle stage of a process.
type ProcessState int

// Process lifecycle: Created -> Runnable -> Waiting <-> Runnable ->
// Terminated or Failed. Processes still waiting when the environment shuts
// down end as Abandoned.
const (
	ProcessCreated ProcessState = iota
	ProcessRunnable
	ProcessWaiting
	ProcessTerminated
	ProcessFailed
	ProcessAbandoned
)

func (s ProcessState) String() string {
	switch s {
	case ProcessCreated:
		return "created"
	case ProcessRunnable:
		return "runnable"
	case ProcessWaiting:
		return "waiting"
	case ProcessTerminated:
		return "terminated"
	case ProcessFailed:
		return "failed"
	case ProcessAbandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("ProcessState(%d)", int(s))
	}
}

// Finished tells if the process will never run again.
func (s ProcessState) Finished() bool {
	return s == ProcessTerminated || s == ProcessFailed || s == ProcessAbandoned
}

// A Process is one logical thread of simulation logic.
//
// Each process runs on its own goroutine, but the environment hands control
// to exactly one goroutine at a time: the driver blocks while a process runs
// its turn, and the process blocks while it waits. Code inside a ProcessFunc
// can therefore mutate shared scenario state without locks.
type Process struct {
	env  *Environment
	id   idgen.ID
	name string
	fn   ProcessFunc

	state     ProcessState
	waitingOn *Event
	done      *Event
	err       error
	started   bool
	abandoned bool

	resumeCh chan resumeSignal
	yieldCh  chan struct{}
}

type resumeSignal struct {
	value   any
	err     error
	abandon bool
}

type abandonSignal struct{}

var errAbandoned = errors.New("sim: process abandoned")

func newProcess(env *Environment, name string, fn ProcessFunc) *Process {
	p := &Process{
		env:      env,
		id:       env.ids.Generate(),
		name:     name,
		fn:       fn,
		state:    ProcessCreated,
		resumeCh: make(chan resumeSignal),
		yieldCh:  make(chan struct{}),
	}
	p.done = env.newEvent(KindDone, "done "+name)

	return p
}

// ID returns the identifier of the process.
func (p *Process) ID() idgen.ID {
	return p.id
}

// Name returns the name given to Start.
func (p *Process) Name() string {
	return p.name
}

// Env returns the environment the process belongs to.
func (p *Process) Env() *Environment {
	return p.env
}

// State returns the lifecycle stage of the process.
func (p *Process) State() ProcessState {
	return p.state
}

// WaitingOn returns the event the process is suspended on, or nil if it is
// runnable or finished.
func (p *Process) WaitingOn() *Event {
	return p.waitingOn
}

// Err returns the error the process failed with, if any.
func (p *Process) Err() error {
	return p.err
}

// Done returns an event that fires when the process terminates. It succeeds
// with a nil value on normal termination and fails with the process error
// otherwise.
func (p *Process) Done() *Event {
	return p.done
}

// Wait suspends the process until evt fires and returns its outcome. It must
// only be called from the process's own ProcessFunc.
func (p *Process) Wait(evt *Event) (any, error) {
	p.mustBeRunning()

	if p.abandoned {
		panic(abandonSignal{})
	}

	if err := evt.AddWaiter(p); err != nil {
		return nil, err
	}

	p.state = ProcessWaiting
	p.waitingOn = evt
	p.yieldCh <- struct{}{}

	sig := <-p.resumeCh
	if sig.abandon {
		p.abandoned = true
		panic(abandonSignal{})
	}

	return sig.value, sig.err
}

// Sleep suspends the process for delay units of simulated time.
func (p *Process) Sleep(delay VTimeInSec) error {
	p.mustBeRunning()

	evt, err := p.env.timeout(delay, nil, "timeout "+p.name)
	if err != nil {
		return err
	}

	_, err = p.Wait(evt)

	return err
}

func (p *Process) mustBeRunning() {
	if p.env.current != p {
		panic(wrapf(ErrNotInProcess, "process %s", p.name))
	}
}

// body is the goroutine of the process. The deferred send hands control back
// to the driver after the process has recorded how it ended.
func (p *Process) body() {
	defer func() { p.yieldCh <- struct{}{} }()

	p.env.InvokeHook(hooking.HookCtx{
		Domain: p.env,
		Pos:    HookPosProcessStart,
		Item:   p,
	})

	err := p.call()
	if errors.Is(err, errAbandoned) {
		p.state = ProcessAbandoned
		p.waitingOn = nil

		return
	}

	p.finish(err)
}

func (p *Process) call() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if _, ok := r.(abandonSignal); ok {
			err = errAbandoned
			return
		}

		err = wrapf(ErrProcessPanicked, "%s: %v", p.name, r)
	}()

	return p.fn(p)
}

func (p *Process) finish(err error) {
	p.waitingOn = nil
	p.err = err

	if err == nil {
		p.state = ProcessTerminated
		p.env.InvokeHook(hooking.HookCtx{
			Domain: p.env,
			Pos:    HookPosProcessEnd,
			Item:   p,
		})
		if !p.done.fired {
			_ = p.done.Succeed(nil)
		}

		return
	}

	p.state = ProcessFailed
	p.env.logger.
		WithField("process", p.name).
		WithField("time", float64(p.env.Now())).
		WithError(err).
		Warn("process terminated abnormally")
	p.env.InvokeHook(hooking.HookCtx{
		Domain: p.env,
		Pos:    HookPosProcessFail,
		Item:   p,
		Detail: err,
	})
	if !p.done.fired {
		_ = p.done.Fail(err)
	}
}

func (p *Process) String() string {
	return fmt.Sprintf("%s#%d(%s)", p.name, p.id, p.state)
}
