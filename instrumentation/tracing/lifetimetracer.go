package tracing

import (
	"sync"

	"github.com/sarchlab/procsim/idgen"
	"github.com/sarchlab/procsim/instrumentation/hooking"
	"github.com/sarchlab/procsim/sim"
)

// ProcessFilter decides if a process should be traced.
type ProcessFilter func(p *sim.Process) bool

// AllProcesses is a ProcessFilter that accepts every process.
func AllProcesses(*sim.Process) bool { return true }

// LifetimeTracer collects how long processes live, from their first turn to
// their termination. Overlapping lifetimes are simply added together.
// Abandoned processes are never counted.
type LifetimeTracer struct {
	filter ProcessFilter

	lock      sync.Mutex
	inflight  map[idgen.ID]sim.VTimeInSec
	lifetimes []sim.VTimeInSec
	total     sim.VTimeInSec
	failed    int
}

// NewLifetimeTracer creates a new LifetimeTracer.
func NewLifetimeTracer(filter ProcessFilter) *LifetimeTracer {
	return &LifetimeTracer{
		filter:   filter,
		inflight: make(map[idgen.ID]sim.VTimeInSec),
	}
}

// Func tracks the ProcessStart, ProcessEnd, and ProcessFail hooks.
func (t *LifetimeTracer) Func(ctx hooking.HookCtx) {
	p, ok := ctx.Item.(*sim.Process)
	if !ok || !t.filter(p) {
		return
	}

	now := p.Env().Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	switch ctx.Pos {
	case sim.HookPosProcessStart:
		t.inflight[p.ID()] = now
	case sim.HookPosProcessEnd, sim.HookPosProcessFail:
		start, ok := t.inflight[p.ID()]
		if !ok {
			return
		}

		delete(t.inflight, p.ID())
		t.lifetimes = append(t.lifetimes, now-start)
		t.total += now - start

		if ctx.Pos == sim.HookPosProcessFail {
			t.failed++
		}
	}
}

// TotalTime returns the sum of all the finished lifetimes.
func (t *LifetimeTracer) TotalTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total
}

// Lifetimes returns the finished lifetimes in termination order.
func (t *LifetimeTracer) Lifetimes() []sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	out := make([]sim.VTimeInSec, len(t.lifetimes))
	copy(out, t.lifetimes)

	return out
}

// AverageTime returns the mean lifetime, or 0 if no process has finished.
func (t *LifetimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.lifetimes) == 0 {
		return 0
	}

	return t.total / sim.VTimeInSec(len(t.lifetimes))
}

// NumInflight returns the number of traced processes that have started but
// not finished.
func (t *LifetimeTracer) NumInflight() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.inflight)
}

// NumFailed returns the number of traced processes that failed.
func (t *LifetimeTracer) NumFailed() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.failed
}
