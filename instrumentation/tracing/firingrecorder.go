package tracing

import (
	"fmt"
	"sync"

	"github.com/sarchlab/procsim/instrumentation/hooking"
	"github.com/sarchlab/procsim/sim"
)

// A Firing is the record of one event the driver popped.
type Firing struct {
	Time    sim.VTimeInSec
	Name    string
	Kind    sim.EventKind
	Ok      bool
	Waiters int
}

func (f Firing) String() string {
	return fmt.Sprintf("%.10f %s(%s) ok=%t waiters=%d",
		float64(f.Time), f.Name, f.Kind, f.Ok, f.Waiters)
}

// FiringRecorder keeps every firing in memory. Two runs of the same model
// with the same random draws produce equal traces.
type FiringRecorder struct {
	lock    sync.Mutex
	firings []Firing
}

// NewFiringRecorder creates an empty FiringRecorder.
func NewFiringRecorder() *FiringRecorder {
	return &FiringRecorder{}
}

// Func records the event of a BeforeEvent hook.
func (r *FiringRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != sim.HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*sim.Event)
	if !ok {
		return
	}

	f := Firing{
		Time: evt.Time(),
		Name: evt.Name(),
		Kind: evt.Kind(),
		Ok:   evt.Ok(),
	}

	if detail, ok := ctx.Detail.(sim.FiringDetail); ok {
		f.Waiters = detail.NumWaiters
	}

	r.lock.Lock()
	r.firings = append(r.firings, f)
	r.lock.Unlock()
}

// Firings returns a copy of the trace so far.
func (r *FiringRecorder) Firings() []Firing {
	r.lock.Lock()
	defer r.lock.Unlock()

	out := make([]Firing, len(r.firings))
	copy(out, r.firings)

	return out
}

// Len returns the number of firings recorded.
func (r *FiringRecorder) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.firings)
}
