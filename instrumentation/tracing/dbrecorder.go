package tracing

import (
	"github.com/sarchlab/procsim/datarecording"
	"github.com/sarchlab/procsim/instrumentation/hooking"
	"github.com/sarchlab/procsim/sim"
)

// Table names used by DBRecorderHook.
const (
	FiringTable     = "event_firing"
	ProcessEndTable = "process_end"
)

type firingEntry struct {
	Time    float64
	Name    string
	Kind    string
	Ok      bool
	Waiters int
}

type processEndEntry struct {
	Time    float64
	ID      uint64
	Process string
	State   string
	Error   string
}

// DBRecorderHook writes every fired event and every process termination into
// a DataRecorder.
type DBRecorderHook struct {
	recorder datarecording.DataRecorder
}

// NewDBRecorderHook creates the hook and its tables.
func NewDBRecorderHook(recorder datarecording.DataRecorder) *DBRecorderHook {
	recorder.CreateTable(FiringTable, firingEntry{})
	recorder.CreateTable(ProcessEndTable, processEndEntry{})

	return &DBRecorderHook{recorder: recorder}
}

// Func converts the hook into a table row.
func (h *DBRecorderHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosBeforeEvent:
		h.recordFiring(ctx)
	case sim.HookPosProcessEnd, sim.HookPosProcessFail:
		h.recordProcessEnd(ctx)
	}
}

func (h *DBRecorderHook) recordFiring(ctx hooking.HookCtx) {
	evt, ok := ctx.Item.(*sim.Event)
	if !ok {
		return
	}

	entry := firingEntry{
		Time: float64(evt.Time()),
		Name: evt.Name(),
		Kind: evt.Kind().String(),
		Ok:   evt.Ok(),
	}

	if detail, ok := ctx.Detail.(sim.FiringDetail); ok {
		entry.Waiters = detail.NumWaiters
	}

	h.recorder.InsertData(FiringTable, entry)
}

func (h *DBRecorderHook) recordProcessEnd(ctx hooking.HookCtx) {
	p, ok := ctx.Item.(*sim.Process)
	if !ok {
		return
	}

	entry := processEndEntry{
		Time:    float64(p.Env().Now()),
		ID:      uint64(p.ID()),
		Process: p.Name(),
		State:   p.State().String(),
	}

	if err, ok := ctx.Detail.(error); ok && err != nil {
		entry.Error = err.Error()
	}

	h.recorder.InsertData(ProcessEndTable, entry)
}
