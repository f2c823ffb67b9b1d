package sim

import "github.com/sarchlab/procsim/instrumentation/hooking"

// HookPosBeforeEvent triggers after the clock has advanced to a popped event
// and before its waiters are resumed. The hook item is the *Event and the
// detail is a FiringDetail.
var HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent triggers after every waiter of a popped event has run its
// turn.
var HookPosAfterEvent = &hooking.HookPos{Name: "AfterEvent"}

// HookPosProcessStart triggers when a process runs for the first time. The
// hook item is the *Process.
var HookPosProcessStart = &hooking.HookPos{Name: "ProcessStart"}

// HookPosProcessEnd triggers when a process returns without an error.
var HookPosProcessEnd = &hooking.HookPos{Name: "ProcessEnd"}

// HookPosProcessFail triggers when a process returns an error or panics. The
// hook detail is the error.
var HookPosProcessFail = &hooking.HookPos{Name: "ProcessFail"}

// FiringDetail is attached to the event hooks.
type FiringDetail struct {
	NumWaiters int
}
