package sim

import (
	"errors"
	"fmt"
)

// Error classes returned by the kernel. Use errors.Is to test for a class;
// the wrapped message names the event or process involved.
//
//   - ErrAlreadyFired and ErrInvalidDelay are invariant violations. When they
//     happen while the environment is running they also abort the run.
//   - ErrEventAlreadyFired is returned to a process that tries to wait on an
//     event that has already fired. Late waiters are not supported.
//   - ErrEmptyQueue never leaves the package through Run; an empty queue is a
//     normal way for a run to stop.
//   - ErrAlreadyRunning is returned, not raised, so a nested Run leaves the
//     outer run untouched.
//   - ErrNotInProcess is the panic value raised when Wait or Sleep is called
//     from outside the turn of the process it belongs to.
//   - ErrProcessPanicked marks a process that terminated by panicking. It is
//     local to that process.
var (
	// ErrAlreadyFired is returned when an event is succeeded or failed twice.
	ErrAlreadyFired = errors.New("sim: event already fired")

	// ErrEventAlreadyFired is returned when a waiter is registered on an
	// event that has already fired.
	ErrEventAlreadyFired = errors.New("sim: cannot wait on a fired event")

	// ErrInvalidDelay is returned when a timeout is requested with a negative
	// or non-finite delay.
	ErrInvalidDelay = errors.New("sim: invalid delay")

	// ErrEmptyQueue is returned when popping from an empty event queue.
	ErrEmptyQueue = errors.New("sim: event queue is empty")

	// ErrInvalidUntil is returned when a run horizon lies in the past or is
	// not finite.
	ErrInvalidUntil = errors.New("sim: invalid run horizon")

	// ErrAlreadyRunning is returned when Run or RunUntil is called while the
	// environment is running, such as from inside a process.
	ErrAlreadyRunning = errors.New("sim: environment is already running")

	// ErrNotInProcess is raised when a process waits outside its own turn.
	ErrNotInProcess = errors.New("sim: not in the turn of the process")

	// ErrProcessPanicked wraps the value recovered from a panicking process.
	ErrProcessPanicked = errors.New("sim: process panicked")
)

func wrapf(class error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", class, fmt.Sprintf(format, args...))
}
