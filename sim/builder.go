package sim

import (
	"github.com/sarchlab/procsim/idgen"
	"github.com/sarchlab/procsim/instrumentation/hooking"
	"github.com/sirupsen/logrus"
)

// Builder can build environments.
type Builder struct {
	queue  EventQueue
	ids    idgen.Generator
	logger logrus.FieldLogger
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEventQueue sets the queue that orders pending events. The queue must
// be empty.
func (b Builder) WithEventQueue(q EventQueue) Builder {
	b.queue = q
	return b
}

// WithIDGenerator sets the generator that numbers events and processes.
func (b Builder) WithIDGenerator(g idgen.Generator) Builder {
	b.ids = g
	return b
}

// WithLogger sets the logger that process failures are reported to.
func (b Builder) WithLogger(l logrus.FieldLogger) Builder {
	b.logger = l
	return b
}

// Build creates a new Environment with its clock at 0.
func (b Builder) Build() *Environment {
	e := &Environment{
		HookableBase: hooking.NewHookableBase(),
		queue:        b.queue,
		ids:          b.ids,
		logger:       b.logger,
	}

	if e.queue == nil {
		e.queue = NewEventQueue()
	}

	if e.queue.Len() != 0 {
		panic("sim: the event queue of a new environment must be empty")
	}

	if e.ids == nil {
		e.ids = idgen.New()
	}

	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}

	return e
}
