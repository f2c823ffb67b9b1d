package tracing

import (
	"github.com/sarchlab/procsim/instrumentation/hooking"
	"github.com/sarchlab/procsim/sim"
	"github.com/sirupsen/logrus"
)

// EventLogger is a hook that writes one debug entry per fired event.
type EventLogger struct {
	logger logrus.FieldLogger
}

// NewEventLogger returns a new EventLogger which will write into the logger.
func NewEventLogger(logger logrus.FieldLogger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != sim.HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*sim.Event)
	if !ok {
		return
	}

	entry := h.logger.WithFields(logrus.Fields{
		"time":  float64(evt.Time()),
		"event": evt.Name(),
		"kind":  evt.Kind().String(),
	})

	if detail, ok := ctx.Detail.(sim.FiringDetail); ok {
		entry = entry.WithField("waiters", detail.NumWaiters)
	}

	entry.Debug("event fired")
}
