// Package idgen provides the identifiers used by a simulation. Object IDs are
// sequential so that two runs of the same model number their events and
// processes identically; run IDs are globally unique.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// ID is a unique identifier represented as a uint64.
type ID uint64

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is 1.
func New() Generator {
	return &sequentialGenerator{}
}

// NewStartingAt returns a sequential generator whose first emitted ID is
// first.
func NewStartingAt(first ID) Generator {
	return &sequentialGenerator{next: uint64(first) - 1}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.next, 1))
}

// RunID returns a globally unique, roughly time-ordered identifier. It is not
// deterministic and must not be used for anything that affects the order of
// simulated events.
func RunID() string {
	return xid.New().String()
}
