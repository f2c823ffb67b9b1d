package variate

import "hash/fnv"

// Partitioned hands out one independent Exponential source per named
// subsystem, all derived from a master seed. Adding draws to one subsystem
// never shifts the draws of another.
//
// Not safe for concurrent use; simulation processes run one at a time.
type Partitioned struct {
	seed    uint64
	streams map[string]*Exponential
}

// NewPartitioned creates a Partitioned source from a master seed.
func NewPartitioned(seed uint64) *Partitioned {
	return &Partitioned{
		seed:    seed,
		streams: make(map[string]*Exponential),
	}
}

// Seed returns the master seed.
func (p *Partitioned) Seed() uint64 {
	return p.seed
}

// ForSubsystem returns the source of the named subsystem. The same name
// always returns the same source.
func (p *Partitioned) ForSubsystem(name string) Source {
	if s, ok := p.streams[name]; ok {
		return s
	}

	s := NewExponential(p.seed ^ fnv1a64(name))
	p.streams[name] = s

	return s
}

func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return h.Sum64()
}
