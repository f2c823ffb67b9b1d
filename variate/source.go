// Package variate provides the random draws that drive simulated arrivals and
// service times. Every scenario takes a Source rather than a global random
// generator, so a run can be replayed exactly with the same seed or with a
// Scripted source.
package variate

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// A Source produces random variates.
type Source interface {
	// NextExponential draws from an exponential distribution with the given
	// rate, so the mean of the draws is 1/rate. The rate must be positive.
	NextExponential(rate float64) float64
}

// Exponential is a seeded Source backed by a PCG generator.
type Exponential struct {
	src rand.Source
}

// NewExponential creates a Source that always yields the same draws for the
// same seed.
func NewExponential(seed uint64) *Exponential {
	return &Exponential{src: rand.NewPCG(seed, seed^pcgStream)}
}

const pcgStream = 0x9e3779b97f4a7c15

// NextExponential draws one exponential variate.
func (e *Exponential) NextExponential(rate float64) float64 {
	mustBePositive(rate)

	d := distuv.Exponential{Rate: rate, Src: e.src}

	return d.Rand()
}

func mustBePositive(rate float64) {
	if !(rate > 0) {
		panic("variate: rate must be positive")
	}
}
