package variate

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidProfile is returned when a rate profile cannot be built.
var ErrInvalidProfile = errors.New("variate: invalid rate profile")

// A RateProfile gives the arrival rate at a point in simulated time. A rate
// of 0 means nothing arrives.
type RateProfile interface {
	Rate(t float64) float64
}

// RateFunc adapts a function to the RateProfile interface.
type RateFunc func(t float64) float64

// Rate calls f.
func (f RateFunc) Rate(t float64) float64 {
	return f(t)
}

// Constant returns a profile with the same rate at all times.
func Constant(rate float64) RateFunc {
	return func(float64) float64 { return rate }
}

// A Segment starts a new constant rate at time From.
type Segment struct {
	From float64 `yaml:"from"`
	Rate float64 `yaml:"rate"`
}

// PiecewiseConstant is a step function of time. Before the first segment the
// rate is 0.
type PiecewiseConstant struct {
	segments []Segment
}

// NewPiecewiseConstant builds a step profile. Segments must have strictly
// increasing start times and non-negative rates.
func NewPiecewiseConstant(segments ...Segment) (*PiecewiseConstant, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", ErrInvalidProfile)
	}

	for i, s := range segments {
		if s.Rate < 0 || math.IsNaN(s.Rate) || math.IsInf(s.Rate, 0) {
			return nil, fmt.Errorf("%w: segment %d has rate %v",
				ErrInvalidProfile, i, s.Rate)
		}

		if i > 0 && !(s.From > segments[i-1].From) {
			return nil, fmt.Errorf("%w: segment %d starts at %v, not after %v",
				ErrInvalidProfile, i, s.From, segments[i-1].From)
		}
	}

	return &PiecewiseConstant{
		segments: append([]Segment(nil), segments...),
	}, nil
}

// Rate returns the rate of the segment that contains t.
func (p *PiecewiseConstant) Rate(t float64) float64 {
	i := p.segmentAt(t)
	if i < 0 {
		return 0
	}

	return p.segments[i].Rate
}

// NextChange returns the start of the first segment after t. It returns
// false if t is in the last segment.
func (p *PiecewiseConstant) NextChange(t float64) (float64, bool) {
	i := p.segmentAt(t) + 1
	if i >= len(p.segments) {
		return 0, false
	}

	return p.segments[i].From, true
}

// Segments returns a copy of the segments.
func (p *PiecewiseConstant) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

func (p *PiecewiseConstant) segmentAt(t float64) int {
	return sort.Search(len(p.segments), func(i int) bool {
		return p.segments[i].From > t
	}) - 1
}

// A Point pins the rate of a PiecewiseLinear profile at time T.
type Point struct {
	T    float64 `yaml:"t"`
	Rate float64 `yaml:"rate"`
}

// PiecewiseLinear interpolates linearly between points and holds the first
// and last rate outside of them.
type PiecewiseLinear struct {
	points []Point
}

// NewPiecewiseLinear builds an interpolated profile. Points must have strictly
// increasing times and non-negative rates.
func NewPiecewiseLinear(points ...Point) (*PiecewiseLinear, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidProfile)
	}

	for i, pt := range points {
		if pt.Rate < 0 || math.IsNaN(pt.Rate) || math.IsInf(pt.Rate, 0) {
			return nil, fmt.Errorf("%w: point %d has rate %v",
				ErrInvalidProfile, i, pt.Rate)
		}

		if i > 0 && !(pt.T > points[i-1].T) {
			return nil, fmt.Errorf("%w: point %d at %v, not after %v",
				ErrInvalidProfile, i, pt.T, points[i-1].T)
		}
	}

	return &PiecewiseLinear{points: append([]Point(nil), points...)}, nil
}

// Rate interpolates the rate at t.
func (p *PiecewiseLinear) Rate(t float64) float64 {
	first, last := p.points[0], p.points[len(p.points)-1]

	if t <= first.T {
		return first.Rate
	}

	if t >= last.T {
		return last.Rate
	}

	i := sort.Search(len(p.points), func(i int) bool {
		return p.points[i].T > t
	})
	a, b := p.points[i-1], p.points[i]
	frac := (t - a.T) / (b.T - a.T)

	return a.Rate + frac*(b.Rate-a.Rate)
}

// rampSteps is how finely NextChange walks a segment that ramps up from 0.
const rampSteps = 16

// NextChange returns the next time after t at which the rate may have become
// positive: the next point, or one rampSteps-th of the way along a segment
// that rises towards a positive rate. It returns false after the last point,
// where the rate no longer changes.
func (p *PiecewiseLinear) NextChange(t float64) (float64, bool) {
	i := sort.Search(len(p.points), func(i int) bool {
		return p.points[i].T > t
	})

	if i >= len(p.points) {
		return 0, false
	}

	if i == 0 {
		return p.points[0].T, true
	}

	a, b := p.points[i-1], p.points[i]
	if b.Rate > 0 {
		return math.Min(t+(b.T-a.T)/rampSteps, b.T), true
	}

	return b.T, true
}
