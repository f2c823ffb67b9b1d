// Package stats summarizes the samples a simulation run collects, such as
// interarrival times and waiting times.
package stats

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes the summary of xs. An empty sample has a zero summary;
// a single observation has a zero standard deviation.
func Summarize(xs []float64) Summary {
	s := Summary{Count: len(xs)}
	if len(xs) == 0 {
		return s
	}

	s.Mean = stat.Mean(xs, nil)
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)

	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}

	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("n=%d mean=%.4f sd=%.4f min=%.4f max=%.4f",
		s.Count, s.Mean, s.StdDev, s.Min, s.Max)
}

// Diff returns the differences between consecutive elements, such as the
// interarrival times of a list of arrival times.
func Diff(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}

	d := make([]float64, len(xs)-1)
	floats.SubTo(d, xs[1:], xs[:len(xs)-1])

	return d
}

// Partition splits xs into the elements strictly below and strictly above
// threshold. Elements equal to the threshold belong to neither part.
func Partition(xs []float64, threshold float64) (below, above []float64) {
	for _, x := range xs {
		switch {
		case x < threshold:
			below = append(below, x)
		case x > threshold:
			above = append(above, x)
		}
	}

	return below, above
}

// Histogram counts xs into equal-width bins over [lo, hi). Values outside of
// the range are dropped.
type Histogram struct {
	Lo, Hi float64
	Counts []int
}

// NewHistogram builds a histogram of xs.
func NewHistogram(xs []float64, bins int, lo, hi float64) Histogram {
	if bins <= 0 || !(hi > lo) {
		panic("stats: histogram needs at least one bin and hi > lo")
	}

	h := Histogram{Lo: lo, Hi: hi, Counts: make([]int, bins)}
	width := (hi - lo) / float64(bins)

	for _, x := range xs {
		if x < lo || x >= hi {
			continue
		}

		i := int(math.Floor((x - lo) / width))
		if i >= bins {
			i = bins - 1
		}

		h.Counts[i]++
	}

	return h
}

// Render draws the histogram as text, one bar per bin, with the longest bar
// width characters long.
func (h Histogram) Render(width int) string {
	maxCount := 0
	for _, c := range h.Counts {
		maxCount = max(maxCount, c)
	}

	binWidth := (h.Hi - h.Lo) / float64(len(h.Counts))

	var b strings.Builder
	for i, c := range h.Counts {
		bar := 0
		if maxCount > 0 {
			bar = c * width / maxCount
		}

		from := h.Lo + float64(i)*binWidth
		fmt.Fprintf(&b, "[%6.2f, %6.2f) %5d %s\n",
			from, from+binWidth, c, strings.Repeat("#", bar))
	}

	return b.String()
}
