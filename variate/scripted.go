package variate

// Scripted is a Source that returns predetermined values in order, starting
// over when the list is exhausted. It ignores the requested rate but records
// it, so tests can check which rates a model asked for.
type Scripted struct {
	values []float64
	next   int
	rates  []float64
}

// NewScripted creates a Scripted source. At least one value is required.
func NewScripted(values ...float64) *Scripted {
	if len(values) == 0 {
		panic("variate: a scripted source needs at least one value")
	}

	return &Scripted{values: values}
}

// NextExponential returns the next scripted value.
func (s *Scripted) NextExponential(rate float64) float64 {
	s.rates = append(s.rates, rate)

	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)

	return v
}

// Rates returns every rate requested so far.
func (s *Scripted) Rates() []float64 {
	return s.rates
}

// NumDraws returns the number of values handed out.
func (s *Scripted) NumDraws() int {
	return len(s.rates)
}
