// Package skier models skiers arriving at a lift with a rate that changes
// over the day, and compares the interarrival times before and after a split
// time.
package skier

import (
	"github.com/sarchlab/procsim/config"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/stats"
	"github.com/sarchlab/procsim/variate"
)

// Result holds the arrival times observed during a run.
type Result struct {
	Arrivals []sim.VTimeInSec
	Horizon  sim.VTimeInSec
}

// Times returns the arrival times as plain numbers.
func (r Result) Times() []float64 {
	ts := make([]float64, len(r.Arrivals))
	for i, t := range r.Arrivals {
		ts[i] = float64(t)
	}

	return ts
}

// Report compares the two halves of the day.
type Report struct {
	AM, PM         stats.Summary
	AMHist, PMHist stats.Histogram
}

// Summarize splits the interarrival times at split. Arrivals exactly at the
// split belong to neither half.
func (r Result) Summarize(split float64, bins int, maxGap float64) Report {
	am, pm := stats.Partition(r.Times(), split)
	amGaps, pmGaps := stats.Diff(am), stats.Diff(pm)

	return Report{
		AM:     stats.Summarize(amGaps),
		PM:     stats.Summarize(pmGaps),
		AMHist: stats.NewHistogram(amGaps, bins, 0, maxGap),
		PMHist: stats.NewHistogram(pmGaps, bins, 0, maxGap),
	}
}

type changePointer interface {
	NextChange(t float64) (float64, bool)
}

// Generator returns the process that creates skiers. Each gap is drawn with
// the rate in effect when the previous skier arrived. While the rate is 0 the
// generator sleeps until the profile changes, and it stops for good if the
// rate stays 0.
func Generator(
	profile variate.RateProfile,
	src variate.Source,
	res *Result,
) sim.ProcessFunc {
	return func(p *sim.Process) error {
		env := p.Env()

		for {
			now := float64(env.Now())
			rate := profile.Rate(now)

			if rate <= 0 {
				cp, ok := profile.(changePointer)
				if !ok {
					return nil
				}

				next, ok := cp.NextChange(now)
				if !ok {
					return nil
				}

				if err := p.Sleep(sim.VTimeInSec(next - now)); err != nil {
					return err
				}

				continue
			}

			if err := p.Sleep(sim.VTimeInSec(src.NextExponential(rate))); err != nil {
				return err
			}

			res.Arrivals = append(res.Arrivals, env.Now())
		}
	}
}

// Run simulates one day in env.
func Run(
	env *sim.Environment,
	params config.Skier,
	src variate.Source,
) (Result, error) {
	profile, err := params.RateProfile()
	if err != nil {
		return Result{}, err
	}

	res := Result{Horizon: sim.VTimeInSec(params.Horizon)}
	env.Start("Skier Generator", Generator(profile, src, &res))

	err = env.RunUntil(res.Horizon)
	env.Shutdown()

	return res, err
}
