package cmd

import (
	"fmt"
	"io"

	"github.com/sarchlab/procsim/config"
	"github.com/sarchlab/procsim/scenario/skier"
	"github.com/spf13/cobra"
)

const histogramWidth = 40

var (
	horizon float64
	split   float64
	shape   string
)

var skierCmd = &cobra.Command{
	Use:   "skier",
	Short: "Compare skier interarrival times before and after a split time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("horizon") {
			cfg.Skier.Horizon = horizon
		}

		if cmd.Flags().Changed("split") {
			cfg.Skier.Split = split
		}

		if cmd.Flags().Changed("shape") {
			cfg.Skier.Shape = shape
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		return runSkier(cfg, cmd.OutOrStdout())
	},
}

func init() {
	skierCmd.Flags().Float64Var(&horizon, "horizon", 480,
		"Length of the day, in minutes")
	skierCmd.Flags().Float64Var(&split, "split", 240,
		"Time that separates the morning from the afternoon")
	skierCmd.Flags().StringVar(&shape, "shape", config.ShapeStep,
		"How the rate moves between profile points (step, linear)")

	runCmd.AddCommand(skierCmd)
}

func runSkier(cfg config.Config, out io.Writer) error {
	s, err := newSession("skier", cfg)
	if err != nil {
		return err
	}

	res, err := skier.Run(s.env, cfg.Skier, s.sources.ForSubsystem("arrival"))
	s.finish()

	if err != nil {
		return err
	}

	report := res.Summarize(cfg.Skier.Split, cfg.Skier.Bins, cfg.Skier.MaxGap)

	fmt.Fprintf(out, "Skiers arrived: %d\n", len(res.Arrivals))
	fmt.Fprintf(out, "Before %.1f: %s\n", cfg.Skier.Split, report.AM)
	fmt.Fprint(out, report.AMHist.Render(histogramWidth))
	fmt.Fprintf(out, "After %.1f: %s\n", cfg.Skier.Split, report.PM)
	fmt.Fprint(out, report.PMHist.Render(histogramWidth))

	return nil
}
