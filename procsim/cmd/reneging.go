package cmd

import (
	"fmt"
	"io"

	"github.com/sarchlab/procsim/config"
	"github.com/sarchlab/procsim/scenario/reneging"
	"github.com/sarchlab/procsim/stats"
	"github.com/spf13/cobra"
)

var (
	customers int
	patience  float64
)

var renegingCmd = &cobra.Command{
	Use:   "reneging",
	Short: "Estimate how often impatient customers leave a single-server queue.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("customers") {
			cfg.Reneging.Customers = customers
		}

		if cmd.Flags().Changed("patience") {
			cfg.Reneging.Patience = patience
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		return runReneging(cfg, cmd.OutOrStdout())
	},
}

func init() {
	renegingCmd.Flags().IntVar(&customers, "customers", 4000,
		"Number of customers to generate")
	renegingCmd.Flags().Float64Var(&patience, "patience", 1.3,
		"How long a customer waits before leaving, in minutes")

	runCmd.AddCommand(renegingCmd)
}

func runReneging(cfg config.Config, out io.Writer) error {
	s, err := newSession("reneging", cfg)
	if err != nil {
		return err
	}

	model := reneging.New(s.env, cfg.Reneging,
		reneging.SourcesFrom(s.sources))

	if s.monitor != nil {
		bar := s.monitor.CreateProgressBar("Customers",
			uint64(cfg.Reneging.Customers))
		defer s.monitor.CompleteProgressBar(bar)

		model.WithProgress(bar)
		s.monitor.RegisterLine(model.Line())
	}

	model.Start()

	err = s.env.Run()
	res := model.Result()
	s.env.Shutdown()
	s.finish()

	if err != nil {
		return err
	}

	fmt.Fprintf(out,
		"Estimated probability of customer reneging: p = %f, "+
			"based on %d observations\n",
		res.RenegeProbability(), res.Customers)
	fmt.Fprintf(out, "Served: %d, reneged: %d, ended at %.4f\n",
		len(res.Served), res.NumReneged(), float64(res.EndTime))

	if len(res.Waits) > 0 {
		fmt.Fprintf(out, "Wait before service: %s\n", stats.Summarize(res.Waits))
	}

	fmt.Fprintf(out, "Time in system: %s\n",
		stats.Summarize(res.TimesInSystem))

	return nil
}
