// Package cmd provides the command-line interface for procsim.
package cmd

import (
	"github.com/sarchlab/procsim/config"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	configPath  string
	envFile     string
	seed        uint64
	logLevel    string
	recordPath  string
	backend     string
	monitor     bool
	monitorPort int
	openBrowser bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "procsim",
	Short: "procsim runs process-based discrete-event simulations.",
	Long: `procsim runs the example models built on the procsim kernel. ` +
		`Settings come from the defaults, a YAML file, PROCSIM_* ` +
		`environment variables, and flags, in increasing priority.`,
	SilenceUsage: true,
}

// runCmd groups the models that can be run.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation model.",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It exits through atexit so that recorders are flushed.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.StringVar(&envFile, "env-file", "",
		"dotenv file with PROCSIM_* overrides (default .env if present)")
	pf.Uint64Var(&seed, "seed", 1, "Seed of the random variates")
	pf.StringVar(&logLevel, "log-level", "info",
		"Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.StringVar(&recordPath, "record", "",
		"Record event firings into <path>.sqlite3")
	pf.StringVar(&backend, "record-backend", "sqlite",
		"Where to record event firings (sqlite, clickhouse)")
	pf.BoolVar(&monitor, "monitor", false,
		"Serve the monitoring API while the model runs")
	pf.IntVar(&monitorPort, "monitor-port", 0,
		"Port of the monitoring API (random if below 1000)")
	pf.BoolVar(&openBrowser, "open-browser", false,
		"Open the monitoring API in a browser")

	rootCmd.AddCommand(runCmd)
}

// loadConfig layers the configuration sources. Only flags that were set on
// the command line override the file and the environment.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if configPath != "" {
		var err error

		cfg, err = config.Load(configPath)
		if err != nil {
			return cfg, err
		}
	}

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}

	if err := config.LoadEnv(&cfg, files...); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()

	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}

	if flags.Changed("log-level") {
		cfg.Run.LogLevel = logLevel
	}

	if flags.Changed("record") {
		cfg.Run.RecordDB = recordPath
	}

	if flags.Changed("record-backend") {
		cfg.Run.RecordBackend = backend
	}

	if flags.Changed("monitor") {
		cfg.Run.Monitor = monitor
	}

	if flags.Changed("monitor-port") {
		cfg.Run.MonitorPort = monitorPort
		cfg.Run.Monitor = true
	}

	return cfg, nil
}
