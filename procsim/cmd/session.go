package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sarchlab/procsim/config"
	"github.com/sarchlab/procsim/datarecording"
	"github.com/sarchlab/procsim/idgen"
	"github.com/sarchlab/procsim/instrumentation/tracing"
	"github.com/sarchlab/procsim/monitoring"
	"github.com/sarchlab/procsim/sim"
	"github.com/sarchlab/procsim/variate"
	"github.com/sirupsen/logrus"
)

// A session is one run of a model together with the tooling around it.
type session struct {
	cfg     config.Config
	env     *sim.Environment
	sources *variate.Partitioned
	logger  *logrus.Entry
	monitor *monitoring.Monitor

	recorder  datarecording.DataRecorder
	exec      *datarecording.ExecRecorder
	lifetimes *tracing.LifetimeTracer
}

// openClickHouse connects the clickhouse backend.
var openClickHouse = func(
	opts datarecording.ClickHouseOptions,
) datarecording.DataRecorder {
	return datarecording.NewClickHouse(opts)
}

func newRecorder(run config.Run) datarecording.DataRecorder {
	if run.RecordBackend == config.BackendClickHouse {
		ch := run.ClickHouse

		return openClickHouse(datarecording.ClickHouseOptions{
			Host:     ch.Host,
			Port:     ch.Port,
			Database: ch.Database,
			Username: ch.Username,
			Password: ch.Password,
		})
	}

	return datarecording.New(run.RecordDB)
}

func newSession(model string, cfg config.Config) (*session, error) {
	level, err := logrus.ParseLevel(cfg.Run.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfig, err)
	}

	logrus.SetLevel(level)

	runID := idgen.RunID()
	logger := logrus.WithFields(logrus.Fields{
		"model": model,
		"run":   runID,
	})

	s := &session{
		cfg:     cfg,
		sources: variate.NewPartitioned(cfg.Run.Seed),
		logger:  logger,
	}

	s.env = sim.MakeBuilder().WithLogger(logger).Build()

	s.lifetimes = tracing.NewLifetimeTracer(tracing.AllProcesses)
	s.env.AcceptHook(s.lifetimes)

	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		s.env.AcceptHook(tracing.NewEventLogger(logger))
	}

	if cfg.Run.Recording() {
		s.recorder = newRecorder(cfg.Run)
		s.env.AcceptHook(tracing.NewDBRecorderHook(s.recorder))

		s.exec = datarecording.NewExecRecorder(s.recorder)
		s.exec.Start()
		s.exec.Add("Model", model)
		s.exec.Add("Record Backend", cfg.Run.RecordBackend)
		s.exec.Add("Run ID", runID)
		s.exec.Add("Seed", strconv.FormatUint(cfg.Run.Seed, 10))
	}

	if cfg.Run.Monitor {
		s.monitor = monitoring.NewMonitor().
			WithPortNumber(cfg.Run.MonitorPort).
			WithBrowser(openBrowser).
			WithLogger(logger)
		s.monitor.RegisterEnvironment(s.env)

		if _, err := s.monitor.StartServer(); err != nil {
			return nil, err
		}
	}

	logger.WithField("seed", cfg.Run.Seed).Info("simulation starting")

	return s, nil
}

// finish notifies the end handlers, reports failed processes, and writes the
// execution record.
func (s *session) finish() {
	s.env.Finished()

	entry := s.logger.WithFields(logrus.Fields{
		"now":        float64(s.env.Now()),
		"processes":  len(s.lifetimes.Lifetimes()),
		"unfinished": s.lifetimes.NumInflight(),
	})

	if failed := s.lifetimes.NumFailed(); failed > 0 {
		entry.WithField("failed", failed).Warn("simulation finished")
	} else {
		entry.Info("simulation finished")
	}

	if s.exec != nil {
		s.exec.End()
	}

	if c, ok := s.recorder.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.WithError(err).Warn("cannot close the recorder")
		}
	}
}
