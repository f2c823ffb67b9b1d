// Package config holds the settings of a simulation run. Settings come from
// built-in defaults, then an optional YAML file, then PROCSIM_* environment
// variables (optionally read from a .env file), then command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sarchlab/procsim/variate"
	"gopkg.in/yaml.v3"
)

// ErrConfig is the class of every configuration error.
var ErrConfig = errors.New("config: invalid configuration")

// Recording backends.
const (
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
)

// Run holds the settings shared by all scenarios.
type Run struct {
	Seed          uint64     `yaml:"seed"`
	LogLevel      string     `yaml:"log_level"`
	RecordDB      string     `yaml:"record_db"`
	RecordBackend string     `yaml:"record_backend"`
	ClickHouse    ClickHouse `yaml:"clickhouse"`
	Monitor       bool       `yaml:"monitor"`
	MonitorPort   int        `yaml:"monitor_port"`
}

// ClickHouse tells where the clickhouse backend records to.
type ClickHouse struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Recording tells if the run records its events. The SQLite backend records
// only when a file is named; the ClickHouse backend always records.
func (r Run) Recording() bool {
	return r.RecordDB != "" || r.RecordBackend == BackendClickHouse
}

// Reneging configures the single-server queue with impatient customers.
// Times are in minutes.
type Reneging struct {
	Customers        int     `yaml:"customers"`
	MeanInterarrival float64 `yaml:"mean_interarrival"`
	MeanService      float64 `yaml:"mean_service"`
	Patience         float64 `yaml:"patience"`
}

// Shapes of the skier rate profile.
const (
	ShapeStep   = "step"
	ShapeLinear = "linear"
)

// Skier configures the non-stationary arrival process. Times are in minutes
// since the facility opens. With the linear shape the profile entries are
// points the rate is interpolated between.
type Skier struct {
	Horizon float64           `yaml:"horizon"`
	Split   float64           `yaml:"split"`
	Shape   string            `yaml:"shape"`
	Profile []variate.Segment `yaml:"profile"`
	Bins    int               `yaml:"bins"`
	MaxGap  float64           `yaml:"max_gap"`
}

// Config is the full configuration file.
type Config struct {
	Run      Run      `yaml:"run"`
	Reneging Reneging `yaml:"reneging"`
	Skier    Skier    `yaml:"skier"`
}

// Default returns the configuration the command line tool uses when nothing
// is overridden.
func Default() Config {
	return Config{
		Run: Run{
			Seed:          1,
			LogLevel:      "info",
			RecordBackend: BackendSQLite,
			ClickHouse: ClickHouse{
				Host:     "localhost",
				Port:     9000,
				Database: "default",
				Username: "default",
			},
		},
		Reneging: Reneging{
			Customers:        4000,
			MeanInterarrival: 0.8,
			MeanService:      1.3,
			Patience:         1.3,
		},
		Skier: Skier{
			Horizon: 8 * 60,
			Split:   4 * 60,
			Shape:   ShapeStep,
			Profile: []variate.Segment{
				{From: 0, Rate: 0.5},
				{From: 4 * 60, Rate: 0.25},
			},
			Bins:   15,
			MaxGap: 15,
		},
	}
}

// Load reads a YAML configuration file on top of the defaults. Unknown keys
// are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	return Parse(bytes.NewReader(data))
}

// Parse decodes YAML on top of the defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: parsing: %v", ErrConfig, err)
	}

	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Run.Validate(); err != nil {
		return err
	}

	if err := c.Reneging.Validate(); err != nil {
		return err
	}

	return c.Skier.Validate()
}

// Validate checks the run settings.
func (r Run) Validate() error {
	if r.MonitorPort < 0 || r.MonitorPort > 65535 {
		return fmt.Errorf("%w: monitor_port %d is out of range",
			ErrConfig, r.MonitorPort)
	}

	switch r.RecordBackend {
	case "", BackendSQLite:
	case BackendClickHouse:
		if r.ClickHouse.Host == "" {
			return fmt.Errorf("%w: clickhouse host is empty", ErrConfig)
		}

		if r.ClickHouse.Port <= 0 || r.ClickHouse.Port > 65535 {
			return fmt.Errorf("%w: clickhouse port %d is out of range",
				ErrConfig, r.ClickHouse.Port)
		}
	default:
		return fmt.Errorf("%w: unknown record_backend %q",
			ErrConfig, r.RecordBackend)
	}

	return nil
}

// Validate checks the reneging settings.
func (r Reneging) Validate() error {
	if r.Customers < 0 {
		return fmt.Errorf("%w: customers must not be negative, got %d",
			ErrConfig, r.Customers)
	}

	if err := positive("mean_interarrival", r.MeanInterarrival); err != nil {
		return err
	}

	if err := positive("mean_service", r.MeanService); err != nil {
		return err
	}

	if r.Patience < 0 || math.IsNaN(r.Patience) || math.IsInf(r.Patience, 0) {
		return fmt.Errorf("%w: patience must be finite and not negative, got %v",
			ErrConfig, r.Patience)
	}

	return nil
}

// Validate checks the skier settings.
func (s Skier) Validate() error {
	if err := positive("horizon", s.Horizon); err != nil {
		return err
	}

	if s.Bins <= 0 {
		return fmt.Errorf("%w: bins must be positive, got %d", ErrConfig, s.Bins)
	}

	if err := positive("max_gap", s.MaxGap); err != nil {
		return err
	}

	if _, err := s.RateProfile(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	return nil
}

// RateProfile builds the arrival rate profile of the configured shape.
func (s Skier) RateProfile() (variate.RateProfile, error) {
	switch s.Shape {
	case "", ShapeStep:
		p, err := variate.NewPiecewiseConstant(s.Profile...)
		if err != nil {
			return nil, err
		}

		return p, nil
	case ShapeLinear:
		points := make([]variate.Point, len(s.Profile))
		for i, seg := range s.Profile {
			points[i] = variate.Point{T: seg.From, Rate: seg.Rate}
		}

		p, err := variate.NewPiecewiseLinear(points...)
		if err != nil {
			return nil, err
		}

		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown shape %q",
			variate.ErrInvalidProfile, s.Shape)
	}
}

func positive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be positive and finite, got %v",
			ErrConfig, name, v)
	}

	return nil
}
