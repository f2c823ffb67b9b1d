package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the run settings.
const (
	EnvSeed        = "PROCSIM_SEED"
	EnvLogLevel    = "PROCSIM_LOG_LEVEL"
	EnvRecordDB    = "PROCSIM_RECORD_DB"
	EnvMonitorPort = "PROCSIM_MONITOR_PORT"

	EnvRecordBackend      = "PROCSIM_RECORD_BACKEND"
	EnvClickHouseHost     = "PROCSIM_CLICKHOUSE_HOST"
	EnvClickHousePort     = "PROCSIM_CLICKHOUSE_PORT"
	EnvClickHouseDatabase = "PROCSIM_CLICKHOUSE_DATABASE"
	EnvClickHouseUsername = "PROCSIM_CLICKHOUSE_USERNAME"
	EnvClickHousePassword = "PROCSIM_CLICKHOUSE_PASSWORD"
)

var envKeys = []string{
	EnvSeed,
	EnvLogLevel,
	EnvRecordDB,
	EnvMonitorPort,
	EnvRecordBackend,
	EnvClickHouseHost,
	EnvClickHousePort,
	EnvClickHouseDatabase,
	EnvClickHouseUsername,
	EnvClickHousePassword,
}

// DefaultEnvFile is read by LoadEnv when no file is named and it exists.
const DefaultEnvFile = ".env"

// LoadEnv applies PROCSIM_* overrides to cfg. Values are read from the given
// dotenv files, or from DefaultEnvFile if it exists; variables set in the
// process environment take precedence over the files.
func LoadEnv(cfg *Config, files ...string) error {
	vals, err := readEnvFiles(files)
	if err != nil {
		return err
	}

	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			vals[key] = v
		}
	}

	return applyEnv(cfg, vals)
}

func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err != nil {
			return map[string]string{}, nil
		}

		files = []string{DefaultEnvFile}
	}

	vals, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("reading env files: %w", err)
	}

	return vals, nil
}

func applyEnv(cfg *Config, vals map[string]string) error {
	if v, ok := vals[EnvSeed]; ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrConfig, EnvSeed, v, err)
		}

		cfg.Run.Seed = seed
	}

	if v, ok := vals[EnvLogLevel]; ok {
		cfg.Run.LogLevel = v
	}

	if v, ok := vals[EnvRecordDB]; ok {
		cfg.Run.RecordDB = v
	}

	if v, ok := vals[EnvMonitorPort]; ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrConfig, EnvMonitorPort, v, err)
		}

		cfg.Run.MonitorPort = port
		cfg.Run.Monitor = true
	}

	return applyClickHouseEnv(cfg, vals)
}

func applyClickHouseEnv(cfg *Config, vals map[string]string) error {
	if v, ok := vals[EnvRecordBackend]; ok {
		cfg.Run.RecordBackend = v
	}

	ch := &cfg.Run.ClickHouse

	for key, field := range map[string]*string{
		EnvClickHouseHost:     &ch.Host,
		EnvClickHouseDatabase: &ch.Database,
		EnvClickHouseUsername: &ch.Username,
		EnvClickHousePassword: &ch.Password,
	} {
		if v, ok := vals[key]; ok {
			*field = v
		}
	}

	if v, ok := vals[EnvClickHousePort]; ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrConfig, EnvClickHousePort, v, err)
		}

		ch.Port = port
	}

	return nil
}
