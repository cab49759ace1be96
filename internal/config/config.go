package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Clock    ClockConfig    `toml:"clock"`
	Tick     TickConfig     `toml:"tick"`
	Catchup  CatchupConfig  `toml:"catchup"`
	Data     DataConfig     `toml:"data"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name          string `toml:"name"`
	WorldDir      string `toml:"world_dir"`      // root directory of the world save
	Dimension     string `toml:"dimension"`      // dimension whose folder holds the clock file
	AutosaveTicks int    `toml:"autosave_ticks"` // world save interval
	StartTime     int64  // set at boot, not from config
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type ClockConfig struct {
	Backend           string `toml:"backend"`   // "file" or "postgres"
	FileName          string `toml:"file_name"` // only for the file backend
	SaveIntervalTicks int    `toml:"save_interval_ticks"`
}

type TickConfig struct {
	Rate time.Duration `toml:"rate"`
}

type CatchupConfig struct {
	DrainPerTick   int           `toml:"drain_per_tick"`
	GrowthCeiling  int           `toml:"growth_ceiling"`
	TimeScale      int64         `toml:"time_scale"` // debug multiplier applied to the offline gap
	Seed           int64         `toml:"seed"`
	SlowReplayWarn time.Duration `toml:"slow_replay_warn"`
}

type DataConfig struct {
	CropsPath    string `toml:"crops_path"`
	SmeltingPath string `toml:"smelting_path"`
	ScriptsDir   string `toml:"scripts_dir"`
	SavePath     string `toml:"save_path"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

// Validate rejects values the tick loop cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Tick.Rate <= 0 {
		errs = append(errs, fmt.Errorf("tick.rate must be positive, got %s", c.Tick.Rate))
	}
	if c.Catchup.DrainPerTick <= 0 {
		errs = append(errs, fmt.Errorf("catchup.drain_per_tick must be positive, got %d", c.Catchup.DrainPerTick))
	}
	if c.Catchup.GrowthCeiling < 0 {
		errs = append(errs, fmt.Errorf("catchup.growth_ceiling must not be negative, got %d", c.Catchup.GrowthCeiling))
	}
	if c.Catchup.TimeScale < 1 {
		errs = append(errs, fmt.Errorf("catchup.time_scale must be at least 1, got %d", c.Catchup.TimeScale))
	}
	if c.Clock.SaveIntervalTicks <= 0 {
		errs = append(errs, fmt.Errorf("clock.save_interval_ticks must be positive, got %d", c.Clock.SaveIntervalTicks))
	}
	switch c.Clock.Backend {
	case "file":
		if c.Clock.FileName == "" {
			errs = append(errs, errors.New("clock.file_name is required for the file backend"))
		}
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("clock.backend %q is not one of file, postgres", c.Clock.Backend))
	}
	return errors.Join(errs...)
}

// MsPerTick is the wall-clock length of one simulation step.
func (c *Config) MsPerTick() int64 {
	return c.Tick.Rate.Milliseconds()
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:          "timeskip",
			WorldDir:      "world",
			Dimension:     "overworld",
			AutosaveTicks: 6000, // 5 minutes at 20 tps
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Clock: ClockConfig{
			Backend:           "file",
			FileName:          "time_tracker.dat",
			SaveIntervalTicks: 1200, // 1 minute at 20 tps
		},
		Tick: TickConfig{
			Rate: 50 * time.Millisecond,
		},
		Catchup: CatchupConfig{
			DrainPerTick:   2,
			GrowthCeiling:  64,
			TimeScale:      1,
			SlowReplayWarn: 50 * time.Millisecond,
		},
		Data: DataConfig{
			CropsPath:    "data/yaml/crops.yaml",
			SmeltingPath: "data/yaml/smelting.yaml",
			ScriptsDir:   "scripts",
			SavePath:     "world/level.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
