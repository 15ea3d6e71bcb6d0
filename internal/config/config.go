// Package config carries the library-level settings a host application
// needs to drive the WAL executor: state directory, default conflict
// policy, worker pool size, max plan size, and the symlink-loop bound.
// Layers a YAML file (gopkg.in/yaml.v3) under flag overrides, matching
// jra3-linear-fuse's and mutagen-io/mutagen's own config packages.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"reorgwal/internal/logging"
	"reorgwal/internal/opruntime"
)

// Config is the central configuration object for a reorgctl invocation.
// Construct once via Load, apply flag overrides, then pass down to the
// journal store, executor, and logger.
type Config struct {
	// StateDir is where journals/ lives (<StateDir>/journals/<job_id>.json).
	StateDir string `yaml:"state_dir"`

	// ConflictPolicy names the default collision handling for the
	// executor: "fail", "skip", or "auto_rename" (default).
	ConflictPolicy string `yaml:"conflict_policy"`

	// WorkerPoolSize bounds how many operations within one DAG level run
	// concurrently. Zero means unbounded (limited only by the scheduler).
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// MaxPlanSize is read from the config file but not consulted by any
	// component; the plan-size cap is always wal.MaxEntries.
	MaxPlanSize int `yaml:"max_plan_size"`

	// SymlinkLoopBound is read from the config file but not consulted by
	// any component; the loop bound is always pathsafe.SymloopMax (40).
	SymlinkLoopBound int `yaml:"symlink_loop_bound"`

	// MaxRuntime caps how long one execute/recover invocation may run
	// before the host should consider it stuck (informative; the library
	// itself enforces no timeout here).
	MaxRuntime time.Duration `yaml:"max_runtime"`

	Log LogConfig `yaml:"log"`
}

// LogConfig mirrors logging.LogSettings in a serializable shape.
type LogConfig struct {
	Level  string `yaml:"level"`
	Dir    string `yaml:"dir"`
	NoLogs bool   `yaml:"no_logs"`
}

// Default returns conservative defaults: auto-rename conflicts, an
// unbounded worker pool, and info-level logging to files under
// ./.reorg-state/logs.
func Default() *Config {
	return &Config{
		StateDir:       "./.reorg-state",
		ConflictPolicy: "auto_rename",
		WorkerPoolSize: 0,
		Log: LogConfig{
			Level: "info",
			Dir:   "./.reorg-state/logs",
		},
	}
}

// Load reads a YAML config file at path, if present, layered over
// Default(). A missing file is not an error — flag overrides (applied by
// the caller afterward) are enough to run with no file at all.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Policy translates the configured conflict-policy name into the
// opruntime.Policy the executor understands, defaulting to AutoRename
// when the name is empty or unrecognized.
func (c *Config) Policy() opruntime.Policy {
	switch c.ConflictPolicy {
	case "fail":
		return opruntime.PolicyFail
	case "skip":
		return opruntime.PolicySkip
	default:
		return opruntime.PolicyAutoRename
	}
}

// LogSettings builds a logging.LogSettings from the configured LogConfig.
func (c *Config) LogSettings() logging.LogSettings {
	level, ok := logging.NameToLevel(c.Log.Level)
	if !ok {
		level = logging.LevelInfo
	}
	return logging.LogSettings{
		NoLogs: c.Log.NoLogs,
		LogDir: c.Log.Dir,
		Level:  level,
	}
}
