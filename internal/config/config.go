// Package config loads coursekit's runtime configuration from a TOML file
// with environment variable overrides, in the style of the teacher's
// internal/llm config loader: an explicit struct, sane zero-value
// defaults, and a FromEnv-style override pass.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds every named option from the external-interfaces section
// of the specification.
type Config struct {
	Sandbox SandboxConfig `toml:"sandbox"`
	Judge   JudgeConfig   `toml:"judge"`
	Cache   CacheConfig   `toml:"cache"`
	Streak  StreakConfig  `toml:"streak"`
	Mastery MasteryConfig `toml:"mastery"`
	Store   StoreConfig   `toml:"store"`
}

type SandboxConfig struct {
	Enabled   bool   `toml:"enabled"`
	PoolSize  int    `toml:"pool_size"`
	TimeoutMs int    `toml:"timeout_ms"`
	Runtime   string `toml:"runtime"`
	WorkRoot  string `toml:"work_root"`
	Label     string `toml:"label"`
}

type JudgeConfig struct {
	Enabled         bool    `toml:"enabled"`
	DailyLimitUser  int     `toml:"daily_limit_per_user"`
	Temperature     float64 `toml:"temperature"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

type StreakConfig struct {
	GraceDays int `toml:"grace_days"`
}

type MasteryConfig struct {
	DecayRate float64 `toml:"decay_rate"`
	Floor     float64 `toml:"floor"`
}

type StoreConfig struct {
	DSN           string `toml:"dsn"`
	LockTimeoutMs int    `toml:"lock_timeout_ms"`
}

// Default returns the specification's default configuration.
func Default() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			Enabled:   true,
			PoolSize:  2,
			TimeoutMs: 30000,
			Runtime:   "docker",
			WorkRoot:  os.TempDir(),
			Label:     "coursekit.sandbox=1",
		},
		Judge: JudgeConfig{
			Enabled:        true,
			DailyLimitUser: 20,
			Temperature:    0.0,
		},
		Cache: CacheConfig{Enabled: true},
		Streak: StreakConfig{
			GraceDays: 3,
		},
		Mastery: MasteryConfig{
			DecayRate: 0.05,
			Floor:     0.30,
		},
		Store: StoreConfig{
			LockTimeoutMs: 5000,
		},
	}
}

// Load reads a TOML config file at path, falling back to defaults for any
// unset field, then applies COURSEKIT_*-prefixed environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("COURSEKIT_DB"); ok {
		cfg.Store.DSN = v
	}
	if v, ok := boolEnv("COURSEKIT_SANDBOX_ENABLED"); ok {
		cfg.Sandbox.Enabled = v
	}
	if v, ok := intEnv("COURSEKIT_SANDBOX_POOL_SIZE"); ok {
		cfg.Sandbox.PoolSize = v
	}
	if v, ok := intEnv("COURSEKIT_SANDBOX_TIMEOUT_MS"); ok {
		cfg.Sandbox.TimeoutMs = v
	}
	if v, ok := boolEnv("COURSEKIT_JUDGE_ENABLED"); ok {
		cfg.Judge.Enabled = v
	}
	if v, ok := intEnv("COURSEKIT_JUDGE_DAILY_LIMIT"); ok {
		cfg.Judge.DailyLimitUser = v
	}
	if v, ok := intEnv("COURSEKIT_STREAK_GRACE_DAYS"); ok {
		if v > 7 {
			v = 7
		}
		cfg.Streak.GraceDays = v
	}
}

func boolEnv(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func intEnv(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
