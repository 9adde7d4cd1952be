package scheduler

import (
	"time"

	"github.com/smallbiznis/jobboard/internal/config"
)

// Config controls the expiry sweep schedule and batch sizes.
type Config struct {
	Schedule   string
	BatchSize  int
	MaxBatches int
	JobTimeout time.Duration
	LockTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Schedule:   "@every 1m",
		BatchSize:  200,
		MaxBatches: 10,
		JobTimeout: 30 * time.Second,
		LockTTL:    45 * time.Second,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Schedule:  cfg.ExpirySweepSchedule,
		BatchSize: cfg.ExpirySweepBatch,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Schedule == "" {
		c.Schedule = defaults.Schedule
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MaxBatches <= 0 {
		c.MaxBatches = defaults.MaxBatches
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
