package scheduler

import (
	"time"
)

// Config controls when the scheduler cuts the monthly payout run.
type Config struct {
	// RunInterval is how often the loop wakes up to check the calendar.
	RunInterval time.Duration

	// RunDay is the day of month on or after which the previous month's
	// payout run is cut.
	RunDay int

	// ApproverID is recorded as the first signature on payouts created by
	// the scheduler.
	ApproverID string
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Hour,
		RunDay:      1,
		ApproverID:  "system",
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.RunDay < 1 || c.RunDay > 28 {
		c.RunDay = defaults.RunDay
	}
	if c.ApproverID == "" {
		c.ApproverID = defaults.ApproverID
	}
	return c
}
