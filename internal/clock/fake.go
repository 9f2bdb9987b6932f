package clock

import "time"

// FakeClock is a manually advanced Clock for exercising period cutoffs
// and policy expiry in tests. Not safe for concurrent use.
type FakeClock struct {
	now time.Time
}

// NewFakeClock pins the clock at t, normalized to UTC like the system
// clock so period boundaries compare cleanly.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward, e.g. past a payout run day or a
// policy's expires_at.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
