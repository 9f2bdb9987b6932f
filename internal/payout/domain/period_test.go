package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodForCoversCalendarMonth(t *testing.T) {
	p := PeriodFor(2025, time.August)

	assert.Equal(t, time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), p.End)
	assert.True(t, p.Contains(time.Date(2025, time.August, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contains(p.End))
	assert.False(t, p.Contains(p.Start.Add(-time.Nanosecond)))
}

func TestPeriodForDecemberRollsYear(t *testing.T) {
	p := PeriodFor(2025, time.December)

	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), p.End)
	assert.Equal(t, time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC), p.PayoutDate())
}

func TestPayoutDateIsFifteenthOfFollowingMonth(t *testing.T) {
	p := PeriodFor(2025, time.August)
	assert.Equal(t, time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC), p.PayoutDate())
}

func TestPeriodContainingNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	p := PeriodContaining(time.Date(2025, time.September, 1, 3, 0, 0, 0, loc))

	// 03:00 UTC+9 is still August 31 in UTC.
	assert.Equal(t, time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), p.Start)
}
