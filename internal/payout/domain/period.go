package domain

import "time"

// Period is a [Start, End) calendar-month window plus the date its payouts
// are disbursed. Pure value, recomputed on demand, never persisted.
type Period struct {
	Start time.Time
	End   time.Time
}

// PeriodFor returns the calendar-month period for year/month.
func PeriodFor(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}
}

// PeriodContaining returns the period t falls into.
func PeriodContaining(t time.Time) Period {
	t = t.UTC()
	return PeriodFor(t.Year(), t.Month())
}

// PayoutDate is the 15th of the month following the period's end.
func (p Period) PayoutDate() time.Time {
	return time.Date(p.End.Year(), p.End.Month(), 15, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the window.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && t.Before(p.End)
}
