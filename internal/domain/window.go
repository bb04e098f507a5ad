package domain

import "time"

const (
	DefaultPeriodDays = 30
	MaxPeriodDays     = 365
)

// Window is a half-open interval [Start, End) on report creation time.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowForPeriod covers the last periodDays days up to and including now.
func WindowForPeriod(now time.Time, periodDays int) Window {
	return Window{
		Start: now.Add(-time.Duration(periodDays) * 24 * time.Hour),
		End:   now.Add(time.Nanosecond),
	}
}
