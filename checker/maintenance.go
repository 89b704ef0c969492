package checker

import (
	"fmt"
	"slices"
	"time"
)

// Window is a recurring maintenance period of the reservation site.
// From/To are "HH:MM" in local time; To before From wraps past midnight.
// Empty Days means every day, otherwise only those days of the month.
type Window struct {
	Days []int
	From string
	To   string
}

type Maintenance []Window

// Active reports whether now falls into any window
func (m Maintenance) Active(now time.Time) bool {
	for _, w := range m {
		if w.contains(now) {
			return true
		}
	}
	return false
}

// Validate checks the clock format of every window
func (m Maintenance) Validate() error {
	for _, w := range m {
		if _, err := minuteOfDay(w.From); err != nil {
			return err
		}
		if _, err := minuteOfDay(w.To); err != nil {
			return err
		}
	}
	return nil
}

func (w Window) contains(now time.Time) bool {
	from, err := minuteOfDay(w.From)
	if err != nil {
		return false
	}
	to, err := minuteOfDay(w.To)
	if err != nil {
		return false
	}
	minute := now.Hour()*60 + now.Minute()

	if from <= to {
		return w.onDay(now.Day()) && minute >= from && minute < to
	}
	// wraps midnight: the late part belongs to the listed day, the early part to the day after
	if minute >= from {
		return w.onDay(now.Day())
	}
	if minute < to {
		return w.onDay(now.AddDate(0, 0, -1).Day())
	}
	return false
}

func (w Window) onDay(day int) bool {
	return len(w.Days) == 0 || slices.Contains(w.Days, day)
}

func minuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
