package checker

import (
	"court-watcher/types"
)

// NeedAlert reports whether a slot crossed the availability boundary:
// full on one side and a remaining count on the other. The expired marker
// never alerts, in either direction.
func NeedAlert(before, after types.Availability) bool {
	if before.IsExpired() || after.IsExpired() {
		return false
	}
	return before.IsFull() && after.IsAvailable() || after.IsFull() && before.IsAvailable()
}

// Compare returns the boundary crossings between two snapshots of the same
// court, limited to slots matching conds, in day then slot order.
// Days are paired by date label, slots by index within the day.
func Compare(previous, current *types.Calendar, conds types.Conditions) []types.Diff {
	diffs := make([]types.Diff, 0)
	if previous == nil || current == nil {
		return diffs
	}

	prevDays := make(map[string]types.DayAvailability, len(previous.Days))
	for _, d := range previous.Days {
		prevDays[d.Date] = d
	}

	for _, day := range current.Days {
		prev, ok := prevDays[day.Date]
		if !ok {
			continue
		}
		weekday := day.Weekday()
		for j, slot := range day.Schedule {
			if !conds.Match(weekday, slot.Time) {
				continue
			}
			if j >= len(prev.Schedule) || prev.Schedule[j].Time != slot.Time {
				continue
			}
			before := prev.Schedule[j]
			if NeedAlert(before, slot) {
				diffs = append(diffs, types.Diff{
					Date:   day.Date,
					Time:   slot.Time,
					Before: before.Value,
					After:  slot.Value,
				})
			}
		}
	}
	return diffs
}
