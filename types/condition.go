package types

import (
	"fmt"
	"slices"
	"strings"
)

// Any matches every weekday or every time range
const Any = "*"

// ScheduleCondition selects slots by weekday and time range.
// Both parts must match; either may be Any.
type ScheduleCondition struct {
	Weekday string // "土", "日", ... or Any
	Time    string // "19:00-21:00" or Any
}

// ParseCondition parses "<weekday> <time>", e.g. "* 19:00-21:00" or "土 *"
func ParseCondition(s string) (ScheduleCondition, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return ScheduleCondition{}, fmt.Errorf("invalid schedule condition %q: want \"<weekday> <time>\"", s)
	}
	cond := ScheduleCondition{Weekday: fields[0], Time: fields[1]}
	if cond.Weekday != Any && !slices.Contains(Weekdays, cond.Weekday) {
		return ScheduleCondition{}, fmt.Errorf("invalid schedule condition %q: unknown weekday %q", s, cond.Weekday)
	}
	if cond.Time != Any {
		cond.Time = NormalizeTime(cond.Time)
	}
	return cond, nil
}

func (c ScheduleCondition) Match(weekday, time string) bool {
	if c.Weekday != Any && c.Weekday != weekday {
		return false
	}
	if c.Time != Any && c.Time != time {
		return false
	}
	return true
}

func (c ScheduleCondition) String() string {
	return c.Weekday + " " + c.Time
}

// Conditions matches when any of its conditions matches
type Conditions []ScheduleCondition

func ParseConditions(raw []string) (Conditions, error) {
	conds := make(Conditions, 0, len(raw))
	for _, s := range raw {
		c, err := ParseCondition(s)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func (cs Conditions) Match(weekday, time string) bool {
	for _, c := range cs {
		if c.Match(weekday, time) {
			return true
		}
	}
	return false
}
