package types

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// ValueExpired marks a slot that can no longer be booked (past date or cutoff)
	ValueExpired = "－"
	// ValueFull marks a slot with zero remaining capacity
	ValueFull = "×"
)

var timeRangeRe = regexp.MustCompile(`([0-9]+:[0-9]+)\s*[^0-9\s]\s*([0-9]+:[0-9]+)`)

// NormalizeTime collapses the separator of a time range into "HH:mm-HH:mm"
// "19:00～21:00" -> "19:00-21:00"
func NormalizeTime(t string) string {
	return timeRangeRe.ReplaceAllString(strings.TrimSpace(t), "$1-$2")
}

// Availability represents one reservable time slot on one day
type Availability struct {
	Time  string // "HH:mm-HH:mm"
	Value string // ValueExpired, ValueFull or a remaining count
}

func NewAvailability(time, value string) Availability {
	return Availability{
		Time:  NormalizeTime(time),
		Value: strings.TrimSpace(value),
	}
}

// IsAvailable reports whether the value is a remaining count
func (a Availability) IsAvailable() bool {
	_, err := strconv.Atoi(a.Value)
	return err == nil
}

func (a Availability) IsFull() bool {
	return a.Value == ValueFull
}

func (a Availability) IsExpired() bool {
	return a.Value == ValueExpired
}

var weekdayRe = regexp.MustCompile(`[(（]\s*([^()（）\s])\s*[)）]\s*$`)

// DayAvailability represents one calendar day of one facility
type DayAvailability struct {
	Date     string // "6/3(土)"
	Schedule []Availability
}

// Weekday returns the day symbol in the trailing parentheses of Date
// "6/3(土)" -> "土"
func (d DayAvailability) Weekday() string {
	m := weekdayRe.FindStringSubmatch(d.Date)
	if m == nil {
		return ""
	}
	return m[1]
}

// Weekdays lists the day symbols used by the reservation site, Monday first
var Weekdays = []string{"月", "火", "水", "木", "金", "土", "日"}
