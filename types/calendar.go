package types

import (
	"errors"
	"fmt"
)

// ErrMalformedCalendar means rows without a header or with a day that does not fit the schedule columns
var ErrMalformedCalendar = errors.New("malformed calendar")

// Calendar is the availability grid of one court for one crawl run.
// Name doubles as the persistence key.
type Calendar struct {
	Name          string
	ScheduleNames []string
	Days          []DayAvailability
}

// Validate checks that every day's schedule is index-aligned with ScheduleNames
func (c *Calendar) Validate() error {
	for _, d := range c.Days {
		if len(d.Schedule) != len(c.ScheduleNames) {
			return fmt.Errorf("%w: %s %s has %d slots, want %d",
				ErrMalformedCalendar, c.Name, d.Date, len(d.Schedule), len(c.ScheduleNames))
		}
	}
	return nil
}

// Rows returns the tabular form: ["date", ...ScheduleNames] followed by
// one [date, ...values] row per day
func (c *Calendar) Rows() [][]string {
	rows := make([][]string, 0, len(c.Days)+1)

	header := make([]string, 0, len(c.ScheduleNames)+1)
	header = append(header, "date")
	header = append(header, c.ScheduleNames...)
	rows = append(rows, header)

	for _, d := range c.Days {
		row := make([]string, 0, len(d.Schedule)+1)
		row = append(row, d.Date)
		for _, a := range d.Schedule {
			row = append(row, a.Value)
		}
		rows = append(rows, row)
	}
	return rows
}

// CalendarFromRows rebuilds a Calendar from the tabular form produced by Rows
func CalendarFromRows(name string, rows [][]string) (*Calendar, error) {
	if len(rows) == 0 || len(rows[0]) == 0 || rows[0][0] != "date" {
		return nil, fmt.Errorf("%w: %s has no header row", ErrMalformedCalendar, name)
	}

	scheduleNames := make([]string, 0, len(rows[0])-1)
	for _, s := range rows[0][1:] {
		scheduleNames = append(scheduleNames, NormalizeTime(s))
	}

	days := make([]DayAvailability, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(scheduleNames)+1 {
			return nil, fmt.Errorf("%w: %s row %d has %d cells, want %d",
				ErrMalformedCalendar, name, i+1, len(row), len(scheduleNames)+1)
		}
		day := DayAvailability{
			Date:     row[0],
			Schedule: make([]Availability, 0, len(scheduleNames)),
		}
		for j, v := range row[1:] {
			day.Schedule = append(day.Schedule, NewAvailability(scheduleNames[j], v))
		}
		days = append(days, day)
	}

	return &Calendar{
		Name:          name,
		ScheduleNames: scheduleNames,
		Days:          days,
	}, nil
}

// Slot addresses one cell of a calendar
type Slot struct {
	Date  string
	Time  string
	Value string
}

// Open returns the slots that currently have remaining capacity and match conds
func (c *Calendar) Open(conds Conditions) []Slot {
	open := make([]Slot, 0)
	for _, d := range c.Days {
		for _, a := range d.Schedule {
			if a.IsAvailable() && conds.Match(d.Weekday(), a.Time) {
				open = append(open, Slot{Date: d.Date, Time: a.Time, Value: a.Value})
			}
		}
	}
	return open
}
