package parser

import (
	"errors"
	"fmt"
	"slices"

	"court-watcher/types"

	"golang.org/x/net/html"
)

// ErrStructure is returned when the page does not have the expected shape,
// usually because the site changed or served a maintenance page
var ErrStructure = errors.New("unexpected page structure")

// contentTable holds the dates table and one table per court
var contentTable = Query{Tag: "table", Class: "tcontent"}

// ExtractCalendars reads every court calendar of one result page
func ExtractCalendars(page string) ([]*types.Calendar, error) {
	root, err := Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	// tables[0] is the search summary, tables[1] the dates, the rest are courts
	tables := Find(root, contentTable)
	if len(tables) < 2 {
		return nil, fmt.Errorf("%w: found %d content tables, want at least 2", ErrStructure, len(tables))
	}

	dates := DateLabels(tables[1])
	calendars := make([]*types.Calendar, 0, len(tables)-2)
	for _, t := range tables[2:] {
		cal, err := CalendarFromTable(t, dates)
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, cal)
	}
	return calendars, nil
}

// DateLabels returns the flattened text of every row after the year header
func DateLabels(table *html.Node) []string {
	rows := Find(table, Query{Tag: "tr"})
	if len(rows) == 0 {
		return nil
	}
	dates := make([]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		dates = append(dates, Text(r))
	}
	return dates
}

// CalendarFromTable converts a court table into a Calendar.
// Row 0 is the court name, row 1 the time ranges and each following row
// one entry of dates.
func CalendarFromTable(table *html.Node, dates []string) (*types.Calendar, error) {
	rows := Rows(table)
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: court table has %d rows", ErrStructure, len(rows))
	}

	name := Text(rows[0])
	scheduleNames := make([]string, 0)
	for _, c := range Cells(rows[1]) {
		scheduleNames = append(scheduleNames, types.NormalizeTime(Text(c)))
	}
	if len(scheduleNames) == 0 {
		return nil, fmt.Errorf("%w: %s has no time ranges", ErrStructure, name)
	}

	dayRows := rows[2:]
	if len(dayRows) != len(dates) {
		return nil, fmt.Errorf("%w: %s has %d day rows for %d dates", ErrStructure, name, len(dayRows), len(dates))
	}

	days := make([]types.DayAvailability, 0, len(dayRows))
	for i, r := range dayRows {
		cells := Cells(r)
		if len(cells) != len(scheduleNames) {
			return nil, fmt.Errorf("%w: %s %s has %d cells, want %d",
				ErrStructure, name, dates[i], len(cells), len(scheduleNames))
		}
		day := types.DayAvailability{
			Date:     dates[i],
			Schedule: make([]types.Availability, 0, len(cells)),
		}
		for j, c := range cells {
			day.Schedule = append(day.Schedule, types.NewAvailability(scheduleNames[j], Text(c)))
		}
		days = append(days, day)
	}

	return &types.Calendar{
		Name:          name,
		ScheduleNames: scheduleNames,
		Days:          days,
	}, nil
}

// MergeMonths joins calendars of the same court taken from consecutive
// month pages, keeping first-seen court order and page order of days
func MergeMonths(pages [][]*types.Calendar) ([]*types.Calendar, error) {
	merged := make([]*types.Calendar, 0)
	byName := make(map[string]*types.Calendar)

	for _, page := range pages {
		for _, cal := range page {
			existing, ok := byName[cal.Name]
			if !ok {
				c := &types.Calendar{
					Name:          cal.Name,
					ScheduleNames: slices.Clone(cal.ScheduleNames),
					Days:          slices.Clone(cal.Days),
				}
				byName[cal.Name] = c
				merged = append(merged, c)
				continue
			}
			if !slices.Equal(existing.ScheduleNames, cal.ScheduleNames) {
				return nil, fmt.Errorf("%w: %s time ranges differ between months (%v vs %v)",
					ErrStructure, cal.Name, existing.ScheduleNames, cal.ScheduleNames)
			}
			existing.Days = append(existing.Days, cal.Days...)
		}
	}
	return merged, nil
}
