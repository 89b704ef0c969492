package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	assert.Equal(t, "19:00-21:00", NormalizeTime("19:00～21:00"))
	assert.Equal(t, "9:00-11:00", NormalizeTime(" 9:00 ～ 11:00 "))
	assert.Equal(t, "07:00-09:00", NormalizeTime("07:00-09:00"))
	assert.Equal(t, "夜間", NormalizeTime("夜間"))
}

func TestAvailability_Predicates(t *testing.T) {
	open := NewAvailability("19:00～21:00", "3")
	assert.Equal(t, "19:00-21:00", open.Time)
	assert.True(t, open.IsAvailable())
	assert.False(t, open.IsFull())

	full := NewAvailability("19:00-21:00", ValueFull)
	assert.False(t, full.IsAvailable())
	assert.True(t, full.IsFull())

	expired := NewAvailability("19:00-21:00", ValueExpired)
	assert.False(t, expired.IsAvailable())
	assert.False(t, expired.IsFull())
	assert.True(t, expired.IsExpired())
}

func TestDayAvailability_Weekday(t *testing.T) {
	assert.Equal(t, "土", DayAvailability{Date: "6/3(土)"}.Weekday())
	assert.Equal(t, "日", DayAvailability{Date: "6/4（日）"}.Weekday())
	assert.Equal(t, "", DayAvailability{Date: "6/5"}.Weekday())
}

func TestScheduleCondition_Match(t *testing.T) {
	anyDayEvening := ScheduleCondition{Weekday: Any, Time: "19:00-21:00"}
	for _, wd := range Weekdays {
		assert.True(t, anyDayEvening.Match(wd, "19:00-21:00"), wd)
		assert.False(t, anyDayEvening.Match(wd, "07:00-09:00"), wd)
	}

	saturday := ScheduleCondition{Weekday: "土", Time: Any}
	assert.True(t, saturday.Match("土", "07:00-09:00"))
	assert.True(t, saturday.Match("土", "19:00-21:00"))
	assert.False(t, saturday.Match("月", "07:00-09:00"))
}

func TestConditions_Match(t *testing.T) {
	conds, err := ParseConditions([]string{"* 19:00～21:00", "土 *", "日 *"})
	require.NoError(t, err)

	assert.True(t, conds.Match("土", "07:00-09:00"))
	assert.True(t, conds.Match("日", "13:00-15:00"))
	assert.True(t, conds.Match("水", "19:00-21:00"))
	assert.False(t, conds.Match("月", "09:00-11:00"))

	assert.False(t, Conditions{}.Match("土", "07:00-09:00"))
}

func TestParseCondition_Invalid(t *testing.T) {
	_, err := ParseCondition("土")
	assert.Error(t, err)
	_, err = ParseCondition("土 19:00-21:00 extra")
	assert.Error(t, err)
	_, err = ParseCondition("土曜 *")
	assert.ErrorContains(t, err, "unknown weekday")
	_, err = ParseCondition("Sat 19:00-21:00")
	assert.Error(t, err)
}

func TestCalendar_RowsRoundTrip(t *testing.T) {
	cal := &Calendar{
		Name:          "コートA",
		ScheduleNames: []string{"07:00-09:00", "19:00-21:00"},
		Days: []DayAvailability{
			{Date: "6/3(土)", Schedule: []Availability{
				NewAvailability("07:00-09:00", "2"),
				NewAvailability("19:00-21:00", ValueFull),
			}},
			{Date: "6/4(日)", Schedule: []Availability{
				NewAvailability("07:00-09:00", ValueExpired),
				NewAvailability("19:00-21:00", "1"),
			}},
		},
	}

	rows := cal.Rows()
	assert.Equal(t, []string{"date", "07:00-09:00", "19:00-21:00"}, rows[0])
	assert.Equal(t, []string{"6/3(土)", "2", ValueFull}, rows[1])
	assert.Equal(t, []string{"6/4(日)", ValueExpired, "1"}, rows[2])

	restored, err := CalendarFromRows(cal.Name, rows)
	require.NoError(t, err)
	assert.Equal(t, cal, restored)
}

func TestCalendarFromRows_Malformed(t *testing.T) {
	_, err := CalendarFromRows("x", nil)
	assert.ErrorIs(t, err, ErrMalformedCalendar)

	_, err = CalendarFromRows("x", [][]string{{"date", "07:00-09:00"}, {"6/3(土)", "1", "2"}})
	assert.ErrorIs(t, err, ErrMalformedCalendar)
}

func TestCalendar_Validate(t *testing.T) {
	cal := &Calendar{
		Name:          "コートA",
		ScheduleNames: []string{"07:00-09:00", "19:00-21:00"},
		Days: []DayAvailability{
			{Date: "6/3(土)", Schedule: []Availability{NewAvailability("07:00-09:00", "2")}},
		},
	}
	assert.ErrorIs(t, cal.Validate(), ErrMalformedCalendar)
}

func TestCalendar_Open(t *testing.T) {
	cal := &Calendar{
		Name:          "コートA",
		ScheduleNames: []string{"07:00-09:00", "19:00-21:00"},
		Days: []DayAvailability{
			{Date: "6/5(月)", Schedule: []Availability{
				NewAvailability("07:00-09:00", "2"),
				NewAvailability("19:00-21:00", "4"),
			}},
		},
	}
	open := cal.Open(Conditions{{Weekday: Any, Time: "19:00-21:00"}})
	assert.Equal(t, []Slot{{Date: "6/5(月)", Time: "19:00-21:00", Value: "4"}}, open)
}

func TestDiffMessage(t *testing.T) {
	groups := []DiffGroup{
		{Name: "コートA", Diffs: []Diff{{Date: "6/3(土)", Time: "19:00-21:00", Before: ValueFull, After: "2"}}},
		{Name: "コートB", Diffs: []Diff{{Date: "6/4(日)", Time: "07:00-09:00", Before: "1", After: ValueFull}}},
	}
	want := "施設空き情報に変更が見つかりました\n" +
		"[コートA]\n6/3(土) 19:00-21:00 のステータスが × から 2 に変わりました。\n\n" +
		"[コートB]\n6/4(日) 07:00-09:00 のステータスが 1 から × に変わりました。"
	assert.Equal(t, want, DiffMessage(groups))
}
