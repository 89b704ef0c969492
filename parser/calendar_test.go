package parser

import (
	"os"
	"testing"

	"court-watcher/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadPage(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/result.html")
	require.NoError(t, err)
	return string(data)
}

func TestExtractCalendars(t *testing.T) {
	calendars, err := ExtractCalendars(loadPage(t))
	require.NoError(t, err)
	require.Len(t, calendars, 2)

	a := calendars[0]
	assert.Equal(t, "有明テニスの森公園 コートA", a.Name)
	assert.Equal(t, []string{"07:00-09:00", "19:00-21:00"}, a.ScheduleNames)
	require.Len(t, a.Days, 2)
	for _, d := range a.Days {
		assert.Len(t, d.Schedule, 2)
	}
	assert.Equal(t, "6/3(土)", a.Days[0].Date)
	assert.Equal(t, "土", a.Days[0].Weekday())
	assert.Equal(t, "3", a.Days[0].Schedule[0].Value)
	assert.Equal(t, types.ValueFull, a.Days[0].Schedule[1].Value)
	assert.Equal(t, "19:00-21:00", a.Days[0].Schedule[1].Time)
	assert.Equal(t, "6/5(月)", a.Days[1].Date)
	assert.Equal(t, types.ValueExpired, a.Days[1].Schedule[0].Value)
	require.NoError(t, a.Validate())

	b := calendars[1]
	assert.Equal(t, "大井ふ頭中央海浜公園 コートB", b.Name)
	assert.Equal(t, "1", b.Days[1].Schedule[0].Value)
}

func TestExtractCalendars_SyntheticTable(t *testing.T) {
	page := `<table class="tcontent"><tr><td>header</td></tr></table>
<table class="tcontent"><tr><td>2023年</td></tr><tr><td>6/3(土)</td></tr><tr><td>6/4(日)</td></tr></table>
<table class="tcontent">
<tr><td>court</td></tr>
<tr><td>07:00-09:00</td><td>19:00-21:00</td></tr>
<tr><td>1</td><td>×</td></tr>
<tr><td>－</td><td>2</td></tr>
</table>`
	calendars, err := ExtractCalendars(page)
	require.NoError(t, err)
	require.Len(t, calendars, 1)

	cal := calendars[0]
	assert.Equal(t, []string{"07:00-09:00", "19:00-21:00"}, cal.ScheduleNames)
	require.Len(t, cal.Days, 2)
	assert.Len(t, cal.Days[0].Schedule, 2)
	assert.Len(t, cal.Days[1].Schedule, 2)
}

func TestExtractCalendars_MaintenancePage(t *testing.T) {
	_, err := ExtractCalendars(`<html><body><p>ただいまメンテナンス中です</p></body></html>`)
	assert.ErrorIs(t, err, ErrStructure)
}

func TestExtractCalendars_RowCountMismatch(t *testing.T) {
	page := `<table class="tcontent"></table>
<table class="tcontent"><tr><td>2023年</td></tr><tr><td>6/3(土)</td></tr></table>
<table class="tcontent">
<tr><td>court</td></tr>
<tr><td>07:00-09:00</td></tr>
<tr><td>1</td></tr>
<tr><td>2</td></tr>
</table>`
	_, err := ExtractCalendars(page)
	assert.ErrorIs(t, err, ErrStructure)
}

func TestExtractCalendars_CellCountMismatch(t *testing.T) {
	page := `<table class="tcontent"></table>
<table class="tcontent"><tr><td>2023年</td></tr><tr><td>6/3(土)</td></tr></table>
<table class="tcontent">
<tr><td>court</td></tr>
<tr><td>07:00-09:00</td><td>19:00-21:00</td></tr>
<tr><td>1</td></tr>
</table>`
	_, err := ExtractCalendars(page)
	assert.ErrorIs(t, err, ErrStructure)
}

func TestMergeMonths(t *testing.T) {
	june := []*types.Calendar{{
		Name:          "court",
		ScheduleNames: []string{"19:00-21:00"},
		Days:          []types.DayAvailability{{Date: "6/30(金)", Schedule: []types.Availability{types.NewAvailability("19:00-21:00", "1")}}},
	}}
	july := []*types.Calendar{{
		Name:          "court",
		ScheduleNames: []string{"19:00-21:00"},
		Days:          []types.DayAvailability{{Date: "7/1(土)", Schedule: []types.Availability{types.NewAvailability("19:00-21:00", "×")}}},
	}}

	merged, err := MergeMonths([][]*types.Calendar{june, july})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Days, 2)
	assert.Equal(t, "6/30(金)", merged[0].Days[0].Date)
	assert.Equal(t, "7/1(土)", merged[0].Days[1].Date)

	// inputs are left untouched
	assert.Len(t, june[0].Days, 1)
}

func TestMergeMonths_ScheduleMismatch(t *testing.T) {
	a := []*types.Calendar{{Name: "court", ScheduleNames: []string{"19:00-21:00"}}}
	b := []*types.Calendar{{Name: "court", ScheduleNames: []string{"07:00-09:00"}}}
	_, err := MergeMonths([][]*types.Calendar{a, b})
	assert.ErrorIs(t, err, ErrStructure)
}
