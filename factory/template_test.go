package factory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/roster-engine/generic"
)

var (
	mondayAnchor    = generic.NewDate(2024, time.January, 1)
	wednesdayAnchor = generic.NewDate(2024, time.January, 3)
)

func TestParseTemplate(t *testing.T) {
	f := NewTemplateFactory()

	// GIVEN: the Friday close written by a manager
	tpl, err := f.ParseTemplate(`{
		"id": "tpl-fri-close",
		"store_id": "store-1",
		"employee_id": "emp-1",
		"start_day": "Friday",
		"end_day": "sat",
		"start_time": "22:00",
		"end_time": "02:00",
		"active_weeks": [1, 3],
		"role_id": "role-driver",
		"comment": "closing driver"
	}`, mondayAnchor)

	// THEN: weekdays are indexed from Monday
	require.NoError(t, err)
	assert.Equal(t, generic.TemplateID("tpl-fri-close"), tpl.ID)
	assert.Equal(t, 4, tpl.StartWeekday)
	assert.Equal(t, 5, tpl.EndWeekday)
	assert.Equal(t, generic.NewClockTime(22, 0), tpl.StartTime)
	assert.Equal(t, generic.NewClockTime(2, 0), tpl.EndTime)
	assert.Equal(t, []int{1, 3}, tpl.ActiveWeeks)
	require.NotNil(t, tpl.RoleID)
	assert.Equal(t, generic.RoleID("role-driver"), *tpl.RoleID)
	require.NotNil(t, tpl.Comment)
	assert.True(t, tpl.CrossesMidnight())
}

func TestParseTemplate_Errors(t *testing.T) {
	f := NewTemplateFactory()

	_, err := f.ParseTemplate(`{not json`, mondayAnchor)
	assert.Error(t, err)

	tests := []struct {
		name string
		json string
	}{
		{"bad start day", `{"employee_id":"e","start_day":"funday","end_day":"mon","start_time":"09:00","end_time":"17:00","active_weeks":[1]}`},
		{"bad end index", `{"employee_id":"e","start_day":"mon","end_day":"7","start_time":"09:00","end_time":"17:00","active_weeks":[1]}`},
		{"bad start time", `{"employee_id":"e","start_day":"mon","end_day":"mon","start_time":"9am","end_time":"17:00","active_weeks":[1]}`},
		{"bad end time", `{"employee_id":"e","start_day":"mon","end_day":"mon","start_time":"09:00","end_time":"25:00","active_weeks":[1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseTemplate(tt.json, mondayAnchor)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrInvalidTemplate)
		})
	}
}

func TestParseWeekday_RelativeToAnchor(t *testing.T) {
	tests := []struct {
		day    string
		anchor generic.Date
		want   int
	}{
		{"monday", mondayAnchor, 0},
		{"sunday", mondayAnchor, 6},
		{"wednesday", wednesdayAnchor, 0},
		{"monday", wednesdayAnchor, 5},
		{"tue", wednesdayAnchor, 6},
		{"  FRI ", wednesdayAnchor, 2},
		{"3", wednesdayAnchor, 3},
	}
	for _, tt := range tests {
		t.Run(tt.day+"@"+tt.anchor.String(), func(t *testing.T) {
			got, err := ParseWeekday(tt.day, tt.anchor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseWeekday("-1", mondayAnchor)
	assert.Error(t, err)
}

func TestWeekdayName_InverseOfParse(t *testing.T) {
	for _, anchor := range []generic.Date{mondayAnchor, wednesdayAnchor, mondayAnchor.AddDays(6)} {
		for i := 0; i < 7; i++ {
			name := WeekdayName(i, anchor)
			back, err := ParseWeekday(name, anchor)
			require.NoError(t, err)
			assert.Equal(t, i, back, "anchor %s index %d (%s)", anchor, i, name)
		}
	}
	assert.Equal(t, "friday", WeekdayName(4, mondayAnchor))
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := NewTemplateFactory()
	role := generic.RoleID("role-driver")
	in := generic.Template{
		ID: "tpl", StoreID: "s", EmployeeID: "e",
		StartWeekday: 4, EndWeekday: 5,
		StartTime: generic.NewClockTime(22, 0), EndTime: generic.NewClockTime(2, 0),
		ActiveWeeks: []int{1, 3}, RoleID: &role,
	}

	tj := f.ToJSON(in, mondayAnchor)
	assert.Equal(t, "friday", tj.StartDay)
	assert.Equal(t, "22:00", tj.StartTime)

	out, err := f.FromJSON(tj, mondayAnchor)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
