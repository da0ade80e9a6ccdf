/*
Package factory provides JSON to Go repeating-shift template conversion.

PURPOSE:
  Converts JSON template definitions into generic.Template values. Managers
  write weekdays by name and times as "HH:MM"; the engine stores weekday
  indexes relative to the store's cycle anchor and minutes since midnight.

JSON SCHEMA:
  {
    "id": "tpl-fri-close",
    "store_id": "store-1",
    "employee_id": "emp-1",
    "start_day": "friday",
    "end_day": "saturday",
    "start_time": "22:00",
    "end_time": "02:00",
    "active_weeks": [1, 3],
    "role_id": "role-driver",
    "comment": "closing driver"
  }

  start_day / end_day also accept an index "0".."6" (already relative to
  the anchor).

USAGE:
  f := NewTemplateFactory()
  t, err := f.ParseTemplate(jsonString, store.CycleAnchor)

SEE ALSO:
  - roster/expand.go: ValidateTemplate, Expand
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warp/roster-engine/generic"
)

// TemplateJSON is the JSON representation of a repeating shift template.
type TemplateJSON struct {
	ID          string  `json:"id,omitempty"`
	StoreID     string  `json:"store_id"`
	EmployeeID  string  `json:"employee_id" validate:"required"`
	StartDay    string  `json:"start_day" validate:"required"`
	EndDay      string  `json:"end_day" validate:"required"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	ActiveWeeks []int   `json:"active_weeks" validate:"required,min=1,dive,min=1"`
	RoleID      *string `json:"role_id,omitempty"`
	Comment     *string `json:"comment,omitempty"`
}

// TemplateFactory converts between TemplateJSON and generic.Template.
type TemplateFactory struct{}

func NewTemplateFactory() *TemplateFactory {
	return &TemplateFactory{}
}

// ParseTemplate parses a JSON string.
func (f *TemplateFactory) ParseTemplate(jsonStr string, anchor generic.Date) (generic.Template, error) {
	var tj TemplateJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return generic.Template{}, fmt.Errorf("invalid template JSON: %w", err)
	}
	return f.FromJSON(tj, anchor)
}

// FromJSON converts tj, resolving weekday names against anchor.
func (f *TemplateFactory) FromJSON(tj TemplateJSON, anchor generic.Date) (generic.Template, error) {
	startDay, err := ParseWeekday(tj.StartDay, anchor)
	if err != nil {
		return generic.Template{}, generic.Invalid(generic.ErrInvalidTemplate, "start_day", err.Error())
	}
	endDay, err := ParseWeekday(tj.EndDay, anchor)
	if err != nil {
		return generic.Template{}, generic.Invalid(generic.ErrInvalidTemplate, "end_day", err.Error())
	}
	startTime, err := generic.ParseClockTime(tj.StartTime)
	if err != nil {
		return generic.Template{}, generic.Invalid(generic.ErrInvalidTemplate, "start_time", err.Error())
	}
	endTime, err := generic.ParseClockTime(tj.EndTime)
	if err != nil {
		return generic.Template{}, generic.Invalid(generic.ErrInvalidTemplate, "end_time", err.Error())
	}

	t := generic.Template{
		ID:           generic.TemplateID(tj.ID),
		StoreID:      generic.StoreID(tj.StoreID),
		EmployeeID:   generic.EmployeeID(tj.EmployeeID),
		StartWeekday: startDay,
		EndWeekday:   endDay,
		StartTime:    startTime,
		EndTime:      endTime,
		ActiveWeeks:  append([]int(nil), tj.ActiveWeeks...),
		Comment:      tj.Comment,
	}
	if tj.RoleID != nil && *tj.RoleID != "" {
		role := generic.RoleID(*tj.RoleID)
		t.RoleID = &role
	}
	return t, nil
}

// ToJSON converts t back, naming weekdays.
func (f *TemplateFactory) ToJSON(t generic.Template, anchor generic.Date) TemplateJSON {
	tj := TemplateJSON{
		ID:          string(t.ID),
		StoreID:     string(t.StoreID),
		EmployeeID:  string(t.EmployeeID),
		StartDay:    WeekdayName(t.StartWeekday, anchor),
		EndDay:      WeekdayName(t.EndWeekday, anchor),
		StartTime:   t.StartTime.String(),
		EndTime:     t.EndTime.String(),
		ActiveWeeks: t.ActiveWeeks,
		Comment:     t.Comment,
	}
	if t.RoleID != nil {
		role := string(*t.RoleID)
		tj.RoleID = &role
	}
	return tj
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday turns a weekday name or an index "0".."6" into the index
// relative to anchor's weekday.
func ParseWeekday(s string, anchor generic.Date) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday index %d outside 0..6", n)
		}
		return n, nil
	}
	wd, ok := weekdayNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return generic.FloorMod(int(wd)-int(anchor.Weekday()), 7), nil
}

// WeekdayName is the inverse of ParseWeekday.
func WeekdayName(index int, anchor generic.Date) string {
	wd := time.Weekday(generic.FloorMod(int(anchor.Weekday())+index, 7))
	return strings.ToLower(wd.String())
}
