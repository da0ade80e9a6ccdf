package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/roster-engine/generic"
)

var anchorMonday = generic.NewDate(2024, time.January, 1)

func TestCycleWeekOf_AnchorWeeks(t *testing.T) {
	tests := []struct {
		name        string
		target      generic.Date
		wantWeek    int
		wantWeekday int
	}{
		{"anchor itself", anchorMonday, 1, 0},
		{"end of week 1", generic.NewDate(2024, time.January, 7), 1, 6},
		{"start of week 2", generic.NewDate(2024, time.January, 8), 2, 0},
		{"friday of week 3", generic.NewDate(2024, time.January, 19), 3, 4},
		{"week 4", generic.NewDate(2024, time.January, 22), 4, 0},
		{"wraps to week 1", generic.NewDate(2024, time.January, 29), 1, 0},
		{"day before anchor", generic.NewDate(2023, time.December, 31), 4, 6},
		{"week before anchor", generic.NewDate(2023, time.December, 25), 4, 0},
		{"far before anchor", generic.NewDate(2023, time.December, 4), 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, weekday := CycleWeekOf(anchorMonday, 4, tt.target)
			assert.Equal(t, tt.wantWeek, week)
			assert.Equal(t, tt.wantWeekday, weekday)
		})
	}
}

func TestCycleWeekOf_Periodic(t *testing.T) {
	// GIVEN: dates on both sides of the anchor and several cycle lengths
	// WHEN: shifting a date by whole cycles
	// THEN: week and weekday are unchanged
	for _, length := range []int{1, 2, 3, 4, 6} {
		for offset := -60; offset <= 60; offset += 7 {
			d := anchorMonday.AddDays(offset + offset%5)
			week, weekday := CycleWeekOf(anchorMonday, length, d)
			assert.GreaterOrEqual(t, week, 1)
			assert.LessOrEqual(t, week, length)

			for _, k := range []int{-4000, -1000, -3, -1, 1, 2, 5, 1000, 4000} {
				w2, wd2 := CycleWeekOf(anchorMonday, length, d.AddDays(7*length*k))
				assert.Equal(t, week, w2, "length=%d d=%s k=%d", length, d, k)
				assert.Equal(t, weekday, wd2, "length=%d d=%s k=%d", length, d, k)
			}
		}
	}
}

func TestCycleWeekOf_CenturiesFromAnchor(t *testing.T) {
	// GIVEN: a Wednesday in week 1 of a 4-week cycle
	base := generic.NewDate(2024, time.January, 3)

	// WHEN: moving it 4000 cycles either way (more than 292 years)
	later := base.AddDays(7 * 4 * 4000)
	earlier := base.AddDays(-7 * 4 * 4000)

	// THEN: the dates and their position in the cycle are exact
	assert.Equal(t, generic.NewDate(2330, time.August, 27), later)
	assert.Equal(t, generic.NewDate(1717, time.May, 12), earlier)
	for _, d := range []generic.Date{later, earlier} {
		week, weekday := CycleWeekOf(anchorMonday, 4, d)
		assert.Equal(t, 1, week, d.String())
		assert.Equal(t, 2, weekday, d.String())
	}
	assert.Equal(t, 4*7*4000, later.DaysSince(base))
	assert.Equal(t, 3287182, generic.DateRange{
		Start: generic.NewDate(1000, time.January, 1),
		End:   generic.NewDate(9999, time.December, 31),
	}.Len())
}

func TestCycleWeekOf_InvalidLengthTreatedAsOne(t *testing.T) {
	week, weekday := CycleWeekOf(anchorMonday, 0, generic.NewDate(2024, time.February, 14))
	assert.Equal(t, 1, week)
	assert.Equal(t, 2, weekday)
}

func TestCycleWeekIn_UsesStoreDefaults(t *testing.T) {
	// GIVEN: a store without a cycle length
	store := generic.Store{ID: "s", CycleAnchor: anchorMonday}

	// WHEN: resolving five weeks after the anchor
	week, _ := CycleWeekIn(store, anchorMonday.AddDays(35))

	// THEN: the default four-week cycle applies
	assert.Equal(t, 2, week)
}
