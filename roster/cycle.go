/*
Package roster holds the expected side of reconciliation: the rotating cycle
calendar, the repeating-shift expander and the roster service that merges
persisted shifts with template occurrences.

CYCLE ARITHMETIC:
  A store's roster repeats every N weeks starting at its cycle anchor.

    days    = target - anchor           (may be negative)
    week    = floor(days / 7) mod N + 1 (1..N)
    weekday = days mod 7                (0..6, 0 = anchor's weekday)

  Floor division keeps dates before the anchor on the same rotation:
  with anchor Mon 2024-01-01 and N = 4, Sun 2023-12-31 is week 4, weekday 6.

SEE ALSO:
  - expand.go: Template -> occurrences
  - service.go: Roster queries and mutations
*/
package roster

import "github.com/warp/roster-engine/generic"

// CycleWeekOf maps target onto the cycle that starts at anchor and repeats
// every length weeks. week is 1-based, weekday is 0..6 counted from the
// anchor's weekday. length < 1 is treated as 1.
func CycleWeekOf(anchor generic.Date, length int, target generic.Date) (week, weekday int) {
	if length < 1 {
		length = 1
	}
	days := target.DaysSince(anchor)
	week = generic.FloorMod(generic.FloorDiv(days, 7), length) + 1
	weekday = generic.FloorMod(days, 7)
	return week, weekday
}

// CycleWeekIn is CycleWeekOf using the store's anchor and cycle length.
func CycleWeekIn(store generic.Store, target generic.Date) (week, weekday int) {
	return CycleWeekOf(store.CycleAnchor, store.CycleLength(), target)
}
