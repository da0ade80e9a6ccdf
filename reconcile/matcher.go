package reconcile

import (
	"fmt"
	"math"
	"math/bits"
	"sort"
	"time"

	"github.com/warp/roster-engine/generic"
)

// =============================================================================
// PAIRING - Shifts <-> activity records of one employee on one date
// =============================================================================

// Pair is a shift matched with an activity record.
type Pair struct {
	Shift    generic.ConcreteShift
	Activity generic.ActivityRecord
}

// Matcher pairs an employee's shifts and activity records for one date.
// Records left out of every pair become Missed Shift / No Shift.
type Matcher interface {
	Match(shifts []generic.ConcreteShift, activities []generic.ActivityRecord) []Pair
}

const (
	MatchingGreedy  = "greedy"
	MatchingOptimal = "optimal"
)

// NewMatcher returns the matcher for a RECONCILE_MATCHING value.
func NewMatcher(mode string) (Matcher, error) {
	switch mode {
	case "", MatchingGreedy:
		return GreedyMatcher{}, nil
	case MatchingOptimal:
		return OptimalMatcher{}, nil
	default:
		return nil, generic.Invalid(generic.ErrInvalidInput, "matching", fmt.Sprintf("unknown mode %q", mode))
	}
}

func startDistance(s generic.ConcreteShift, a generic.ActivityRecord) time.Duration {
	d := s.Start.Sub(a.LoginAt)
	if d < 0 {
		return -d
	}
	return d
}

// GreedyMatcher repeatedly pairs the closest remaining (shift, activity) by
// start-time distance. Ties go to the earliest-created activity, then the
// earliest-created shift, then the smaller ids.
type GreedyMatcher struct{}

func (GreedyMatcher) Match(shifts []generic.ConcreteShift, activities []generic.ActivityRecord) []Pair {
	type candidate struct {
		s, a int
		dist time.Duration
	}
	candidates := make([]candidate, 0, len(shifts)*len(activities))
	for i := range shifts {
		for j := range activities {
			candidates = append(candidates, candidate{s: i, a: j, dist: startDistance(shifts[i], activities[j])})
		}
	}
	sort.SliceStable(candidates, func(x, y int) bool {
		cx, cy := candidates[x], candidates[y]
		if cx.dist != cy.dist {
			return cx.dist < cy.dist
		}
		ax, ay := activities[cx.a], activities[cy.a]
		if !ax.CreatedAt.Equal(ay.CreatedAt) {
			return ax.CreatedAt.Before(ay.CreatedAt)
		}
		sx, sy := shifts[cx.s], shifts[cy.s]
		if !sx.CreatedAt.Equal(sy.CreatedAt) {
			return sx.CreatedAt.Before(sy.CreatedAt)
		}
		if ax.ID != ay.ID {
			return ax.ID < ay.ID
		}
		return sx.ID < sy.ID
	})

	usedShift := make([]bool, len(shifts))
	usedActivity := make([]bool, len(activities))
	var pairs []Pair
	for _, c := range candidates {
		if usedShift[c.s] || usedActivity[c.a] {
			continue
		}
		usedShift[c.s] = true
		usedActivity[c.a] = true
		pairs = append(pairs, Pair{Shift: shifts[c.s], Activity: activities[c.a]})
	}
	return pairs
}

// OptimalMatcher pairs as many records as possible with the minimum total
// start-time distance (exact bitmask DP). Above MaxExact records on the larger
// side it falls back to GreedyMatcher.
type OptimalMatcher struct {
	MaxExact int // 0 = 12
}

func (m OptimalMatcher) Match(shifts []generic.ConcreteShift, activities []generic.ActivityRecord) []Pair {
	limit := m.MaxExact
	if limit <= 0 {
		limit = 12
	}
	if len(shifts) == 0 || len(activities) == 0 {
		return nil
	}
	if max(len(shifts), len(activities)) > limit {
		return GreedyMatcher{}.Match(shifts, activities)
	}

	shifts = append([]generic.ConcreteShift(nil), shifts...)
	activities = append([]generic.ActivityRecord(nil), activities...)
	sort.SliceStable(shifts, func(i, j int) bool { return shiftLess(shifts[i], shifts[j]) })
	sort.SliceStable(activities, func(i, j int) bool { return activityLess(activities[i], activities[j]) })

	// rows are the smaller side, each row gets exactly one column
	rowsAreShifts := len(shifts) <= len(activities)
	n, cols := len(activities), len(shifts)
	if rowsAreShifts {
		n, cols = len(shifts), len(activities)
	}
	cost := func(row, col int) int64 {
		if rowsAreShifts {
			return int64(startDistance(shifts[row], activities[col]) / time.Second)
		}
		return int64(startDistance(shifts[col], activities[row]) / time.Second)
	}

	states := 1 << cols
	dp := make([][]int64, n+1)
	choice := make([][]int8, n+1)
	for i := range dp {
		dp[i] = make([]int64, states)
		choice[i] = make([]int8, states)
		for mask := range dp[i] {
			dp[i][mask] = math.MaxInt64
		}
	}
	dp[0][0] = 0

	for i := 0; i < n; i++ {
		for mask := 0; mask < states; mask++ {
			if dp[i][mask] == math.MaxInt64 || bits.OnesCount(uint(mask)) != i {
				continue
			}
			for col := 0; col < cols; col++ {
				if mask&(1<<col) != 0 {
					continue
				}
				next := mask | 1<<col
				c := dp[i][mask] + cost(i, col)
				if c < dp[i+1][next] {
					dp[i+1][next] = c
					choice[i+1][next] = int8(col)
				}
			}
		}
	}

	best := -1
	for mask := 0; mask < states; mask++ {
		if dp[n][mask] == math.MaxInt64 {
			continue
		}
		if best < 0 || dp[n][mask] < dp[n][best] {
			best = mask
		}
	}

	pairs := make([]Pair, n)
	mask := best
	for i := n; i > 0; i-- {
		col := int(choice[i][mask])
		if rowsAreShifts {
			pairs[i-1] = Pair{Shift: shifts[i-1], Activity: activities[col]}
		} else {
			pairs[i-1] = Pair{Shift: shifts[col], Activity: activities[i-1]}
		}
		mask ^= 1 << col
	}
	return pairs
}

func shiftLess(a, b generic.ConcreteShift) bool {
	if !a.Start.Equal(b.Start) {
		return a.Start.Before(b.Start)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func activityLess(a, b generic.ActivityRecord) bool {
	if !a.LoginAt.Equal(b.LoginAt) {
		return a.LoginAt.Before(b.LoginAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
