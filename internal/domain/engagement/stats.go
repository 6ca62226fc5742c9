package engagement

import (
	"time"

	"github.com/prodigal-hub/engagement-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOTALS (Derived statistics)
// ══════════════════════════════════════════════════════════════════════════════

// Totals is the derived summary of a user's activity history. It is never
// persisted: both the orchestrator and the backfill recompute it from the
// full record set on every call, so it can never drift from the records.
type Totals struct {
	// TotalPoints - sum of Points across all records.
	TotalPoints int

	// TotalActivities - count of records.
	TotalActivities int

	// CurrentStreak - consecutive engaged days ending at today (UTC civil
	// date). Zero when today has no activity; past unlocks are unaffected.
	CurrentStreak int
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// StatsCalculator reduces a user's activity records into Totals.
// It is a pure function of its input plus the clock; running it twice on
// the same records yields identical output, which the orchestrator and
// backfill rely on to call it freely and concurrently.
type StatsCalculator struct {
	// now supplies "today" for the streak walk. Defaults to time.Now.
	now func() time.Time
}

// NewStatsCalculator creates a calculator using the real clock.
func NewStatsCalculator() *StatsCalculator {
	return &StatsCalculator{now: time.Now}
}

// NewStatsCalculatorAt creates a calculator with a fixed clock.
// Used by tests and by callers that need a consistent "today" across
// a batch of users.
func NewStatsCalculatorAt(now func() time.Time) *StatsCalculator {
	if now == nil {
		now = time.Now
	}
	return &StatsCalculator{now: now}
}

// ComputeTotals reduces the complete, unordered record list of a single
// user into Totals. Records with a missing date still count toward
// TotalPoints and TotalActivities but are excluded from the streak walk
// (data-quality tolerance, not an error).
func (c *StatsCalculator) ComputeTotals(records []ActivityRecord) Totals {
	totals := Totals{TotalActivities: len(records)}

	engaged := make(map[time.Time]struct{})
	for _, r := range records {
		totals.TotalPoints += r.Points
		if r.HasDate() {
			engaged[timeutil.CivilDate(r.Date)] = struct{}{}
		}
	}

	totals.CurrentStreak = c.currentStreak(engaged)
	return totals
}

// currentStreak walks backward one day at a time starting at today and
// counts consecutive engaged days before the first gap, inclusive of
// today. Today without activity breaks a live streak for display
// purposes; multiple records on one day count as a single engaged day.
func (c *StatsCalculator) currentStreak(engaged map[time.Time]struct{}) int {
	if len(engaged) == 0 {
		return 0
	}

	day := timeutil.CivilDate(c.now())
	streak := 0
	for {
		if _, ok := engaged[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// EngagedOn reports whether the user has at least one dated record on the
// given civil date. Exposed for the leaderboard's "active today" marker.
func EngagedOn(records []ActivityRecord, date time.Time) bool {
	want := timeutil.CivilDate(date)
	for _, r := range records {
		if r.HasDate() && timeutil.CivilDate(r.Date).Equal(want) {
			return true
		}
	}
	return false
}
