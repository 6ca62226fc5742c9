package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prodigal-hub/engagement-hub/pkg/timeutil"
)

// fixedNow pins "today" for the streak walk.
func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time {
		return time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
	}
}

func record(points int, date time.Time) ActivityRecord {
	return ActivityRecord{
		ID:             "r",
		UserID:         "u1",
		ActivityTypeID: "1",
		Quantity:       1,
		Points:         points,
		Date:           date,
	}
}

func TestComputeTotals_Empty(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))

	totals := calc.ComputeTotals(nil)

	assert.Equal(t, 0, totals.TotalPoints)
	assert.Equal(t, 0, totals.TotalActivities)
	assert.Equal(t, 0, totals.CurrentStreak)
}

func TestComputeTotals_SumsPointsAndCounts(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))
	day := timeutil.Date(2026, 3, 10)

	totals := calc.ComputeTotals([]ActivityRecord{
		record(10, day),
		record(25, day),
		record(1500, day.AddDate(0, 0, -5)),
	})

	assert.Equal(t, 1535, totals.TotalPoints)
	assert.Equal(t, 3, totals.TotalActivities)
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))
	records := []ActivityRecord{
		record(10, timeutil.Date(2026, 3, 8)),
		record(20, timeutil.Date(2026, 3, 10)),
		record(30, timeutil.Date(2026, 3, 9)),
	}
	reversed := []ActivityRecord{records[2], records[1], records[0]}

	assert.Equal(t, calc.ComputeTotals(records), calc.ComputeTotals(reversed))
}

func TestCurrentStreak_ConsecutiveDaysEndingToday(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))

	totals := calc.ComputeTotals([]ActivityRecord{
		record(1, timeutil.Date(2026, 3, 10)),
		record(1, timeutil.Date(2026, 3, 9)),
		record(1, timeutil.Date(2026, 3, 8)),
	})

	assert.Equal(t, 3, totals.CurrentStreak)
}

func TestCurrentStreak_ZeroWithoutTodayActivity(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))

	// A long run that ended yesterday displays as zero.
	totals := calc.ComputeTotals([]ActivityRecord{
		record(1, timeutil.Date(2026, 3, 9)),
		record(1, timeutil.Date(2026, 3, 8)),
		record(1, timeutil.Date(2026, 3, 7)),
	})

	assert.Equal(t, 0, totals.CurrentStreak)
}

func TestCurrentStreak_GapBreaksTheWalk(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))

	totals := calc.ComputeTotals([]ActivityRecord{
		record(1, timeutil.Date(2026, 3, 10)),
		record(1, timeutil.Date(2026, 3, 9)),
		// March 8 is missing
		record(1, timeutil.Date(2026, 3, 7)),
		record(1, timeutil.Date(2026, 3, 6)),
	})

	assert.Equal(t, 2, totals.CurrentStreak)
}

func TestCurrentStreak_BackfilledDayExtendsStreak(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))

	// Three consecutive engaged days ending today; March 7 is empty.
	records := []ActivityRecord{
		record(1, timeutil.Date(2026, 3, 10)),
		record(1, timeutil.Date(2026, 3, 9)),
		record(1, timeutil.Date(2026, 3, 8)),
	}
	assert.Equal(t, 3, calc.ComputeTotals(records).CurrentStreak)

	// An admin logs a late record for March 7 and the streak grows.
	records = append(records, record(1, timeutil.Date(2026, 3, 7)))
	assert.Equal(t, 4, calc.ComputeTotals(records).CurrentStreak)
}

func TestCurrentStreak_MultipleRecordsPerDayCountOnce(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))
	today := timeutil.Date(2026, 3, 10)

	totals := calc.ComputeTotals([]ActivityRecord{
		record(1, today),
		record(1, today.Add(2*time.Hour)),
		record(1, today.Add(23*time.Hour)),
	})

	assert.Equal(t, 1, totals.CurrentStreak)
}

func TestCurrentStreak_UsesUTCCivilDates(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))

	// 23:59 UTC yesterday and 00:01 UTC today are different civil days.
	totals := calc.ComputeTotals([]ActivityRecord{
		record(1, time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC)),
		record(1, time.Date(2026, time.March, 10, 0, 1, 0, 0, time.UTC)),
	})

	assert.Equal(t, 2, totals.CurrentStreak)
}

func TestComputeTotals_ZeroDateCountsButNeverStreaks(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))

	totals := calc.ComputeTotals([]ActivityRecord{
		record(100, time.Time{}),
		record(1, timeutil.Date(2026, 3, 10)),
	})

	assert.Equal(t, 101, totals.TotalPoints)
	assert.Equal(t, 2, totals.TotalActivities)
	assert.Equal(t, 1, totals.CurrentStreak)
}

func TestComputeTotals_Idempotent(t *testing.T) {
	calc := NewStatsCalculatorAt(fixedNow(2026, time.March, 10))
	records := []ActivityRecord{
		record(10, timeutil.Date(2026, 3, 10)),
		record(20, time.Time{}),
	}

	first := calc.ComputeTotals(records)
	second := calc.ComputeTotals(records)

	assert.Equal(t, first, second)
}

func TestEngagedOn(t *testing.T) {
	records := []ActivityRecord{
		record(1, timeutil.Date(2026, 3, 10)),
		record(1, time.Time{}),
	}

	assert.True(t, EngagedOn(records, time.Date(2026, time.March, 10, 22, 0, 0, 0, time.UTC)))
	assert.False(t, EngagedOn(records, timeutil.Date(2026, 3, 9)))
	assert.False(t, EngagedOn(records, time.Time{}))
}
