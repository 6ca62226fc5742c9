// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"fmt"
	"time"

	"github.com/prodigal-hub/engagement-hub/pkg/timeutil"
)

// TimeFilter narrows an aggregation window. It only affects summed
// totals; streaks are always computed over the full history.
type TimeFilter string

const (
	// FilterAll - no window, full history.
	FilterAll TimeFilter = "all"

	// FilterToday - records dated today (UTC).
	FilterToday TimeFilter = "today"

	// FilterWeek - records dated this calendar week (Monday-based, UTC).
	FilterWeek TimeFilter = "week"

	// FilterMonth - records dated this calendar month (UTC).
	FilterMonth TimeFilter = "month"
)

// ParseTimeFilter maps a request string to a filter. Empty means all.
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch TimeFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterToday:
		return FilterToday, nil
	case FilterWeek:
		return FilterWeek, nil
	case FilterMonth:
		return FilterMonth, nil
	}
	return "", fmt.Errorf("query: unknown time filter %q", s)
}

// Cutoff returns the window's start instant and whether a window
// applies at all. Records with a zero date never fall inside a window.
func (f TimeFilter) Cutoff(now time.Time) (time.Time, bool) {
	switch f {
	case FilterToday:
		return timeutil.StartOfDay(now), true
	case FilterWeek:
		return timeutil.StartOfWeek(now), true
	case FilterMonth:
		return timeutil.StartOfMonth(now), true
	}
	return time.Time{}, false
}

// Contains reports whether a record date falls inside the window.
func (f TimeFilter) Contains(now, date time.Time) bool {
	cutoff, bounded := f.Cutoff(now)
	if !bounded {
		return true
	}
	if date.IsZero() {
		return false
	}
	return !date.Before(cutoff)
}
