// Package streak tracks consecutive-day activity streaks.
// Days compare at calendar-day granularity in UTC everywhere, so
// behavior is stable across DST transitions; see shared.Day.
// This is a pure domain layer with zero external dependencies.
package streak

import (
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// Streak is the single per-explorer streak row, mutated in place at
// most once per calendar day of activity.
type Streak struct {
	ExplorerID shared.ExplorerID

	// Current is the running count of consecutive active days.
	Current int

	// Longest is the best streak ever reached. Never decreases.
	Longest int

	// LastActivity is the last day with recorded activity (date only).
	LastActivity shared.Day
}

// New creates an empty streak tracker for an explorer.
func New(explorerID shared.ExplorerID) *Streak {
	return &Streak{ExplorerID: explorerID}
}

// RecordActivity updates the streak for an activity on the given day.
//
//   - Same day as the last activity: no-op (idempotent within a day).
//   - Exactly the next day: current streak extends by one.
//   - Gap of two or more days, or first-ever activity: reset to one.
//
// Longest is raised to current afterwards, so it never decreases.
// Returns true when the streak state changed.
func (s *Streak) RecordActivity(day shared.Day) bool {
	if s.LastActivity.IsZero() {
		s.Current = 1
		s.Longest = max(s.Longest, 1)
		s.LastActivity = day
		return true
	}

	switch s.LastActivity.DaysUntil(day) {
	case 0:
		return false
	case 1:
		s.Current++
	default:
		s.Current = 1
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivity = day
	return true
}

// IsBrokenAsOf reports whether the streak has lapsed by the given day:
// the last activity was neither that day nor the day before.
func (s *Streak) IsBrokenAsOf(day shared.Day) bool {
	if s.LastActivity.IsZero() {
		return false
	}
	return s.LastActivity.DaysUntil(day) > 1
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
