// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// ExplorerID represents a unique explorer (learner) identifier.
type ExplorerID string

// IsValid checks if the explorer ID is valid.
func (e ExplorerID) IsValid() bool {
	return e != ""
}

// String returns the string representation.
func (e ExplorerID) String() string {
	return string(e)
}

// ModuleID represents a stable module identifier.
// Module IDs are identity, never renamed: they are used as foreign keys
// in progress records and as keys in badge rules. Display order is a
// separate concern (catalog.DisplayOrder).
type ModuleID string

// IsValid checks if the module ID is valid.
func (m ModuleID) IsValid() bool {
	return m != ""
}

// String returns the string representation.
func (m ModuleID) String() string {
	return string(m)
}

// DefiID represents a challenge identifier, unique within its module.
type DefiID string

// IsValid checks if the defi ID is valid.
func (d DefiID) IsValid() bool {
	return d != ""
}

// String returns the string representation.
func (d DefiID) String() string {
	return string(d)
}

// BadgeID represents a badge identifier from the static catalog.
type BadgeID string

// IsValid checks if the badge ID is valid.
func (b BadgeID) IsValid() bool {
	return b != ""
}

// String returns the string representation.
func (b BadgeID) String() string {
	return string(b)
}

// ═══════════════════════════════════════════════════════════════════════════
// XP
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points.
type XP int

// IsValid checks that XP is non-negative.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add returns the sum of two XP values.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// ═══════════════════════════════════════════════════════════════════════════
// Day (date-only value in UTC)
// ═══════════════════════════════════════════════════════════════════════════

// Day represents a calendar day at UTC midnight. All day-granularity
// comparisons in the engine (streaks, time-of-day badge windows) use
// UTC uniformly so behavior is stable across DST transitions.
type Day struct {
	t time.Time
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return Day{t: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC day.
func Today() Day {
	return DayOf(time.Now())
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the UTC midnight timestamp of the day.
func (d Day) Time() time.Time {
	return d.t
}

// Equal reports whether two days are the same calendar day.
func (d Day) Equal(other Day) bool {
	return d.t.Equal(other.t)
}

// DaysUntil returns the whole number of days from d to other.
// Positive when other is later.
func (d Day) DaysUntil(other Day) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// AddDays returns the day shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// String returns the day formatted as YYYY-MM-DD.
func (d Day) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// ═══════════════════════════════════════════════════════════════════════════
// Misc helpers
// ═══════════════════════════════════════════════════════════════════════════

// IsBlank reports whether a string is empty or whitespace-only.
// Free-text submissions and mentor comments are rejected when blank,
// before any state mutation.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
