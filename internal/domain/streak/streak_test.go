package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

func day(s string) shared.Day {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return shared.DayOf(t)
}

func TestFirstActivityStartsStreakAtOne(t *testing.T) {
	s := New("exp-1")

	changed := s.RecordActivity(day("2025-03-10"))
	assert.True(t, changed)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
}

func TestSameDayIsIdempotent(t *testing.T) {
	s := New("exp-1")
	s.RecordActivity(day("2025-03-10"))

	changed := s.RecordActivity(day("2025-03-10"))
	assert.False(t, changed)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
}

func TestConsecutiveDayExtendsStreak(t *testing.T) {
	s := New("exp-1")
	s.RecordActivity(day("2025-03-10"))
	s.RecordActivity(day("2025-03-11"))

	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 2, s.Longest)
}

func TestGapResetsCurrentButKeepsLongest(t *testing.T) {
	s := New("exp-1")
	s.RecordActivity(day("2025-03-10"))
	s.RecordActivity(day("2025-03-11"))
	s.RecordActivity(day("2025-03-12"))

	// Three-day gap
	s.RecordActivity(day("2025-03-15"))

	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Longest, "longest never decreases")
}

func TestLongestIsMonotonic(t *testing.T) {
	s := New("exp-1")
	days := []string{
		"2025-03-01", "2025-03-02", "2025-03-03", // streak of 3
		"2025-03-10",               // reset
		"2025-03-11", "2025-03-12", // back to 3
		"2025-03-13", "2025-03-14", // 5, new record
	}

	longest := 0
	for _, d := range days {
		s.RecordActivity(day(d))
		assert.GreaterOrEqual(t, s.Longest, longest)
		longest = s.Longest
	}

	assert.Equal(t, 5, s.Current)
	assert.Equal(t, 5, s.Longest)
}

func TestIsBrokenAsOf(t *testing.T) {
	s := New("exp-1")
	assert.False(t, s.IsBrokenAsOf(day("2025-03-10")), "no activity yet, nothing to break")

	s.RecordActivity(day("2025-03-10"))
	assert.False(t, s.IsBrokenAsOf(day("2025-03-10")))
	assert.False(t, s.IsBrokenAsOf(day("2025-03-11")), "still today to save it")
	assert.True(t, s.IsBrokenAsOf(day("2025-03-12")))
}

func TestDayGranularityIgnoresTimeOfDay(t *testing.T) {
	s := New("exp-1")
	morning := shared.DayOf(time.Date(2025, 3, 10, 6, 5, 0, 0, time.UTC))
	night := shared.DayOf(time.Date(2025, 3, 10, 23, 55, 0, 0, time.UTC))

	s.RecordActivity(morning)
	changed := s.RecordActivity(night)

	assert.False(t, changed)
	assert.Equal(t, 1, s.Current)
}
