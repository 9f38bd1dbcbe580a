package drill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

func session(t *testing.T, op Operation, diff Difficulty, score int, accuracy, seconds float64) *Session {
	t.Helper()
	s, err := NewSession("sess-1", shared.ExplorerID("exp-1"), op, diff, score, accuracy, seconds, time.Now())
	require.NoError(t, err)
	return s
}

func TestNewSession_Validation(t *testing.T) {
	now := time.Now()

	_, err := NewSession("", shared.ExplorerID("exp-1"), OpAddition, DifficultyEasy, 5, 50, 30, now)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewSession("s", shared.ExplorerID("exp-1"), OpAddition, DifficultyEasy, 11, 50, 30, now)
	assert.ErrorIs(t, err, shared.ErrInvalidScore)

	_, err = NewSession("s", shared.ExplorerID("exp-1"), OpAddition, DifficultyEasy, -1, 50, 30, now)
	assert.ErrorIs(t, err, shared.ErrInvalidScore)

	_, err = NewSession("s", shared.ExplorerID("exp-1"), OpAddition, DifficultyEasy, 5, 101, 30, now)
	assert.ErrorIs(t, err, shared.ErrInvalidAccuracy)

	_, err = NewSession("s", shared.ExplorerID("exp-1"), OpAddition, DifficultyEasy, 5, 50, 0, now)
	assert.ErrorIs(t, err, shared.ErrInvalidDuration)
}

func TestCompute_EmptyHistory(t *testing.T) {
	stats := Compute(nil)

	assert.False(t, stats.HasData)
	assert.Zero(t, stats.SessionCount)
	assert.Empty(t, stats.Categories)
}

func TestCompute_ScoreDominatesTime(t *testing.T) {
	// A perfect score in 25s, a perfect score in 18s, and a faster but
	// imperfect 8 in 10s. The fast imperfect run must not win.
	sessions := []*Session{
		session(t, OpAddition, DifficultyEasy, 10, 100, 25),
		session(t, OpAddition, DifficultyEasy, 10, 100, 18),
		session(t, OpAddition, DifficultyEasy, 8, 80, 10),
	}

	stats := Compute(sessions)

	require.True(t, stats.HasData)
	assert.Equal(t, 10, stats.GlobalBest.Score)
	assert.Equal(t, 18.0, stats.GlobalBest.TimeSeconds)
}

func TestCompute_Averages(t *testing.T) {
	sessions := []*Session{
		session(t, OpAddition, DifficultyEasy, 10, 100, 20),
		session(t, OpAddition, DifficultyEasy, 7, 70, 20),
		session(t, OpAddition, DifficultyEasy, 8, 85.5, 20),
	}

	stats := Compute(sessions)

	assert.InDelta(t, 85.1666, stats.AvgAccuracy, 0.001)
	assert.Equal(t, 85.0, stats.AvgAccuracyRounded)
	assert.Equal(t, 1, stats.PerfectCount)
	assert.Equal(t, 3, stats.SessionCount)
}

func TestCompute_CategoryBreakdown(t *testing.T) {
	sessions := []*Session{
		session(t, OpAddition, DifficultyEasy, 9, 90, 30),
		session(t, OpAddition, DifficultyEasy, 10, 100, 40),
		session(t, OpDivision, DifficultyHard, 6, 60, 50),
	}

	stats := Compute(sessions)

	require.Len(t, stats.Categories, 2)

	add := stats.Categories[0]
	assert.Equal(t, OpAddition, add.Operation)
	assert.Equal(t, DifficultyEasy, add.Difficulty)
	assert.Equal(t, 2, add.SessionCount)
	assert.Equal(t, 10, add.Best.Score)
	assert.Equal(t, 40.0, add.Best.TimeSeconds)
	assert.Equal(t, 95.0, add.AvgAccuracy)

	div := stats.Categories[1]
	assert.Equal(t, OpDivision, div.Operation)
	assert.Equal(t, 1, div.SessionCount)
	assert.Equal(t, 6, div.Best.Score)
}

func TestCompute_TieBreakOnEqualScore(t *testing.T) {
	sessions := []*Session{
		session(t, OpSubtraction, DifficultyMedium, 7, 70, 33),
		session(t, OpSubtraction, DifficultyMedium, 7, 70, 29),
		session(t, OpSubtraction, DifficultyMedium, 7, 70, 31),
	}

	stats := Compute(sessions)

	assert.Equal(t, 7, stats.GlobalBest.Score)
	assert.Equal(t, 29.0, stats.GlobalBest.TimeSeconds)
}

func TestBestPerOperation(t *testing.T) {
	sessions := []*Session{
		session(t, OpAddition, DifficultyEasy, 10, 100, 22),
		session(t, OpAddition, DifficultyHard, 10, 100, 19),
		session(t, OpMultiplication, DifficultyEasy, 8, 80, 25),
	}

	best := BestPerOperation(sessions)

	require.Len(t, best, 2)
	assert.Equal(t, 19.0, best[OpAddition].TimeSeconds)
	assert.Equal(t, 8, best[OpMultiplication].Score)
	_, drilled := best[OpDivision]
	assert.False(t, drilled)
}

func TestMaxConsecutivePerfect(t *testing.T) {
	sessions := []*Session{
		session(t, OpAddition, DifficultyEasy, 10, 100, 20),
		session(t, OpAddition, DifficultyEasy, 10, 100, 20),
		session(t, OpAddition, DifficultyEasy, 9, 90, 20),
		session(t, OpAddition, DifficultyEasy, 10, 100, 20),
		session(t, OpAddition, DifficultyEasy, 10, 100, 20),
		session(t, OpAddition, DifficultyEasy, 10, 100, 20),
	}

	assert.Equal(t, 3, MaxConsecutivePerfect(sessions))
	assert.Equal(t, 0, MaxConsecutivePerfect(nil))
}
