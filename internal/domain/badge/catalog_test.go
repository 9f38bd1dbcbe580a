package badge

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

func drillSession(t *testing.T, op drill.Operation, score int, accuracy, seconds float64) *drill.Session {
	t.Helper()
	s, err := drill.NewSession("sess", shared.ExplorerID("exp-1"), op, drill.DifficultyMedium, score, accuracy, seconds, time.Now())
	require.NoError(t, err)
	return s
}

func ruleOf(t *testing.T, id shared.BadgeID) Rule {
	t.Helper()
	def, ok := CatalogByID(DefaultCatalog())[id]
	require.True(t, ok, "badge %s not in catalog", id)
	return def.Rule
}

func TestQuickDraw_ScoreBeforeTime(t *testing.T) {
	rule := ruleOf(t, "quick-draw")

	// Fast but imperfect never qualifies.
	eval := rule(History{DrillSessions: []*drill.Session{
		drillSession(t, drill.OpAddition, 9, 90, 12),
	}})
	assert.False(t, eval.Earned)
	assert.Less(t, eval.Progress, 100)

	// Perfect over the limit: close, not earned.
	eval = rule(History{DrillSessions: []*drill.Session{
		drillSession(t, drill.OpAddition, 10, 100, 31),
	}})
	assert.False(t, eval.Earned)
	assert.Equal(t, 95, eval.Progress)

	// Perfect at the limit qualifies.
	eval = rule(History{DrillSessions: []*drill.Session{
		drillSession(t, drill.OpAddition, 10, 100, 30),
	}})
	assert.True(t, eval.Earned)
	assert.Equal(t, 100, eval.Progress)
}

func TestArithmeticMaster_RequiresEveryOperation(t *testing.T) {
	rule := ruleOf(t, "arithmetic-master")

	sessions := []*drill.Session{
		drillSession(t, drill.OpAddition, 10, 100, 20),
		drillSession(t, drill.OpSubtraction, 10, 100, 40),
		drillSession(t, drill.OpMultiplication, 10, 100, 44),
	}

	eval := rule(History{DrillSessions: sessions})
	assert.False(t, eval.Earned)
	assert.Equal(t, 75, eval.Progress)

	// Division perfect but too slow still does not count.
	sessions = append(sessions, drillSession(t, drill.OpDivision, 10, 100, 46))
	eval = rule(History{DrillSessions: sessions})
	assert.False(t, eval.Earned)

	sessions = append(sessions, drillSession(t, drill.OpDivision, 10, 100, 45))
	eval = rule(History{DrillSessions: sessions})
	assert.True(t, eval.Earned)
}

func TestSharpEye_RecentWindowOnly(t *testing.T) {
	rule := ruleOf(t, "sharp-eye")

	// Too few sessions: progress tracks history length.
	var sessions []*drill.Session
	for i := 0; i < 5; i++ {
		sessions = append(sessions, drillSession(t, drill.OpAddition, 10, 100, 20))
	}
	eval := rule(History{DrillSessions: sessions})
	assert.False(t, eval.Earned)
	assert.Equal(t, 50, eval.Progress)

	// Ten old sloppy sessions followed by ten sharp ones: only the
	// most recent window counts.
	sessions = nil
	for i := 0; i < 10; i++ {
		sessions = append(sessions, drillSession(t, drill.OpAddition, 5, 50, 20))
	}
	for i := 0; i < 10; i++ {
		sessions = append(sessions, drillSession(t, drill.OpAddition, 10, 95, 20))
	}
	eval = rule(History{DrillSessions: sessions})
	assert.True(t, eval.Earned)
}

func TestFlawlessFive_CountsBackwardFromLatest(t *testing.T) {
	rule := ruleOf(t, "flawless-five")

	sessions := []*drill.Session{
		drillSession(t, drill.OpAddition, 10, 100, 20),
		drillSession(t, drill.OpAddition, 10, 100, 20),
		drillSession(t, drill.OpAddition, 10, 100, 20),
		drillSession(t, drill.OpAddition, 10, 100, 20),
		drillSession(t, drill.OpAddition, 9, 90, 20),
	}

	// The run is broken by the most recent session.
	eval := rule(History{DrillSessions: sessions})
	assert.False(t, eval.Earned)
	assert.Zero(t, eval.Progress)

	for i := 0; i < 5; i++ {
		sessions = append(sessions, drillSession(t, drill.OpAddition, 10, 100, 20))
	}
	eval = rule(History{DrillSessions: sessions})
	assert.True(t, eval.Earned)
}

func TestTimeOfDayBadges_UTCWindows(t *testing.T) {
	earlyBird := ruleOf(t, "early-bird")
	nightOwl := ruleOf(t, "night-owl")

	var completions []progression.CompletedDefi
	for i := 0; i < 5; i++ {
		completions = append(completions, completionAt(
			"fractions", fmt.Sprintf("d%d", i),
			time.Date(2026, 3, 10, 7, 59, 0, 0, time.UTC).AddDate(0, 0, i),
		))
	}

	eval := earlyBird(History{CompletedDefis: completions})
	assert.True(t, eval.Earned)
	eval = nightOwl(History{CompletedDefis: completions})
	assert.False(t, eval.Earned)
	assert.Zero(t, eval.Progress)

	// 08:00 exactly is outside the morning window.
	atCutoff := []progression.CompletedDefi{
		completionAt("fractions", "d", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)),
	}
	eval = earlyBird(History{CompletedDefis: atCutoff})
	assert.Zero(t, eval.Progress)

	// 21:00 exactly is inside the evening window.
	atEvening := []progression.CompletedDefi{
		completionAt("fractions", "d", time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)),
	}
	eval = nightOwl(History{CompletedDefis: atEvening})
	assert.Equal(t, 20, eval.Progress)
}

func TestStreakBadges_UseLongestStreak(t *testing.T) {
	weekOfFire := ruleOf(t, "week-of-fire")

	// A streak that reached 7 and later broke stays earned.
	eval := weekOfFire(History{CurrentStreak: 1, LongestStreak: 9})
	assert.True(t, eval.Earned)

	eval = weekOfFire(History{CurrentStreak: 5, LongestStreak: 5})
	assert.False(t, eval.Earned)
	assert.Equal(t, 71, eval.Progress)
}

func TestGrandArithmetician_RequiresWholeGroup(t *testing.T) {
	rule := ruleOf(t, "grand-arithmetician")

	done := map[shared.ModuleID]bool{
		"addition":       true,
		"subtraction":    true,
		"multiplication": true,
	}
	eval := rule(History{CompletedModules: done})
	assert.False(t, eval.Earned)
	assert.Equal(t, 75, eval.Progress)

	// A completed module outside the group changes nothing.
	done["fractions"] = true
	eval = rule(History{CompletedModules: done})
	assert.False(t, eval.Earned)

	done["division"] = true
	eval = rule(History{CompletedModules: done})
	assert.True(t, eval.Earned)
}

func TestDefaultCatalog_UniqueIDsAndRules(t *testing.T) {
	catalog := DefaultCatalog()

	seen := map[shared.BadgeID]bool{}
	for _, def := range catalog {
		assert.False(t, seen[def.ID], "duplicate badge id %s", def.ID)
		seen[def.ID] = true
		assert.NotNil(t, def.Rule, "badge %s has no rule", def.ID)
		assert.NotEmpty(t, def.Name)
		assert.Positive(t, int(def.XPReward))
	}
}
