package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

func newDrillHandler(e *env) *RecordDrillHandler {
	return NewRecordDrillHandler(
		e.drillRepo, e.streakRepo, e.gate, e.badgeFlow, e.bus, e.logger)
}

func TestRecordDrill_AppendsAndComputesStats(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newDrillHandler(e)

	result, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID:  "exp-1",
		Operation:   drill.OpAddition,
		Difficulty:  drill.DifficultyEasy,
		Score:       8,
		Accuracy:    80,
		TimeSeconds: 42,
	})
	require.NoError(t, err)

	assert.True(t, result.Stats.HasData)
	assert.Equal(t, 1, result.Stats.SessionCount)
	assert.True(t, result.NewGlobalBest)
	assert.True(t, result.StreakExtended)
	assert.Contains(t, e.bus.typesSeen(), shared.EventDrillFinished)

	count, err := e.drillRepo.CountByExplorer(context.Background(), "exp-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordDrill_NewBestOnlyWhenRecordBeaten(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newDrillHandler(e)

	_, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 10, Accuracy: 100, TimeSeconds: 25,
	})
	require.NoError(t, err)

	// Faster but lower score is not a new record.
	second, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 8, Accuracy: 80, TimeSeconds: 10,
	})
	require.NoError(t, err)
	assert.False(t, second.NewGlobalBest)

	// Same score, faster time is.
	third, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 10, Accuracy: 100, TimeSeconds: 18,
	})
	require.NoError(t, err)
	assert.True(t, third.NewGlobalBest)
	assert.Equal(t, 18.0, third.Stats.GlobalBest.TimeSeconds)
}

func TestRecordDrill_GateDenied(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	e.gate.drillErr = shared.ErrEntitlementDenied
	h := newDrillHandler(e)

	_, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 8, Accuracy: 80, TimeSeconds: 42,
	})
	assert.ErrorIs(t, err, shared.ErrEntitlementDenied)

	count, _ := e.drillRepo.CountByExplorer(context.Background(), "exp-1")
	assert.Zero(t, count)
}

func TestRecordDrill_InvalidScoreRejected(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newDrillHandler(e)

	_, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 11, Accuracy: 100, TimeSeconds: 20,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidScore)
}

func TestRecordDrill_PerfectFastDrillEarnsQuickDraw(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newDrillHandler(e)

	result, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpMultiplication, Difficulty: drill.DifficultyHard,
		Score: 10, Accuracy: 100, TimeSeconds: 28,
	})
	require.NoError(t, err)

	unlocked := make([]shared.BadgeID, 0)
	for _, b := range result.NewlyUnlockedBadges {
		unlocked = append(unlocked, b.ID)
	}
	assert.Contains(t, unlocked, shared.BadgeID("quick-draw"))
	assert.Contains(t, e.bus.typesSeen(), shared.EventBadgeEarned)
}

func TestRecordDrill_BadgePersistFailurePropagates(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	e.earnedRepo.fail = true
	h := newDrillHandler(e)

	// A perfect fast drill earns quick-draw; the award must not be
	// silently dropped when persistence fails.
	_, err := h.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 10, Accuracy: 100, TimeSeconds: 20,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrPersistence)
}

func TestMarkBadgesDisplayed_StopsRecelebration(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	drillHandler := newDrillHandler(e)

	first, err := drillHandler.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 10, Accuracy: 100, TimeSeconds: 20,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.NewlyUnlockedBadges)

	ids := make([]shared.BadgeID, 0, len(first.NewlyUnlockedBadges))
	for _, b := range first.NewlyUnlockedBadges {
		ids = append(ids, b.ID)
	}

	markHandler := NewMarkBadgesDisplayedHandler(
		badge.DefaultCatalog(), e.displayed, e.logger)
	_, err = markHandler.Handle(context.Background(), MarkBadgesDisplayedCommand{
		ExplorerID: "exp-1",
		BadgeIDs:   ids,
	})
	require.NoError(t, err)

	// A later drill with no new badges celebrates nothing.
	second, err := drillHandler.Handle(context.Background(), RecordDrillCommand{
		ExplorerID: "exp-1", Operation: drill.OpAddition, Difficulty: drill.DifficultyEasy,
		Score: 5, Accuracy: 50, TimeSeconds: 40,
	})
	require.NoError(t, err)
	assert.Empty(t, second.NewlyUnlockedBadges)
}

func TestMarkBadgesDisplayed_UnknownBadgeRejected(t *testing.T) {
	e := newEnv(fractionsCatalog())
	h := NewMarkBadgesDisplayedHandler(badge.DefaultCatalog(), e.displayed, e.logger)

	_, err := h.Handle(context.Background(), MarkBadgesDisplayedCommand{
		ExplorerID: "exp-1",
		BadgeIDs:   []shared.BadgeID{"made-up-badge"},
	})
	assert.ErrorIs(t, err, shared.ErrBadgeNotFound)
}
