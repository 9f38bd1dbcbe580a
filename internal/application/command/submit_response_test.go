package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

func newSubmitHandler(e *env) *SubmitResponseHandler {
	return NewSubmitResponseHandler(
		e.modules, e.explorerRepo, e.progressRepo, e.streakRepo,
		e.gate, e.badgeFlow, e.bus, e.logger)
}

func TestSubmitResponse_CorrectChoiceCompletesImmediately(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)

	result, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:     "exp-1",
		ModuleID:       "fractions",
		DefiID:         "intro",
		SelectedOption: intPtr(2),
	})
	require.NoError(t, err)

	assert.True(t, result.Correct)
	assert.True(t, result.Completed)
	assert.Equal(t, shared.XP(10), result.XPAwarded)
	assert.Equal(t, progression.EvalImmediate, result.Record.Evaluation)
	assert.Equal(t, 1, result.StreakCurrent)
	assert.True(t, result.StreakExtended)

	exp, err := e.explorerRepo.GetByID(context.Background(), "exp-1")
	require.NoError(t, err)
	assert.Equal(t, shared.XP(10), exp.XPTotal)

	// First completion also unlocks the first-steps badge.
	unlocked := make([]shared.BadgeID, 0)
	for _, b := range result.NewlyUnlockedBadges {
		unlocked = append(unlocked, b.ID)
	}
	assert.Contains(t, unlocked, shared.BadgeID("first-steps"))
}

func TestSubmitResponse_IncorrectChoiceLeavesNoTrace(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)

	result, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:     "exp-1",
		ModuleID:       "fractions",
		DefiID:         "intro",
		SelectedOption: intPtr(0),
	})
	require.NoError(t, err)

	assert.False(t, result.Correct)
	assert.Nil(t, result.Record)

	_, err = e.progressRepo.Get(context.Background(), "exp-1", "fractions", "intro")
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	assert.Empty(t, e.bus.typesSeen())
}

func TestSubmitResponse_RepeatCorrectChoiceIsNoOp(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)
	cmd := SubmitResponseCommand{
		ExplorerID:     "exp-1",
		ModuleID:       "fractions",
		DefiID:         "intro",
		SelectedOption: intPtr(2),
	}

	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	result, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, result.Correct)
	assert.False(t, result.Completed)

	// XP granted exactly once.
	exp, _ := e.explorerRepo.GetByID(context.Background(), "exp-1")
	assert.Equal(t, shared.XP(10), exp.XPTotal)
}

func TestSubmitResponse_LockedDefiRejected(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)

	// halves requires intro, which is not completed.
	_, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:   "exp-1",
		ModuleID:     "fractions",
		DefiID:       "halves",
		ResponseText: "one half",
	})
	assert.ErrorIs(t, err, shared.ErrDefiLocked)
}

func TestSubmitResponse_TextSoloCompletesImmediately(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)

	_, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "intro", SelectedOption: intPtr(2),
	})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:   "exp-1",
		ModuleID:     "fractions",
		DefiID:       "halves",
		ResponseText: "a half is one of two equal parts",
	})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.False(t, result.AwaitingReview)
	assert.Equal(t, shared.XP(20), result.XPAwarded)
	assert.True(t, result.ModuleCompleted)
	assert.Contains(t, e.bus.typesSeen(), shared.EventModuleCompleted)
}

func TestSubmitResponse_TextMentoredAwaitsReview(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("mentor-1", "")
	e.addExplorer("exp-1", "mentor-1")
	h := newSubmitHandler(e)

	_, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "intro", SelectedOption: intPtr(2),
	})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:   "exp-1",
		ModuleID:     "fractions",
		DefiID:       "halves",
		ResponseText: "a half is one of two equal parts",
	})
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.True(t, result.AwaitingReview)
	assert.Zero(t, result.XPAwarded)
	assert.Equal(t, progression.EvalSubmitted, result.Record.Evaluation)
	assert.Contains(t, e.bus.typesSeen(), shared.EventDefiSubmitted)

	// Pending review grants no XP beyond the choice defi.
	exp, _ := e.explorerRepo.GetByID(context.Background(), "exp-1")
	assert.Equal(t, shared.XP(10), exp.XPTotal)
}

func TestSubmitResponse_BlankTextRejected(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)

	_, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "intro", SelectedOption: intPtr(2),
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:   "exp-1",
		ModuleID:     "fractions",
		DefiID:       "halves",
		ResponseText: "   ",
	})
	assert.ErrorIs(t, err, shared.ErrEmptyResponse)
}

func TestSubmitResponse_LockedModuleGoesThroughGate(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	e.gate.moduleErr = shared.ErrEntitlementDenied
	h := newSubmitHandler(e)

	_, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:     "exp-1",
		ModuleID:       "decimals",
		DefiID:         "tenths",
		SelectedOption: intPtr(0),
	})
	assert.ErrorIs(t, err, shared.ErrEntitlementDenied)

	// Access granted: the locked module behaves like any other.
	e.gate.moduleErr = nil
	result, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:     "exp-1",
		ModuleID:       "decimals",
		DefiID:         "tenths",
		SelectedOption: intPtr(0),
	})
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestSubmitResponse_UnknownModuleOrDefi(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)

	_, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "geometry", DefiID: "intro", SelectedOption: intPtr(0),
	})
	assert.ErrorIs(t, err, shared.ErrModuleNotFound)

	_, err = h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "nope", SelectedOption: intPtr(0),
	})
	assert.ErrorIs(t, err, shared.ErrDefiNotFound)
}

func TestSubmitResponse_SameDayCompletionsExtendStreakOnce(t *testing.T) {
	e := newEnv(fractionsCatalog())
	e.addExplorer("exp-1", "")
	h := newSubmitHandler(e)

	first, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID: "exp-1", ModuleID: "fractions", DefiID: "intro", SelectedOption: intPtr(2),
	})
	require.NoError(t, err)
	assert.True(t, first.StreakExtended)

	second, err := h.Handle(context.Background(), SubmitResponseCommand{
		ExplorerID:   "exp-1",
		ModuleID:     "fractions",
		DefiID:       "halves",
		ResponseText: "a half",
	})
	require.NoError(t, err)
	assert.False(t, second.StreakExtended)
	assert.Equal(t, 1, second.StreakCurrent)
}
