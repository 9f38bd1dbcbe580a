package query

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

type boardEnv struct {
	explorerRepo *fakeExplorerRepo
	progressRepo *fakeProgressRepo
	streakRepo   *fakeStreakRepo
	gate         *fakeGate
	cache        *fakeBoardCache
	handler      *GetModuleBoardHandler
}

func newBoardEnv() *boardEnv {
	modules, order := boardCatalog()
	e := &boardEnv{
		explorerRepo: newFakeExplorerRepo(),
		progressRepo: &fakeProgressRepo{},
		streakRepo:   newFakeStreakRepo(),
		gate:         &fakeGate{},
		cache:        newFakeBoardCache(),
	}
	e.handler = NewGetModuleBoardHandler(
		modules, order, e.explorerRepo, e.progressRepo, e.streakRepo,
		e.gate, e.cache, slog.Default())
	return e
}

func moduleView(t *testing.T, board *ModuleBoard, id shared.ModuleID) ModuleView {
	t.Helper()
	for _, m := range board.Modules {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("module %s not on board", id)
	return ModuleView{}
}

func defiState(t *testing.T, view ModuleView, id shared.DefiID) catalog.DefiState {
	t.Helper()
	for _, d := range view.Defis {
		if d.ID == id {
			return d.State
		}
	}
	t.Fatalf("defi %s not in module %s", id, view.ID)
	return ""
}

func TestGetModuleBoard_GateAllowedModuleResolvesOpen(t *testing.T) {
	e := newBoardEnv()
	e.explorerRepo.add("exp-1", 10)

	board, err := e.handler.Handle(context.Background(), GetModuleBoardQuery{ExplorerID: "exp-1"})
	require.NoError(t, err)
	require.Len(t, board.Modules, 2)
	assert.False(t, board.GateDegraded)

	decimals := moduleView(t, board, "decimals")
	assert.True(t, decimals.Locked)
	assert.True(t, decimals.Accessible)

	// An entitled explorer can start the gated module: its prerequisite
	// graph resolves exactly as for an open module.
	assert.Equal(t, catalog.DefiUnlocked, defiState(t, decimals, "tenths"))
	assert.Equal(t, catalog.DefiLocked, defiState(t, decimals, "hundredths"))

	fractions := moduleView(t, board, "fractions")
	assert.False(t, fractions.Locked)
	assert.Equal(t, catalog.DefiUnlocked, defiState(t, fractions, "intro"))
}

func TestGetModuleBoard_GateDeniedModuleStaysLocked(t *testing.T) {
	e := newBoardEnv()
	e.explorerRepo.add("exp-1", 0)
	e.gate.moduleErr = shared.ErrEntitlementDenied

	// A completion from before the entitlement lapsed stays visible.
	e.progressRepo.complete("decimals", "tenths", 15)

	board, err := e.handler.Handle(context.Background(), GetModuleBoardQuery{ExplorerID: "exp-1"})
	require.NoError(t, err)
	assert.False(t, board.GateDegraded)

	decimals := moduleView(t, board, "decimals")
	assert.False(t, decimals.Accessible)
	assert.Equal(t, catalog.DefiCompleted, defiState(t, decimals, "tenths"))
	assert.Equal(t, catalog.DefiLocked, defiState(t, decimals, "hundredths"))
	assert.Equal(t, 1, decimals.CompletedCount)
	assert.Equal(t, shared.XP(15), decimals.EarnedXP)

	// A denial is a real verdict, so the board is cacheable.
	assert.Equal(t, 1, e.cache.setCalls)
}

func TestGetModuleBoard_GateUnavailableDegradesAndSkipsCache(t *testing.T) {
	e := newBoardEnv()
	e.explorerRepo.add("exp-1", 0)
	e.gate.moduleErr = shared.ErrEntitlementUnavailable

	board, err := e.handler.Handle(context.Background(), GetModuleBoardQuery{ExplorerID: "exp-1"})
	require.NoError(t, err)

	assert.True(t, board.GateDegraded)
	decimals := moduleView(t, board, "decimals")
	assert.False(t, decimals.Accessible)
	assert.Equal(t, catalog.DefiLocked, defiState(t, decimals, "tenths"))

	// Placeholder verdicts must not be served from cache later.
	assert.Zero(t, e.cache.setCalls)
}

func TestGetModuleBoard_CacheHitShortCircuits(t *testing.T) {
	e := newBoardEnv()
	cached := &ModuleBoard{ExplorerID: "exp-1", XPTotal: 99}
	e.cache.boards["exp-1"] = cached

	// The explorer is absent from the repo: a cache miss would fail.
	board, err := e.handler.Handle(context.Background(), GetModuleBoardQuery{ExplorerID: "exp-1"})
	require.NoError(t, err)
	assert.Same(t, cached, board)
}

func TestGetModuleBoard_RequiresExplorerID(t *testing.T) {
	e := newBoardEnv()
	_, err := e.handler.Handle(context.Background(), GetModuleBoardQuery{})
	assert.Error(t, err)
}

func TestGetModuleBoard_StreakAndXPOnBoard(t *testing.T) {
	e := newBoardEnv()
	e.explorerRepo.add("exp-1", 30)
	st, _ := e.streakRepo.Get(context.Background(), "exp-1")
	st.RecordActivity(shared.DayOf(time.Now().UTC()))
	require.NoError(t, e.streakRepo.Upsert(context.Background(), st))

	board, err := e.handler.Handle(context.Background(), GetModuleBoardQuery{ExplorerID: "exp-1"})
	require.NoError(t, err)

	assert.Equal(t, shared.XP(30), board.XPTotal)
	assert.Equal(t, 1, board.Streak)
}
