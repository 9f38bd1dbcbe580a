package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

func drillSession(t *testing.T, id string, op drill.Operation, score int, accuracy, seconds float64) *drill.Session {
	t.Helper()
	s, err := drill.NewSession(id, "exp-1", op, drill.DifficultyEasy, score, accuracy, seconds, time.Now().UTC())
	require.NoError(t, err)
	return s
}

func TestGetDrillStats_GateDenialPropagates(t *testing.T) {
	gate := &fakeGate{drillErr: shared.ErrEntitlementDenied}
	h := NewGetDrillStatsHandler(&fakeDrillRepo{}, gate)

	_, err := h.Handle(context.Background(), GetDrillStatsQuery{ExplorerID: "exp-1"})
	assert.ErrorIs(t, err, shared.ErrEntitlementDenied)
}

func TestGetDrillStats_EmptyHistoryHasNoData(t *testing.T) {
	h := NewGetDrillStatsHandler(&fakeDrillRepo{}, &fakeGate{})

	view, err := h.Handle(context.Background(), GetDrillStatsQuery{ExplorerID: "exp-1"})
	require.NoError(t, err)

	assert.False(t, view.Stats.HasData)
	assert.Zero(t, view.Stats.SessionCount)
	assert.Nil(t, view.BestPerOperation)
}

func TestGetDrillStats_ComputesBestsPerOperation(t *testing.T) {
	repo := &fakeDrillRepo{}
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, drillSession(t, "s1", drill.OpAddition, 10, 100, 25)))
	require.NoError(t, repo.Append(ctx, drillSession(t, "s2", drill.OpAddition, 10, 90, 18)))
	require.NoError(t, repo.Append(ctx, drillSession(t, "s3", drill.OpDivision, 7, 70, 40)))

	h := NewGetDrillStatsHandler(repo, &fakeGate{})
	view, err := h.Handle(ctx, GetDrillStatsQuery{ExplorerID: "exp-1"})
	require.NoError(t, err)

	assert.True(t, view.Stats.HasData)
	assert.Equal(t, 3, view.Stats.SessionCount)
	assert.Equal(t, 10, view.Stats.GlobalBest.Score)
	assert.Equal(t, 18.0, view.Stats.GlobalBest.TimeSeconds)
	assert.InDelta(t, 86.666, view.Stats.AvgAccuracy, 0.001)
	assert.Equal(t, 87.0, view.Stats.AvgAccuracyRounded)

	require.Len(t, view.BestPerOperation, 2)
	assert.Equal(t, 18.0, view.BestPerOperation[drill.OpAddition].TimeSeconds)
	assert.Equal(t, 7, view.BestPerOperation[drill.OpDivision].Score)
}
