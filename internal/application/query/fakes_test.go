package query

import (
	"context"
	"sync"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/domain/streak"
)

// In-memory fakes implementing the collaborator contracts the queries
// read from.

type fakeExplorerRepo struct {
	explorers map[shared.ExplorerID]*explorer.Explorer
}

func newFakeExplorerRepo() *fakeExplorerRepo {
	return &fakeExplorerRepo{explorers: map[shared.ExplorerID]*explorer.Explorer{}}
}

func (r *fakeExplorerRepo) add(id shared.ExplorerID, xp shared.XP) {
	exp, err := explorer.New(id, "Test Explorer", "1234", time.Now().UTC())
	if err != nil {
		panic(err)
	}
	exp.XPTotal = xp
	r.explorers[id] = exp
}

func (r *fakeExplorerRepo) Create(_ context.Context, e *explorer.Explorer) error {
	r.explorers[e.ID] = e
	return nil
}

func (r *fakeExplorerRepo) GetByID(_ context.Context, id shared.ExplorerID) (*explorer.Explorer, error) {
	e, ok := r.explorers[id]
	if !ok {
		return nil, shared.ErrExplorerNotFound
	}
	return e, nil
}

func (r *fakeExplorerRepo) Update(_ context.Context, e *explorer.Explorer) error {
	r.explorers[e.ID] = e
	return nil
}

func (r *fakeExplorerRepo) AddXP(_ context.Context, id shared.ExplorerID, delta shared.XP) (shared.XP, error) {
	e, ok := r.explorers[id]
	if !ok {
		return 0, shared.ErrExplorerNotFound
	}
	e.XPTotal = e.XPTotal.Add(delta)
	return e.XPTotal, nil
}

func (r *fakeExplorerRepo) ListByMentor(context.Context, shared.ExplorerID) ([]*explorer.Explorer, error) {
	return nil, nil
}

func (r *fakeExplorerRepo) ListActive(context.Context) ([]*explorer.Explorer, error) {
	return nil, nil
}

// fakeProgressRepo serves the read side only: it holds completion facts
// directly, the shape ListCompleted returns.
type fakeProgressRepo struct {
	completed []progression.CompletedDefi
	awaiting  []*progression.Record
}

func (r *fakeProgressRepo) complete(m shared.ModuleID, d shared.DefiID, xp shared.XP) {
	r.completed = append(r.completed, progression.CompletedDefi{
		ModuleID:    m,
		DefiID:      d,
		XPEarned:    xp,
		CompletedAt: time.Now().UTC(),
	})
}

func (r *fakeProgressRepo) Upsert(_ context.Context, record *progression.Record) (*progression.Record, error) {
	return record, nil
}

func (r *fakeProgressRepo) Get(context.Context, shared.ExplorerID, shared.ModuleID, shared.DefiID) (*progression.Record, error) {
	return nil, shared.ErrRecordNotFound
}

func (r *fakeProgressRepo) ListByExplorer(context.Context, shared.ExplorerID) ([]*progression.Record, error) {
	return nil, nil
}

func (r *fakeProgressRepo) ListByModule(context.Context, shared.ExplorerID, shared.ModuleID) ([]*progression.Record, error) {
	return nil, nil
}

func (r *fakeProgressRepo) ListCompleted(context.Context, shared.ExplorerID) ([]progression.CompletedDefi, error) {
	return append([]progression.CompletedDefi(nil), r.completed...), nil
}

func (r *fakeProgressRepo) ListAwaitingReview(context.Context, shared.ExplorerID) ([]*progression.Record, error) {
	return append([]*progression.Record(nil), r.awaiting...), nil
}

type fakeStreakRepo struct {
	streaks map[shared.ExplorerID]*streak.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: map[shared.ExplorerID]*streak.Streak{}}
}

func (r *fakeStreakRepo) Get(_ context.Context, id shared.ExplorerID) (*streak.Streak, error) {
	if s, ok := r.streaks[id]; ok {
		return s, nil
	}
	return streak.New(id), nil
}

func (r *fakeStreakRepo) Upsert(_ context.Context, s *streak.Streak) error {
	r.streaks[s.ExplorerID] = s
	return nil
}

type fakeDrillRepo struct {
	sessions []*drill.Session
}

func (r *fakeDrillRepo) Append(_ context.Context, s *drill.Session) error {
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeDrillRepo) ListByExplorer(_ context.Context, id shared.ExplorerID) ([]*drill.Session, error) {
	var out []*drill.Session
	for _, s := range r.sessions {
		if s.ExplorerID == id {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeDrillRepo) CountByExplorer(ctx context.Context, id shared.ExplorerID) (int, error) {
	sessions, _ := r.ListByExplorer(ctx, id)
	return len(sessions), nil
}

type fakeGate struct {
	moduleErr error
	drillErr  error
}

func (g *fakeGate) CanAccessModule(context.Context, shared.ExplorerID, shared.ModuleID) error {
	return g.moduleErr
}

func (g *fakeGate) CanAccessDrills(context.Context, shared.ExplorerID) error {
	return g.drillErr
}

type fakeBoardCache struct {
	mu       sync.Mutex
	boards   map[shared.ExplorerID]*ModuleBoard
	setCalls int
}

func newFakeBoardCache() *fakeBoardCache {
	return &fakeBoardCache{boards: map[shared.ExplorerID]*ModuleBoard{}}
}

func (c *fakeBoardCache) Get(_ context.Context, id shared.ExplorerID) (*ModuleBoard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	board, ok := c.boards[id]
	return board, ok
}

func (c *fakeBoardCache) Set(_ context.Context, id shared.ExplorerID, board *ModuleBoard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[id] = board
	c.setCalls++
}

func (c *fakeBoardCache) Invalidate(_ context.Context, id shared.ExplorerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.boards, id)
	return nil
}

// boardCatalog pairs one open module with one entitlement-gated one.
func boardCatalog() (*catalog.Catalog, catalog.DisplayOrder) {
	c := catalog.NewCatalog([]catalog.Module{
		{
			ID:    "fractions",
			Title: "Fractions",
			Defis: []catalog.Defi{
				{ID: "intro", Title: "Intro", XPValue: 10, Kind: catalog.ResponseChoice, CorrectOption: 2, Options: []string{"a", "b", "c"}},
				{ID: "halves", Title: "Halves", XPValue: 20, Kind: catalog.ResponseText, Prerequisites: []shared.DefiID{"intro"}},
			},
		},
		{
			ID:     "decimals",
			Title:  "Decimals",
			Locked: true,
			Defis: []catalog.Defi{
				{ID: "tenths", Title: "Tenths", XPValue: 15, Kind: catalog.ResponseChoice, CorrectOption: 0, Options: []string{"x", "y"}},
				{ID: "hundredths", Title: "Hundredths", XPValue: 25, Kind: catalog.ResponseText, Prerequisites: []shared.DefiID{"tenths"}},
			},
		},
	})
	return c, catalog.NewDisplayOrder([]shared.ModuleID{"fractions", "decimals"})
}
