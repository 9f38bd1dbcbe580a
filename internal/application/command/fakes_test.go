package command

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/application/saga"
	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/domain/streak"
)

// In-memory fakes implementing the domain repository contracts.

type fakeExplorerRepo struct {
	mu        sync.Mutex
	explorers map[shared.ExplorerID]*explorer.Explorer
}

func newFakeExplorerRepo() *fakeExplorerRepo {
	return &fakeExplorerRepo{explorers: map[shared.ExplorerID]*explorer.Explorer{}}
}

func (r *fakeExplorerRepo) Create(_ context.Context, e *explorer.Explorer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.explorers[e.ID]; ok {
		return shared.ErrExplorerAlreadyExists
	}
	r.explorers[e.ID] = e
	return nil
}

func (r *fakeExplorerRepo) GetByID(_ context.Context, id shared.ExplorerID) (*explorer.Explorer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.explorers[id]
	if !ok {
		return nil, shared.ErrExplorerNotFound
	}
	return e, nil
}

func (r *fakeExplorerRepo) Update(_ context.Context, e *explorer.Explorer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.explorers[e.ID] = e
	return nil
}

func (r *fakeExplorerRepo) AddXP(_ context.Context, id shared.ExplorerID, delta shared.XP) (shared.XP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.explorers[id]
	if !ok {
		return 0, shared.ErrExplorerNotFound
	}
	e.XPTotal = e.XPTotal.Add(delta)
	return e.XPTotal, nil
}

func (r *fakeExplorerRepo) ListByMentor(_ context.Context, mentorID shared.ExplorerID) ([]*explorer.Explorer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*explorer.Explorer
	for _, e := range r.explorers {
		if e.IsMentoredBy(mentorID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeExplorerRepo) ListActive(_ context.Context) ([]*explorer.Explorer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*explorer.Explorer
	for _, e := range r.explorers {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeProgressRepo struct {
	mu      sync.Mutex
	records map[string]*progression.Record
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: map[string]*progression.Record{}}
}

func progressKey(e shared.ExplorerID, m shared.ModuleID, d shared.DefiID) string {
	return fmt.Sprintf("%s/%s/%s", e, m, d)
}

func (r *fakeProgressRepo) Upsert(_ context.Context, record *progression.Record) (*progression.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records[progressKey(record.ExplorerID, record.ModuleID, record.DefiID)] = &clone
	return &clone, nil
}

func (r *fakeProgressRepo) Get(_ context.Context, e shared.ExplorerID, m shared.ModuleID, d shared.DefiID) (*progression.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[progressKey(e, m, d)]
	if !ok {
		return nil, shared.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *fakeProgressRepo) ListByExplorer(_ context.Context, e shared.ExplorerID) ([]*progression.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.Record
	for _, record := range r.records {
		if record.ExplorerID == e {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) ListByModule(_ context.Context, e shared.ExplorerID, m shared.ModuleID) ([]*progression.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.Record
	for _, record := range r.records {
		if record.ExplorerID == e && record.ModuleID == m {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeProgressRepo) ListCompleted(_ context.Context, e shared.ExplorerID) ([]progression.CompletedDefi, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []progression.CompletedDefi
	for _, record := range r.records {
		if record.ExplorerID == e && record.IsCompleted() {
			out = append(out, progression.CompletedDefi{
				ModuleID:    record.ModuleID,
				DefiID:      record.DefiID,
				XPEarned:    record.XPEarned,
				CompletedAt: *record.CompletedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (r *fakeProgressRepo) ListAwaitingReview(_ context.Context, _ shared.ExplorerID) ([]*progression.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.Record
	for _, record := range r.records {
		if !record.IsCompleted() && record.Evaluation != "" {
			clone := *record
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeStreakRepo struct {
	mu      sync.Mutex
	streaks map[shared.ExplorerID]*streak.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: map[shared.ExplorerID]*streak.Streak{}}
}

func (r *fakeStreakRepo) Get(_ context.Context, id shared.ExplorerID) (*streak.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.streaks[id]; ok {
		clone := *s
		return &clone, nil
	}
	return streak.New(id), nil
}

func (r *fakeStreakRepo) Upsert(_ context.Context, s *streak.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *s
	r.streaks[s.ExplorerID] = &clone
	return nil
}

type fakeDrillRepo struct {
	mu       sync.Mutex
	sessions []*drill.Session
}

func (r *fakeDrillRepo) Append(_ context.Context, s *drill.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	return nil
}

func (r *fakeDrillRepo) ListByExplorer(_ context.Context, id shared.ExplorerID) ([]*drill.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

type fakeEarnedRepo struct {
	mu     sync.Mutex
	earned map[shared.ExplorerID][]badge.EarnedBadge
	fail   bool
}

func newFakeEarnedRepo() *fakeEarnedRepo {
	return &fakeEarnedRepo{earned: map[shared.ExplorerID][]badge.EarnedBadge{}}
}

func (r *fakeEarnedRepo) Save(_ context.Context, e badge.EarnedBadge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return shared.WrapError("badge", "Save", shared.ErrPersistence, "save failed", nil)
	}
	for _, existing := range r.earned[e.ExplorerID] {
		if existing.BadgeID == e.BadgeID {
			return nil
		}
	}
	r.earned[e.ExplorerID] = append(r.earned[e.ExplorerID], e)
	return nil
}

func (r *fakeEarnedRepo) ListByExplorer(_ context.Context, id shared.ExplorerID) ([]badge.EarnedBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]badge.EarnedBadge(nil), r.earned[id]...), nil
}

func (r *fakeEarnedRepo) EarnedIDs(ctx context.Context, id shared.ExplorerID) ([]shared.BadgeID, error) {
	earned, _ := r.ListByExplorer(ctx, id)
	ids := make([]shared.BadgeID, 0, len(earned))
	for _, e := range earned {
		ids = append(ids, e.BadgeID)
	}
	return ids, nil
}

type fakeDisplayedStore struct {
	mu        sync.Mutex
	displayed map[shared.ExplorerID]map[shared.BadgeID]bool
}

func newFakeDisplayedStore() *fakeDisplayedStore {
	return &fakeDisplayedStore{displayed: map[shared.ExplorerID]map[shared.BadgeID]bool{}}
}

func (s *fakeDisplayedStore) MarkDisplayed(_ context.Context, id shared.ExplorerID, ids []shared.BadgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.displayed[id]
	if !ok {
		set = map[shared.BadgeID]bool{}
		s.displayed[id] = set
	}
	for _, b := range ids {
		set[b] = true
	}
	return nil
}

func (s *fakeDisplayedStore) DisplayedIDs(_ context.Context, id shared.ExplorerID) ([]shared.BadgeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []shared.BadgeID
	for b := range s.displayed[id] {
		out = append(out, b)
	}
	return out, nil
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

type fakeBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *fakeBus) Publish(_ context.Context, event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) typesSeen() []shared.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]shared.EventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventType())
	}
	return out
}

// env bundles a fully wired in-memory fixture.
type env struct {
	modules      *catalog.Catalog
	explorerRepo *fakeExplorerRepo
	progressRepo *fakeProgressRepo
	streakRepo   *fakeStreakRepo
	drillRepo    *fakeDrillRepo
	earnedRepo   *fakeEarnedRepo
	displayed    *fakeDisplayedStore
	gate         *fakeGate
	bus          *fakeBus
	badgeFlow    *saga.BadgeAwardFlow
	logger       *slog.Logger
}

func newEnv(modules *catalog.Catalog) *env {
	e := &env{
		modules:      modules,
		explorerRepo: newFakeExplorerRepo(),
		progressRepo: newFakeProgressRepo(),
		streakRepo:   newFakeStreakRepo(),
		drillRepo:    &fakeDrillRepo{},
		earnedRepo:   newFakeEarnedRepo(),
		displayed:    newFakeDisplayedStore(),
		gate:         &fakeGate{},
		bus:          &fakeBus{},
		logger:       slog.Default(),
	}
	e.badgeFlow = saga.NewBadgeAwardFlow(
		modules,
		badge.NewEngine(badge.DefaultCatalog()),
		e.progressRepo,
		e.drillRepo,
		e.streakRepo,
		e.explorerRepo,
		e.earnedRepo,
		e.displayed,
		e.bus,
		e.logger,
		saga.DefaultBadgeAwardFlowConfig(),
	)
	return e
}

func (e *env) addExplorer(id shared.ExplorerID, mentorID shared.ExplorerID) *explorer.Explorer {
	exp, err := explorer.New(id, "Test Explorer", "1234", time.Now().UTC())
	if err != nil {
		panic(err)
	}
	if mentorID.IsValid() {
		if err := exp.AssignMentor(mentorID, time.Now().UTC()); err != nil {
			panic(err)
		}
	}
	e.explorerRepo.explorers[id] = exp
	return exp
}

// fractionsCatalog is a small two-module catalog used across the tests.
func fractionsCatalog() *catalog.Catalog {
	return catalog.NewCatalog([]catalog.Module{
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
			},
		},
	})
}

func intPtr(v int) *int { return &v }
