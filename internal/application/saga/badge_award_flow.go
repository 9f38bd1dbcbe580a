// Package saga contains multi-step business processes that orchestrate
// several domain operations in a coordinated manner.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/domain/badge"
	"github.com/explo-hub/explo-progression-hub/internal/domain/catalog"
	"github.com/explo-hub/explo-progression-hub/internal/domain/drill"
	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
	"github.com/explo-hub/explo-progression-hub/internal/domain/progression"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
	"github.com/explo-hub/explo-progression-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE AWARD FLOW
// Flow: Load History → Load Earned/Displayed Sets → Run Rule Engine →
//
//	Persist Newly Earned → Award XP Rewards → Publish Events
//
// The flow is safe to re-run at any time: earned persistence is an
// idempotent upsert and the engine is a pure fold, so a crash between
// steps loses nothing that the next run will not recompute.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeAwardInput identifies whose badges to re-evaluate.
type BadgeAwardInput struct {
	// ExplorerID is the explorer to evaluate.
	ExplorerID shared.ExplorerID

	// Trigger names what prompted this run (e.g. "defi_completed").
	Trigger string
}

// Validate checks the input.
func (i BadgeAwardInput) Validate() error {
	if !i.ExplorerID.IsValid() {
		return errors.New("badge_award_flow: explorer ID is required")
	}
	return nil
}

// BadgeAwardResult is the outcome of one evaluation run.
type BadgeAwardResult struct {
	ExplorerID shared.ExplorerID

	// Badges is the full catalog annotated with earned/progress.
	Badges []badge.Status

	// NewlyEarned were persisted to the durable store during this run.
	NewlyEarned []badge.Definition

	// NewlyUnlocked await one-time celebratory presentation. Marking
	// them displayed is the caller's explicit follow-up action, never
	// a side effect of this flow.
	NewlyUnlocked []badge.Definition

	// TotalXPReward is the XP granted for newly earned badges.
	TotalXPReward int

	ProcessedAt time.Time
}

// HasNewlyUnlocked reports whether a celebration is pending.
func (r *BadgeAwardResult) HasNewlyUnlocked() bool {
	return len(r.NewlyUnlocked) > 0
}

// BadgeAwardStep names a step for error reporting.
type BadgeAwardStep string

const (
	StepLoadHistory   BadgeAwardStep = "load_history"
	StepLoadSets      BadgeAwardStep = "load_sets"
	StepEvaluate      BadgeAwardStep = "evaluate"
	StepPersistEarned BadgeAwardStep = "persist_earned"
	StepAwardXP       BadgeAwardStep = "award_xp"
	StepPublishEvents BadgeAwardStep = "publish_events"
)

// BadgeAwardFlowConfig configures the flow.
type BadgeAwardFlowConfig struct {
	EnableXPRewards bool

	// MaxAwardsPerRun caps newly persisted badges per run to contain
	// the blast radius of a catalog bug.
	MaxAwardsPerRun int
}

// DefaultBadgeAwardFlowConfig returns default configuration.
func DefaultBadgeAwardFlowConfig() BadgeAwardFlowConfig {
	return BadgeAwardFlowConfig{
		EnableXPRewards: true,
		MaxAwardsPerRun: 10,
	}
}

// BadgeAwardFlow orchestrates badge evaluation and persistence.
type BadgeAwardFlow struct {
	modules        *catalog.Catalog
	engine         *badge.Engine
	progressRepo   progression.Repository
	drillRepo      drill.Repository
	streakRepo     streak.Repository
	explorerRepo   explorer.Repository
	earnedRepo     badge.EarnedRepository
	displayedStore badge.DisplayedStore
	eventBus       shared.EventPublisher
	logger         *slog.Logger

	enableXPRewards bool
	maxAwardsPerRun int
}

// NewBadgeAwardFlow creates the flow with all dependencies.
func NewBadgeAwardFlow(
	modules *catalog.Catalog,
	engine *badge.Engine,
	progressRepo progression.Repository,
	drillRepo drill.Repository,
	streakRepo streak.Repository,
	explorerRepo explorer.Repository,
	earnedRepo badge.EarnedRepository,
	displayedStore badge.DisplayedStore,
	eventBus shared.EventPublisher,
	logger *slog.Logger,
	config BadgeAwardFlowConfig,
) *BadgeAwardFlow {
	if config.MaxAwardsPerRun == 0 {
		config = DefaultBadgeAwardFlowConfig()
	}

	return &BadgeAwardFlow{
		modules:         modules,
		engine:          engine,
		progressRepo:    progressRepo,
		drillRepo:       drillRepo,
		streakRepo:      streakRepo,
		explorerRepo:    explorerRepo,
		earnedRepo:      earnedRepo,
		displayedStore:  displayedStore,
		eventBus:        eventBus,
		logger:          logger,
		enableXPRewards: config.EnableXPRewards,
		maxAwardsPerRun: config.MaxAwardsPerRun,
	}
}

// Execute runs one full evaluation for the explorer.
func (f *BadgeAwardFlow) Execute(ctx context.Context, input BadgeAwardInput) (*BadgeAwardResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	history, err := f.loadHistory(ctx, input.ExplorerID)
	if err != nil {
		return nil, f.stepError(StepLoadHistory, input.ExplorerID, err)
	}

	earned, displayed, err := f.loadSets(ctx, input.ExplorerID)
	if err != nil {
		return nil, f.stepError(StepLoadSets, input.ExplorerID, err)
	}

	evaluation := f.engine.Evaluate(history, earned, displayed)

	newlyEarned := evaluation.NewlyEarned
	if len(newlyEarned) > f.maxAwardsPerRun {
		f.logger.Warn("badge award cap hit",
			slog.String("explorer_id", input.ExplorerID.String()),
			slog.Int("newly_earned", len(newlyEarned)),
			slog.Int("cap", f.maxAwardsPerRun))
		newlyEarned = newlyEarned[:f.maxAwardsPerRun]
	}

	// Persistence failures must surface: a badge that evaluated as
	// earned but could not be stored is a retryable error, never a
	// silent "not earned".
	now := time.Now().UTC()
	for _, def := range newlyEarned {
		err := f.earnedRepo.Save(ctx, badge.EarnedBadge{
			ExplorerID: input.ExplorerID,
			BadgeID:    def.ID,
			EarnedAt:   now,
		})
		if err != nil {
			return nil, f.stepError(StepPersistEarned, input.ExplorerID, err)
		}
	}

	totalXP := f.awardXP(ctx, input.ExplorerID, newlyEarned)
	f.publishEvents(ctx, input.ExplorerID, newlyEarned)

	return &BadgeAwardResult{
		ExplorerID:    input.ExplorerID,
		Badges:        evaluation.Badges,
		NewlyEarned:   newlyEarned,
		NewlyUnlocked: evaluation.NewlyUnlocked,
		TotalXPReward: totalXP,
		ProcessedAt:   now,
	}, nil
}

// loadHistory assembles the immutable snapshot the rule engine reads.
func (f *BadgeAwardFlow) loadHistory(ctx context.Context, explorerID shared.ExplorerID) (badge.History, error) {
	completed, err := f.progressRepo.ListCompleted(ctx, explorerID)
	if err != nil {
		return badge.History{}, fmt.Errorf("load completions: %w", err)
	}

	sessions, err := f.drillRepo.ListByExplorer(ctx, explorerID)
	if err != nil {
		return badge.History{}, fmt.Errorf("load drill sessions: %w", err)
	}

	st, err := f.streakRepo.Get(ctx, explorerID)
	if err != nil {
		return badge.History{}, fmt.Errorf("load streak: %w", err)
	}

	byModule := make(map[shared.ModuleID]catalog.CompletedSet)
	for id, set := range progression.CompletedSetsByModule(completed) {
		byModule[id] = catalog.CompletedSet(set)
	}
	resolutions := catalog.ResolveAll(f.modules, byModule)
	completedModules := catalog.CompletedModuleIDs(resolutions)

	return badge.History{
		CompletedDefis:   completed,
		CompletedModules: completedModules,
		DrillSessions:    sessions,
		CurrentStreak:    st.Current,
		LongestStreak:    st.Longest,
	}, nil
}

func (f *BadgeAwardFlow) loadSets(ctx context.Context, explorerID shared.ExplorerID) (badge.IDSet, badge.IDSet, error) {
	earnedIDs, err := f.earnedRepo.EarnedIDs(ctx, explorerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load earned set: %w", err)
	}

	// The displayed store may be lossy or unavailable; treating it as
	// empty only re-shows a celebration, it cannot corrupt "earned".
	displayedIDs, err := f.displayedStore.DisplayedIDs(ctx, explorerID)
	if err != nil {
		f.logger.Warn("displayed store unavailable, celebrations may repeat",
			slog.String("explorer_id", explorerID.String()),
			slog.String("error", err.Error()))
		displayedIDs = nil
	}

	return badge.NewIDSet(earnedIDs), badge.NewIDSet(displayedIDs), nil
}

// awardXP grants badge XP rewards. Non-critical: a failed grant is
// logged and skipped, the earned badge itself is already durable.
func (f *BadgeAwardFlow) awardXP(ctx context.Context, explorerID shared.ExplorerID, defs []badge.Definition) int {
	if !f.enableXPRewards {
		return 0
	}

	total := 0
	for _, def := range defs {
		if def.XPReward <= 0 {
			continue
		}
		if _, err := f.explorerRepo.AddXP(ctx, explorerID, def.XPReward); err != nil {
			f.logger.Error("badge XP reward failed",
				slog.String("explorer_id", explorerID.String()),
				slog.String("badge_id", def.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		total += def.XPReward.Int()
	}
	return total
}

// publishEvents emits one event per newly earned badge. Non-critical.
func (f *BadgeAwardFlow) publishEvents(ctx context.Context, explorerID shared.ExplorerID, defs []badge.Definition) {
	if f.eventBus == nil {
		return
	}
	for _, def := range defs {
		event := shared.NewBadgeEarnedEvent(explorerID, def.ID, def.XPReward.Int())
		if err := f.eventBus.Publish(ctx, event); err != nil {
			f.logger.Warn("badge event publish failed",
				slog.String("badge_id", def.ID.String()),
				slog.String("error", err.Error()))
		}
	}
}

func (f *BadgeAwardFlow) stepError(step BadgeAwardStep, explorerID shared.ExplorerID, err error) error {
	return &BadgeAwardError{
		Step:       step,
		ExplorerID: explorerID,
		Cause:      err,
	}
}

// BadgeAwardError reports which step of the flow failed.
type BadgeAwardError struct {
	Step       BadgeAwardStep
	ExplorerID shared.ExplorerID
	Cause      error
}

// Error implements the error interface.
func (e *BadgeAwardError) Error() string {
	return fmt.Sprintf("badge award flow failed at step '%s' for explorer %s: %v", e.Step, e.ExplorerID, e.Cause)
}

// Unwrap returns the underlying error.
func (e *BadgeAwardError) Unwrap() error {
	return e.Cause
}
