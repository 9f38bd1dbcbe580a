// Package jobs contains the scheduled jobs run by the worker process.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/application/saga"
	"github.com/explo-hub/explo-progression-hub/internal/domain/explorer"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE SWEEP JOB
// ══════════════════════════════════════════════════════════════════════════════

// BadgeSweepJob re-evaluates badge rules for every active explorer.
//
// Most badges are awarded inline, right after the action that earns
// them. Streak badges are the exception: a streak can cross a badge
// threshold purely by the calendar advancing, with no action to hook
// into. The sweep catches those, and also repairs any award that was
// lost to a transient failure on the inline path.
type BadgeSweepJob struct {
	explorerRepo explorer.Repository
	badgeFlow    *saga.BadgeAwardFlow
	logger       *slog.Logger
	config       BadgeSweepConfig
}

// BadgeSweepConfig contains configuration for the badge sweep job.
type BadgeSweepConfig struct {
	// Concurrency is the number of explorers evaluated in parallel.
	Concurrency int

	// ExplorerTimeout bounds the evaluation of a single explorer.
	ExplorerTimeout time.Duration

	// StopOnError stops the sweep on the first failed explorer.
	// When false, failures are logged and the sweep continues.
	StopOnError bool
}

// DefaultBadgeSweepConfig returns default configuration.
func DefaultBadgeSweepConfig() BadgeSweepConfig {
	return BadgeSweepConfig{
		Concurrency:     5,
		ExplorerTimeout: 30 * time.Second,
		StopOnError:     false,
	}
}

// NewBadgeSweepJob creates a new BadgeSweepJob.
func NewBadgeSweepJob(
	explorerRepo explorer.Repository,
	badgeFlow *saga.BadgeAwardFlow,
	logger *slog.Logger,
	config BadgeSweepConfig,
) *BadgeSweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	return &BadgeSweepJob{
		explorerRepo: explorerRepo,
		badgeFlow:    badgeFlow,
		logger:       logger,
		config:       config,
	}
}

// Name returns the job name.
func (j *BadgeSweepJob) Name() string {
	return "badge_sweep"
}

// Description returns the job description.
func (j *BadgeSweepJob) Description() string {
	return "Re-evaluates badge rules for all active explorers"
}

// Run executes the badge sweep.
func (j *BadgeSweepJob) Run(ctx context.Context) error {
	startedAt := time.Now()

	explorers, err := j.explorerRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("badge sweep: failed to list active explorers: %w", err)
	}

	if len(explorers) == 0 {
		j.logger.Info("badge sweep: no active explorers")
		return nil
	}

	j.logger.Info("badge sweep started",
		"explorers", len(explorers),
		"concurrency", j.config.Concurrency,
	)

	var (
		mu       sync.Mutex
		failed   int
		awarded  int
		firstErr error
	)

	sem := make(chan struct{}, j.config.Concurrency)
	var wg sync.WaitGroup

	for _, exp := range explorers {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		mu.Lock()
		stop := j.config.StopOnError && firstErr != nil
		mu.Unlock()
		if stop {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(exp *explorer.Explorer) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := j.evaluateExplorer(ctx, exp)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failed++
				if firstErr == nil {
					firstErr = err
				}
				j.logger.Error("badge sweep: explorer evaluation failed",
					"explorer_id", exp.ID.String(),
					"error", err,
				)
				return
			}

			if n := len(result.NewlyEarned); n > 0 {
				awarded += n
				j.logger.Info("badge sweep: badges awarded",
					"explorer_id", exp.ID.String(),
					"count", n,
				)
			}
		}(exp)
	}

	wg.Wait()

	j.logger.Info("badge sweep completed",
		"explorers", len(explorers),
		"failed", failed,
		"badges_awarded", awarded,
		"duration", time.Since(startedAt).String(),
	)

	if j.config.StopOnError && firstErr != nil {
		return fmt.Errorf("badge sweep: %w", firstErr)
	}
	if failed == len(explorers) && firstErr != nil {
		// Every explorer failing points at a systemic problem, not a
		// per-explorer one.
		return fmt.Errorf("badge sweep: all %d explorers failed: %w", failed, firstErr)
	}

	return nil
}

// evaluateExplorer runs the badge award flow for a single explorer.
func (j *BadgeSweepJob) evaluateExplorer(ctx context.Context, exp *explorer.Explorer) (*saga.BadgeAwardResult, error) {
	evalCtx := ctx
	if j.config.ExplorerTimeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, j.config.ExplorerTimeout)
		defer cancel()
	}

	return j.badgeFlow.Execute(evalCtx, saga.BadgeAwardInput{
		ExplorerID: exp.ID,
		Trigger:    "periodic_sweep",
	})
}
