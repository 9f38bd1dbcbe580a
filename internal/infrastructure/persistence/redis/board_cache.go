// Package redis implements Redis-backed infrastructure for the
// progression hub.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/explo-hub/explo-progression-hub/internal/application/query"
	"github.com/explo-hub/explo-progression-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MODULE BOARD CACHE
// Lossy by contract. Every failure degrades to a miss so a Redis
// outage costs recomputes, never requests.
// ══════════════════════════════════════════════════════════════════════════════

// BoardCache implements query.ModuleBoardCache on Redis.
type BoardCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewBoardCache creates a new BoardCache. A non-positive ttl falls
// back to TTLBoardCache.
func NewBoardCache(cache *Cache, ttl time.Duration, logger *slog.Logger) *BoardCache {
	if ttl <= 0 {
		ttl = TTLBoardCache
	}
	return &BoardCache{cache: cache, ttl: ttl, logger: logger}
}

// Get returns the cached board for an explorer, if any.
func (c *BoardCache) Get(ctx context.Context, explorerID shared.ExplorerID) (*query.ModuleBoard, bool) {
	var board query.ModuleBoard
	err := c.cache.Get(ctx, BoardKey(explorerID.String()), &board)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("board cache read failed",
				slog.String("explorer_id", explorerID.String()),
				slog.String("error", err.Error()))
		}
		return nil, false
	}
	return &board, true
}

// Set stores an assembled board.
func (c *BoardCache) Set(ctx context.Context, explorerID shared.ExplorerID, board *query.ModuleBoard) {
	if err := c.cache.Set(ctx, BoardKey(explorerID.String()), board, c.ttl); err != nil {
		c.logger.Warn("board cache write failed",
			slog.String("explorer_id", explorerID.String()),
			slog.String("error", err.Error()))
	}
}

// Invalidate drops the cached board after a progress change.
func (c *BoardCache) Invalidate(ctx context.Context, explorerID shared.ExplorerID) error {
	return c.cache.Delete(ctx, BoardKey(explorerID.String()))
}

var _ query.ModuleBoardCache = (*BoardCache)(nil)
