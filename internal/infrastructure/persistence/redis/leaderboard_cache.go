package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/prodigal-hub/engagement-hub/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// Stores fully-computed leaderboard results keyed by scope and time
// filter. Writes that change standings call Invalidate; the short TTL
// covers anything that slips through.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements query.LeaderboardCache on top of Cache.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func leaderboardKey(scope query.LeaderboardScope, filter query.TimeFilter) string {
	return fmt.Sprintf("%s%s:%s", PrefixLeaderboard, scope, filter)
}

// Get returns a cached leaderboard or (nil, nil) on a miss.
func (c *LeaderboardCache) Get(ctx context.Context, scope query.LeaderboardScope, filter query.TimeFilter) (*query.GetLeaderboardResult, error) {
	var result query.GetLeaderboardResult
	err := c.cache.Get(ctx, leaderboardKey(scope, filter), &result)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// Set stores a computed leaderboard under its scope and filter.
func (c *LeaderboardCache) Set(ctx context.Context, result *query.GetLeaderboardResult) error {
	if result == nil {
		return nil
	}
	return c.cache.Set(ctx, leaderboardKey(result.Scope, result.Filter), result, TTLLeaderboardCache)
}

// Invalidate drops every cached leaderboard. Called after any write
// that can change standings: submissions, admin edits, backfills.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.cache.DeleteByPrefix(ctx, PrefixLeaderboard)
}
