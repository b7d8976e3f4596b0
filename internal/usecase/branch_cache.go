package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// CachedBranchDirectory serves branch lookups from a Cache and falls back to
// the wrapped directory on a miss. Cache failures degrade to direct lookups.
type CachedBranchDirectory struct {
	next   BranchDirectory
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedBranchDirectory wraps next with cache.
func NewCachedBranchDirectory(next BranchDirectory, cache Cache, ttl time.Duration, logger zerolog.Logger) *CachedBranchDirectory {
	return &CachedBranchDirectory{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func branchCacheKey(id string) string {
	return "branch:" + id
}

// GetBranch returns domain.ErrBranchNotFound for unknown ids. Unknown ids are
// not cached.
func (d *CachedBranchDirectory) GetBranch(ctx context.Context, id string) (*domain.Branch, error) {
	key := branchCacheKey(id)

	raw, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var b domain.Branch
		if jsonErr := json.Unmarshal(raw, &b); jsonErr == nil {
			return &b, nil
		}
		d.logger.Warn().Str("branch_id", id).Msg("discarding corrupt branch cache entry")
	case !errors.Is(err, ErrCacheMiss):
		d.logger.Warn().Err(err).Str("branch_id", id).Msg("branch cache unavailable")
	}

	b, err := d.next.GetBranch(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(b); err == nil {
		if err := d.cache.Set(ctx, key, raw, d.ttl); err != nil {
			d.logger.Warn().Err(err).Str("branch_id", id).Msg("failed to cache branch")
		}
	}
	return b, nil
}

// Invalidate drops a cached branch.
func (d *CachedBranchDirectory) Invalidate(ctx context.Context, id string) error {
	return d.cache.Delete(ctx, branchCacheKey(id))
}
