package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-crm/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const statsCacheKeyPrefix = "go-crm::endpoint_stats::v1"

// CachedStatsStore serves endpoint stats reads from cache. Writes pass
// through and invalidate so dashboards see fresh counters on the next read.
type CachedStatsStore struct {
	base  *StatsStore
	cache repositorycache.CacheService
}

func NewCachedStatsStore(base *StatsStore, cacheService repositorycache.CacheService) (*CachedStatsStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base stats store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: stats cache service is required")
	}
	return &CachedStatsStore{base: base, cache: cacheService}, nil
}

// StatsCacheKey returns the deterministic cache key for one endpoint's stats
// row: go-crm::endpoint_stats::v1::<endpoint_id> with the id URL-path escaped.
func StatsCacheKey(endpointID string) (string, error) {
	endpointID = strings.TrimSpace(endpointID)
	if endpointID == "" {
		return "", fmt.Errorf("sqlstore: endpoint id is required")
	}
	return statsCacheKeyPrefix + "::" + url.PathEscape(endpointID), nil
}

func (s *CachedStatsStore) Get(ctx context.Context, endpointID string) (core.EndpointStats, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.EndpointStats{}, fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	cacheKey, err := StatsCacheKey(endpointID)
	if err != nil {
		return core.EndpointStats{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.EndpointStats, error) {
		return s.base.Get(ctx, endpointID)
	})
}

func (s *CachedStatsStore) MonthlyLeadCount(
	ctx context.Context,
	workspaceID string,
	periodStart time.Time,
	periodEnd time.Time,
) (int64, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	// Quota checks read the live count; caching here would let a burst
	// overshoot the plan limit.
	return s.base.MonthlyLeadCount(ctx, workspaceID, periodStart, periodEnd)
}

func (s *CachedStatsStore) Bump(ctx context.Context, workspaceID string, endpointID string, delta core.StatsDelta) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	if err := s.base.Bump(ctx, workspaceID, endpointID, delta); err != nil {
		return err
	}
	return s.invalidate(ctx, endpointID)
}

func (s *CachedStatsStore) invalidate(ctx context.Context, endpointID string) error {
	cacheKey, err := StatsCacheKey(endpointID)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var (
	_ core.StatsStore  = (*CachedStatsStore)(nil)
	_ core.StatsWriter = (*CachedStatsStore)(nil)
)
