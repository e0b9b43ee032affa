package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/ratelimit"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const rateLimitStateCacheKeyPrefix = "go-crm::ratelimit_state::v1"

// CachedRateLimitStateStore fronts a shared state store with a cache so hot
// buckets do not hit the database on every inbound request. Upserts write
// through and invalidate, keeping counters coherent across nodes.
type CachedRateLimitStateStore struct {
	base  ratelimit.StateStore
	cache repositorycache.CacheService
}

func NewCachedRateLimitStateStore(
	base ratelimit.StateStore,
	cacheService repositorycache.CacheService,
) (*CachedRateLimitStateStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base rate-limit state store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: rate-limit cache service is required")
	}
	return &CachedRateLimitStateStore{base: base, cache: cacheService}, nil
}

// RateLimitStateCacheKey returns the deterministic cache key for one bucket's
// window state: go-crm::ratelimit_state::v1::<workspace>::<endpoint>::<bucket>
// with each segment URL-path escaped.
func RateLimitStateCacheKey(key core.RateLimitKey) (string, error) {
	workspaceID := strings.TrimSpace(key.WorkspaceID)
	endpointID := strings.TrimSpace(key.EndpointID)
	bucketKey := strings.TrimSpace(strings.ToLower(key.BucketKey))
	if workspaceID == "" || endpointID == "" {
		return "", fmt.Errorf("sqlstore: workspace id and endpoint id are required")
	}
	segments := []string{workspaceID, endpointID, bucketKey}
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(append([]string{rateLimitStateCacheKeyPrefix}, segments...), "::"), nil
}

func (s *CachedRateLimitStateStore) Get(ctx context.Context, key core.RateLimitKey) (ratelimit.State, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return ratelimit.State{}, fmt.Errorf("sqlstore: cached rate-limit state store is not configured")
	}
	cacheKey, err := RateLimitStateCacheKey(key)
	if err != nil {
		return ratelimit.State{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (ratelimit.State, error) {
		return s.base.Get(ctx, key)
	})
}

func (s *CachedRateLimitStateStore) Upsert(ctx context.Context, state ratelimit.State) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached rate-limit state store is not configured")
	}
	if err := s.base.Upsert(ctx, state); err != nil {
		return err
	}
	cacheKey, err := RateLimitStateCacheKey(state.Key)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ ratelimit.StateStore = (*CachedRateLimitStateStore)(nil)
