package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-crm/core"
	"github.com/goliatone/go-crm/ratelimit"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type stubRateLimitStateStore struct {
	mu          sync.Mutex
	state       ratelimit.State
	getCalls    int
	upsertCalls int
	getErr      error
}

func (s *stubRateLimitStateStore) Get(_ context.Context, _ core.RateLimitKey) (ratelimit.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return ratelimit.State{}, s.getErr
	}
	return s.state, nil
}

func (s *stubRateLimitStateStore) Upsert(_ context.Context, state ratelimit.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	s.state = state
	return nil
}

func TestCachedRateLimitStateStore_GetMissFetchesThenHits(t *testing.T) {
	cacheService := newTestRateLimitCacheService(t)
	key := core.RateLimitKey{WorkspaceID: "ws_cache_1", EndpointID: "ep_cache_1", BucketKey: "inbound"}
	base := &stubRateLimitStateStore{
		state: ratelimit.State{
			Key:         key,
			WindowStart: time.Now().UTC().Truncate(time.Minute),
			Count:       3,
			UpdatedAt:   time.Now().UTC(),
		},
	}

	store, err := NewCachedRateLimitStateStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached state store: %v", err)
	}

	if _, err := store.Get(context.Background(), key); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected first get to fetch base store once, got %d", base.getCalls)
	}

	state, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected second get to be a cache hit, base get calls=%d", base.getCalls)
	}
	if state.Count != 3 {
		t.Fatalf("expected cached count=3, got %d", state.Count)
	}
}

func TestCachedRateLimitStateStore_UpsertInvalidatesCachedKey(t *testing.T) {
	cacheService := newTestRateLimitCacheService(t)
	key := core.RateLimitKey{WorkspaceID: "ws_cache_2", EndpointID: "ep_cache_2", BucketKey: "inbound"}
	base := &stubRateLimitStateStore{
		state: ratelimit.State{
			Key:         key,
			WindowStart: time.Now().UTC().Truncate(time.Minute),
			Count:       1,
			UpdatedAt:   time.Now().UTC(),
		},
	}

	store, err := NewCachedRateLimitStateStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached state store: %v", err)
	}

	if _, err := store.Get(context.Background(), key); err != nil {
		t.Fatalf("prime cache with get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected one base read after cache prime, got %d", base.getCalls)
	}

	if err := store.Upsert(context.Background(), ratelimit.State{
		Key:         key,
		WindowStart: time.Now().UTC().Truncate(time.Minute),
		Count:       7,
		UpdatedAt:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("upsert through cached store: %v", err)
	}
	if base.upsertCalls != 1 {
		t.Fatalf("expected base upsert call count=1, got %d", base.upsertCalls)
	}

	state, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get after upsert invalidation: %v", err)
	}
	if base.getCalls != 2 {
		t.Fatalf("expected invalidated key to force a second base read, got %d", base.getCalls)
	}
	if state.Count != 7 {
		t.Fatalf("expected refreshed count=7, got %d", state.Count)
	}
}

func TestRateLimitStateCacheKey_Contract(t *testing.T) {
	key, err := RateLimitStateCacheKey(core.RateLimitKey{
		WorkspaceID: " ws/alpha team ",
		EndpointID:  "ep_1",
		BucketKey:   " INBOUND:V1 ",
	})
	if err != nil {
		t.Fatalf("build cache key: %v", err)
	}

	const expected = "go-crm::ratelimit_state::v1::ws%2Falpha%20team::ep_1::inbound:v1"
	if key != expected {
		t.Fatalf("unexpected cache key contract: got %q want %q", key, expected)
	}

	if _, err := RateLimitStateCacheKey(core.RateLimitKey{BucketKey: "inbound"}); err == nil {
		t.Fatalf("expected missing workspace and endpoint ids to be rejected")
	}
}

func TestCachedRateLimitStateStore_PropagatesBaseErrors(t *testing.T) {
	cacheService := newTestRateLimitCacheService(t)
	base := &stubRateLimitStateStore{getErr: ratelimit.ErrStateNotFound}
	store, err := NewCachedRateLimitStateStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached state store: %v", err)
	}

	_, err = store.Get(context.Background(), core.RateLimitKey{
		WorkspaceID: "ws_cache_404",
		EndpointID:  "ep_cache_404",
		BucketKey:   "inbound",
	})
	if !errors.Is(err, ratelimit.ErrStateNotFound) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}

func newTestRateLimitCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
