package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-crm/core"
	goerrors "github.com/goliatone/go-errors"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

// State is one fixed-window counter for a workspace/endpoint bucket. The
// store decides durability: memory for single-node, SQL for shared state.
type State struct {
	Key         core.RateLimitKey
	WindowStart time.Time
	Count       int
	UpdatedAt   time.Time
}

type StateStore interface {
	Get(ctx context.Context, key core.RateLimitKey) (State, error)
	Upsert(ctx context.Context, state State) error
}

type ThrottledError struct {
	WorkspaceID string
	EndpointID  string
	BucketKey   string
	RetryAfter  time.Duration
}

func (e ThrottledError) Error() string {
	return fmt.Sprintf(
		"ratelimit: workspace %q endpoint %q bucket %q throttled for %s",
		strings.TrimSpace(e.WorkspaceID),
		strings.TrimSpace(e.EndpointID),
		strings.TrimSpace(e.BucketKey),
		e.RetryAfter,
	)
}

func (e ThrottledError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{
		"workspace_id": strings.TrimSpace(e.WorkspaceID),
		"endpoint_id":  strings.TrimSpace(e.EndpointID),
		"bucket_key":   strings.TrimSpace(e.BucketKey),
	}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	return goerrors.New(e.Error(), goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.CRMErrorRateLimited).
		WithMetadata(metadata)
}

// WindowPolicy counts requests inside fixed windows. A request beyond
// MaxRequests within the active window is throttled until the window rolls.
type WindowPolicy struct {
	Store       StateStore
	Window      time.Duration
	MaxRequests int
	Now         func() time.Time
}

func NewWindowPolicy(store StateStore, window time.Duration, maxRequests int) *WindowPolicy {
	if window <= 0 {
		window = time.Minute
	}
	if maxRequests <= 0 {
		maxRequests = 120
	}
	return &WindowPolicy{
		Store:       store,
		Window:      window,
		MaxRequests: maxRequests,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (p *WindowPolicy) Allow(ctx context.Context, key core.RateLimitKey) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key = normalizeKey(key)
	now := p.now()

	state, err := p.Store.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrStateNotFound) {
		return err
	}
	if errors.Is(err, ErrStateNotFound) {
		state = State{Key: key}
	}

	window := p.window()
	if state.WindowStart.IsZero() || !now.Before(state.WindowStart.Add(window)) {
		state.WindowStart = now.Truncate(window)
		state.Count = 0
	}

	if state.Count >= p.maxRequests() {
		retryAfter := state.WindowStart.Add(window).Sub(now)
		if retryAfter <= 0 {
			retryAfter = window
		}
		return ThrottledError{
			WorkspaceID: key.WorkspaceID,
			EndpointID:  key.EndpointID,
			BucketKey:   key.BucketKey,
			RetryAfter:  retryAfter,
		}
	}

	state.Count++
	state.UpdatedAt = now
	return p.Store.Upsert(ctx, state)
}

func (p *WindowPolicy) now() time.Time {
	if p != nil && p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *WindowPolicy) window() time.Duration {
	if p != nil && p.Window > 0 {
		return p.Window
	}
	return time.Minute
}

func (p *WindowPolicy) maxRequests() int {
	if p != nil && p.MaxRequests > 0 {
		return p.MaxRequests
	}
	return 120
}

func normalizeKey(key core.RateLimitKey) core.RateLimitKey {
	return core.RateLimitKey{
		WorkspaceID: strings.TrimSpace(key.WorkspaceID),
		EndpointID:  strings.TrimSpace(key.EndpointID),
		BucketKey:   strings.TrimSpace(strings.ToLower(key.BucketKey)),
	}
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[string]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key core.RateLimitKey) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	normalized := normalizeKey(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[stateKey(normalized)]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	state.Key = normalizeKey(state.Key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[stateKey(state.Key)] = state
	return nil
}

func stateKey(key core.RateLimitKey) string {
	return key.WorkspaceID + "|" + key.EndpointID + "|" + key.BucketKey
}

var _ core.RateLimitPolicy = (*WindowPolicy)(nil)
var _ StateStore = (*MemoryStateStore)(nil)
