package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/storefront-auth/internal/domain"
	"github.com/spec-kit/storefront-auth/pkg/util/errorutil"
)

type countingResolver struct {
	mu    sync.Mutex
	calls int
	users map[string]*domain.Identity
}

func (r *countingResolver) ResolveIdentity(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	identity, ok := r.users[id]
	if !ok {
		return nil, errorutil.ErrIdentityNotFound
	}
	copied := *identity
	return &copied, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]domain.Identity
	failGet error
	failSet error
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]domain.Identity{}}
}

func (c *mapCache) Get(_ context.Context, id string) (*domain.Identity, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return nil, false, c.failGet
	}
	identity, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}
	return &identity, true, nil
}

func (c *mapCache) Set(_ context.Context, identity *domain.Identity, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet != nil {
		return c.failSet
	}
	c.entries[identity.ID] = *identity
	return nil
}

func (c *mapCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

var ada = &domain.Identity{ID: "0b6c8e58-4bb8-4c39-9f8e-7f1c2d3e4a5b", Email: "ada@example.com", Role: domain.RoleAdmin, IsVerified: true}

func TestCachedIdentityResolver_HitAndMiss(t *testing.T) {
	next := &countingResolver{users: map[string]*domain.Identity{ada.ID: ada}}
	cache := newMapCache()
	resolver := NewCachedIdentityResolver(next, cache, time.Minute, nil)
	ctx := context.Background()

	first, err := resolver.ResolveIdentity(ctx, ada.ID)
	require.NoError(t, err)
	second, err := resolver.ResolveIdentity(ctx, ada.ID)
	require.NoError(t, err)

	assert.Equal(t, ada.Email, first.Email)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)

	resolver.Forget(ctx, ada.ID)
	_, err = resolver.ResolveIdentity(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedIdentityResolver_NotFoundIsNotCached(t *testing.T) {
	next := &countingResolver{users: map[string]*domain.Identity{}}
	resolver := NewCachedIdentityResolver(next, newMapCache(), time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := resolver.ResolveIdentity(context.Background(), "missing")
		assert.ErrorIs(t, err, errorutil.ErrIdentityNotFound)
	}
	assert.Equal(t, 2, next.calls)
}

func TestCachedIdentityResolver_CacheFailuresDegrade(t *testing.T) {
	next := &countingResolver{users: map[string]*domain.Identity{ada.ID: ada}}
	cache := newMapCache()
	cache.failGet = errors.New("redis: connection refused")
	cache.failSet = errors.New("redis: connection refused")
	resolver := NewCachedIdentityResolver(next, cache, time.Minute, nil)

	identity, err := resolver.ResolveIdentity(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada.Email, identity.Email)
}

func TestCachedIdentityResolver_ZeroTTLBypasses(t *testing.T) {
	next := &countingResolver{users: map[string]*domain.Identity{ada.ID: ada}}
	cache := newMapCache()
	resolver := NewCachedIdentityResolver(next, cache, 0, nil)

	_, err := resolver.ResolveIdentity(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.Empty(t, cache.entries)
}

func TestRedisIdentityCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisIdentityCache(client)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, ada, time.Minute))
	t.Cleanup(func() { _ = cache.Delete(ctx, ada.ID) })

	got, ok, err := cache.Get(ctx, ada.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ada, got)

	_, ok, err = cache.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}
