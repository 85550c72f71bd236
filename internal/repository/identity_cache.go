package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

const identityCachePrefix = "identity:"

// IdentityResolver is the lookup the cache decorates.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, id string) (*domain.Identity, error)
}

// IdentityCache stores resolved identities for a short time.
type IdentityCache interface {
	Get(ctx context.Context, id string) (*domain.Identity, bool, error)
	Set(ctx context.Context, identity *domain.Identity, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// CachedIdentityResolver answers from the cache when it can and fills it on a
// miss. Cache failures fall through to the underlying resolver; a cached
// identity may lag a role or verification change by at most the TTL.
type CachedIdentityResolver struct {
	next   IdentityResolver
	cache  IdentityCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedIdentityResolver wraps next. A non-positive ttl disables caching.
func NewCachedIdentityResolver(next IdentityResolver, cache IdentityCache, ttl time.Duration, logger *zap.Logger) *CachedIdentityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedIdentityResolver{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *CachedIdentityResolver) ResolveIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	if r.ttl <= 0 || r.cache == nil {
		return r.next.ResolveIdentity(ctx, id)
	}

	identity, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		r.logger.Warn("identity cache read failed", zap.String("id", id), zap.Error(err))
	} else if ok {
		return identity, nil
	}

	identity, err = r.next.ResolveIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, identity, r.ttl); err != nil {
		r.logger.Warn("identity cache write failed", zap.String("id", id), zap.Error(err))
	}
	return identity, nil
}

// Forget drops a cached identity, e.g. after the account changed.
func (r *CachedIdentityResolver) Forget(ctx context.Context, id string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, id); err != nil {
		r.logger.Warn("identity cache delete failed", zap.String("id", id), zap.Error(err))
	}
}

type redisIdentityCache struct {
	client redis.UniversalClient
}

// NewRedisIdentityCache stores identities as JSON under identity:<id>.
func NewRedisIdentityCache(client redis.UniversalClient) IdentityCache {
	return &redisIdentityCache{client: client}
}

func (c *redisIdentityCache) Get(ctx context.Context, id string) (*domain.Identity, bool, error) {
	raw, err := c.client.Get(ctx, identityCachePrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false, err
	}
	return &identity, true, nil
}

func (c *redisIdentityCache) Set(ctx context.Context, identity *domain.Identity, ttl time.Duration) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, identityCachePrefix+identity.ID, raw, ttl).Err()
}

func (c *redisIdentityCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, identityCachePrefix+id).Err()
}
