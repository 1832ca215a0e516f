package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ikkim/reviewfunnel-backend/internal/app/model"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "tenant:config:"

// cachedTenant keeps BusinessID, which TenantConfig hides from JSON
type cachedTenant struct {
	BusinessID uint               `json:"business_id"`
	Config     model.TenantConfig `json:"config"`
}

// CachedProvider puts a Redis read-through cache in front of another provider.
// Cache failures are logged and the inner provider answers instead.
type CachedProvider struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
}

func NewCachedProvider(inner Provider, client *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, client: client, ttl: ttl}
}

func (p *CachedProvider) Lookup(ctx context.Context, slug string) (*model.TenantConfig, error) {
	key := cacheKeyPrefix + slug

	raw, err := p.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedTenant
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			cfg := cached.Config
			cfg.BusinessID = cached.BusinessID
			return &cfg, nil
		}
		logger.Warn("Discarding unreadable tenant cache entry", map[string]interface{}{
			"slug": slug,
		})
	case !errors.Is(err, redis.Nil):
		logger.Warn("Tenant cache read failed", map[string]interface{}{
			"slug":  slug,
			"error": err.Error(),
		})
	}

	cfg, err := p.inner.Lookup(ctx, slug)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedTenant{BusinessID: cfg.BusinessID, Config: *cfg})
	if err == nil {
		if setErr := p.client.Set(ctx, key, payload, p.ttl).Err(); setErr != nil {
			logger.Warn("Tenant cache write failed", map[string]interface{}{
				"slug":  slug,
				"error": setErr.Error(),
			})
		}
	}
	return cfg, nil
}

// Invalidate drops the cached entry for slug
func (p *CachedProvider) Invalidate(ctx context.Context, slug string) error {
	return p.client.Del(ctx, cacheKeyPrefix+slug).Err()
}
