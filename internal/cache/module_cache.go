package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/PulsaGit/promo_api/pkg/socx"
)

// ModuleCache caches SOCX seller module lists. The reconciler fetches the
// module list on every sync while the set on the platform changes rarely, so
// a short TTL saves one remote round-trip per sync.
type ModuleCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewModuleCache creates a new ModuleCache.
func NewModuleCache(redis *RedisClient, ttl time.Duration) *ModuleCache {
	return &ModuleCache{redis: redis, ttl: ttl}
}

// key scopes entries by platform host so two SOCX instances never share a list.
func (c *ModuleCache) key(baseURL string, sellerID int) string {
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("socx:modules:%s:%d", host, sellerID)
}

// Get returns the cached module list, or nil on miss or decode failure.
func (c *ModuleCache) Get(ctx context.Context, baseURL string, sellerID int) []socx.Module {
	if c == nil || c.redis == nil {
		return nil
	}
	raw, err := c.redis.Get(ctx, c.key(baseURL, sellerID))
	if err != nil {
		return nil
	}
	var modules []socx.Module
	if err := json.Unmarshal([]byte(raw), &modules); err != nil {
		return nil
	}
	return modules
}

// Set stores the module list with the configured TTL. Failures are ignored;
// the cache is an optimization, not a source of truth.
func (c *ModuleCache) Set(ctx context.Context, baseURL string, sellerID int, modules []socx.Module) {
	if c == nil || c.redis == nil || len(modules) == 0 {
		return
	}
	raw, err := json.Marshal(modules)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, c.key(baseURL, sellerID), string(raw), c.ttl)
}

// Invalidate drops the cached list for a seller.
func (c *ModuleCache) Invalidate(ctx context.Context, baseURL string, sellerID int) {
	if c == nil || c.redis == nil {
		return
	}
	_ = c.redis.Delete(ctx, c.key(baseURL, sellerID))
}
