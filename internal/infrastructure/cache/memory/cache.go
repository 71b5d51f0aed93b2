package memory

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lexassist/legal-rag/internal/core/domain"
	"github.com/lexassist/legal-rag/internal/core/ports"
)

// Cache is an in-process result cache with per-entry TTLs.
type Cache struct {
	store *gocache.Cache
}

var _ ports.ResultCache = (*Cache)(nil)

func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	return &Cache{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *Cache) Get(key domain.CacheKey) (any, bool) {
	return c.store.Get(key.String())
}

func (c *Cache) Set(key domain.CacheKey, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key.String(), value, ttl)
}
