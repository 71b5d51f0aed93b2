package metrics

import (
	"context"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
	"github.com/lexassist/legal-rag/internal/core/ports"
)

// InstrumentedAuditLog counts security violations passing through to the
// wrapped log. All events are forwarded unchanged.
type InstrumentedAuditLog struct {
	next    ports.AuditLog
	metrics *HTTPServerMetrics
	service string
}

func InstrumentAuditLog(next ports.AuditLog, m *HTTPServerMetrics, service string) *InstrumentedAuditLog {
	return &InstrumentedAuditLog{next: next, metrics: m, service: service}
}

func (a *InstrumentedAuditLog) Record(ctx context.Context, event domain.AuditEvent) {
	if event.Kind == domain.AuditSecurityViolation {
		a.metrics.RecordSecurityViolation(a.service, event.Action)
	}
	if a.next != nil {
		a.next.Record(ctx, event)
	}
}

// InstrumentedCache counts hits on the wrapped cache by cache class.
type InstrumentedCache struct {
	next    ports.ResultCache
	metrics *HTTPServerMetrics
	service string
}

func InstrumentCache(next ports.ResultCache, m *HTTPServerMetrics, service string) *InstrumentedCache {
	return &InstrumentedCache{next: next, metrics: m, service: service}
}

func (c *InstrumentedCache) Get(key domain.CacheKey) (any, bool) {
	value, ok := c.next.Get(key)
	if ok {
		c.metrics.RecordCacheHit(c.service, key.Operation)
	}
	return value, ok
}

func (c *InstrumentedCache) Set(key domain.CacheKey, value any, ttl time.Duration) {
	c.next.Set(key, value, ttl)
}
