package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

type auditFake struct {
	events []domain.AuditEvent
}

func (f *auditFake) Record(_ context.Context, event domain.AuditEvent) {
	f.events = append(f.events, event)
}

type cacheFake struct {
	values map[string]any
}

func (f *cacheFake) Get(key domain.CacheKey) (any, bool) {
	v, ok := f.values[key.String()]
	return v, ok
}

func (f *cacheFake) Set(key domain.CacheKey, value any, _ time.Duration) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	f.values[key.String()] = value
}

func TestInstrumentedAuditLogCountsViolationsAndForwards(t *testing.T) {
	m := NewHTTPServerMetrics("test")
	next := &auditFake{}
	log := InstrumentAuditLog(next, m, "test")

	log.Record(context.Background(), domain.AuditEvent{
		Kind:   domain.AuditSecurityViolation,
		Action: "owner_mismatch",
	})
	log.Record(context.Background(), domain.AuditEvent{
		Kind:   domain.AuditPartitionAccess,
		Action: "personal_search",
	})

	if got := testutil.ToFloat64(m.securityViolations.WithLabelValues("test", "owner_mismatch")); got != 1 {
		t.Fatalf("expected 1 owner_mismatch violation, got %v", got)
	}
	if got := testutil.ToFloat64(m.securityViolations.WithLabelValues("test", "personal_search")); got != 0 {
		t.Fatalf("allowed access must not count as a violation, got %v", got)
	}
	if len(next.events) != 2 {
		t.Fatalf("expected both events forwarded, got %d", len(next.events))
	}
}

func TestInstrumentedCacheCountsHitsByOperation(t *testing.T) {
	m := NewHTTPServerMetrics("test")
	cache := InstrumentCache(&cacheFake{}, m, "test")

	key := domain.NewCacheKey("public_semantic", "habeas corpus", "", "k=5")
	if _, ok := cache.Get(key); ok {
		t.Fatalf("expected miss on empty cache")
	}
	cache.Set(key, []domain.ContextItem{{Text: "x"}}, time.Minute)
	if _, ok := cache.Get(key); !ok {
		t.Fatalf("expected hit after set")
	}

	if got := testutil.ToFloat64(m.cacheHitsTotal.WithLabelValues("test", "public_semantic")); got != 1 {
		t.Fatalf("expected 1 hit for public_semantic, got %v", got)
	}
}
