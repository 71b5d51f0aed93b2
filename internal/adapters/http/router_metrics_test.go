package httpadapter

import (
	"net/http"
	"testing"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

type metricsFake struct {
	queryOutcome   string
	queryStrategy  string
	contextsUsed   int
	mixPersonal    int
	mixSemantic    int
	mixGraph       int
	mixRecorded    bool
	failedSources  []string
	fallbackCalled bool
}

func (m *metricsFake) Middleware(_ string, next http.Handler) http.Handler { return next }

func (m *metricsFake) RecordQuery(_, outcome, strategy string, contextsUsed int, _ time.Duration) {
	m.queryOutcome = outcome
	m.queryStrategy = strategy
	m.contextsUsed = contextsUsed
}

func (m *metricsFake) RecordContextMix(_ string, personal, publicSemantic, publicGraph int) {
	m.mixRecorded = true
	m.mixPersonal = personal
	m.mixSemantic = publicSemantic
	m.mixGraph = publicGraph
}

func (m *metricsFake) RecordSourceFailure(_, source string) {
	m.failedSources = append(m.failedSources, source)
}

func (m *metricsFake) RecordFallback(_ string) { m.fallbackCalled = true }

func TestHybridQueryRecordsContextMix(t *testing.T) {
	svc := &serviceFake{resp: &domain.SynthesisResponse{
		Query:    "habeas corpus",
		Response: "answer",
		ContextSummary: domain.ContextSummary{
			TotalContexts:       6,
			PersonalCount:       3,
			PublicSemanticCount: 2,
			PublicGraphCount:    1,
		},
		RetrievalMetadata: domain.RetrievalMetadata{
			ContextsUsed:  6,
			Strategy:      domain.StrategyHybridSearch,
			FailedSources: []string{"public_graph"},
		},
		ModelUsed: domain.ModelFallback,
	}}
	rec := &metricsFake{}
	handler := NewRouter(testConfig(), svc, rec).Handler()

	res := postJSON(t, handler, "/v1/query/hybrid", map[string]any{"query": "habeas corpus"}, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	if rec.queryOutcome != "ok" || rec.contextsUsed != 6 {
		t.Fatalf("unexpected query record: outcome=%q contexts=%d", rec.queryOutcome, rec.contextsUsed)
	}
	if !rec.mixRecorded {
		t.Fatalf("context mix was not recorded")
	}
	if rec.mixPersonal != 3 || rec.mixSemantic != 2 || rec.mixGraph != 1 {
		t.Fatalf("unexpected context mix: %d %d %d", rec.mixPersonal, rec.mixSemantic, rec.mixGraph)
	}
	if len(rec.failedSources) != 1 || rec.failedSources[0] != "public_graph" {
		t.Fatalf("unexpected failed sources: %v", rec.failedSources)
	}
	if !rec.fallbackCalled {
		t.Fatalf("fallback answer was not counted")
	}
}
