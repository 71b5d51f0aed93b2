package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

func TestEmbedQuery(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	e := New(server.URL, "nomic-embed-text")
	vector, err := e.EmbedQuery(context.Background(), "article 21")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("vector = %v", vector)
	}
	if captured["model"] != "nomic-embed-text" {
		t.Fatalf("model = %v", captured["model"])
	}
}

func TestEmbedQueryIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	e := New(server.URL, "missing")
	_, err := e.EmbedQuery(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestEmbedQueryEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer server.Close()

	e := New(server.URL, "m")
	if _, err := e.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatalf("expected error on empty embeddings")
	}
}

type cacheStub struct {
	entries map[string]any
	sets    int
}

func (c *cacheStub) Get(key domain.CacheKey) (any, bool) {
	v, ok := c.entries[key.String()]
	return v, ok
}

func (c *cacheStub) Set(key domain.CacheKey, value any, _ time.Duration) {
	c.sets++
	c.entries[key.String()] = value
}

type embedderStub struct {
	calls int
}

func (e *embedderStub) EmbedQuery(context.Context, string) ([]float32, error) {
	e.calls++
	return []float32{0.5}, nil
}

func TestCachingEmbedder(t *testing.T) {
	inner := &embedderStub{}
	cache := &cacheStub{entries: make(map[string]any)}
	e := WithCache(inner, cache, time.Minute)

	for i := 0; i < 3; i++ {
		vector, err := e.EmbedQuery(context.Background(), "same query")
		if err != nil || len(vector) != 1 {
			t.Fatalf("EmbedQuery() = %v, %v", vector, err)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner called %d times, want 1", inner.calls)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}
}
