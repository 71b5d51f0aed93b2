package milvus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

func TestSearchRequestShape(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/vectordb/entities/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"code":0,"data":[{"distance":0.91,"document_id":"doc-1","text_content":"clause","user_id":"u1","title":"Lease"}]}`))
	}))
	defer server.Close()

	c := New(server.URL, "personal_documents", "secret")
	items, err := c.Search(context.Background(), "user_abc", []float32{0.1, 0.2}, 5, 0, domain.SearchFilter{"user_id": "u1"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if captured["collectionName"] != "personal_documents" {
		t.Fatalf("collectionName = %v", captured["collectionName"])
	}
	partitions, _ := captured["partitionNames"].([]any)
	if len(partitions) != 1 || partitions[0] != "user_abc" {
		t.Fatalf("partitionNames = %v", captured["partitionNames"])
	}
	if captured["filter"] != `user_id == "u1"` {
		t.Fatalf("filter = %v", captured["filter"])
	}
	if captured["limit"] != float64(5) {
		t.Fatalf("limit = %v", captured["limit"])
	}
	if _, ok := captured["offset"]; ok {
		t.Fatalf("zero offset must be omitted")
	}

	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}
	item := items[0]
	if item.OriginID != "doc-1" || item.Text != "clause" || item.OwnerID != "u1" || item.Title != "Lease" {
		t.Fatalf("item = %+v", item)
	}
	if item.RawScore != 0.91 || item.Partition != "user_abc" {
		t.Fatalf("item scoring = %+v", item)
	}
}

func TestSearchPublicOmitsPartition(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"code":0,"data":[]}`))
	}))
	defer server.Close()

	c := New(server.URL, "public_legal_knowledge", "")
	if _, err := c.Search(context.Background(), "", []float32{0.1}, 10, 0, nil); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := captured["partitionNames"]; ok {
		t.Fatalf("public search must not send partitionNames")
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("empty filter must be omitted")
	}
}

func TestSearchErrorStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "public_legal_knowledge", "")
	if _, err := c.Search(context.Background(), "", []float32{0.1}, 5, 0, nil); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestSearchMilvusErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":1100,"message":"collection not loaded"}`))
	}))
	defer server.Close()

	c := New(server.URL, "public_legal_knowledge", "")
	if _, err := c.Search(context.Background(), "", []float32{0.1}, 5, 0, nil); err == nil {
		t.Fatalf("expected error on non-zero code")
	}
}

func TestSearchZeroTopK(t *testing.T) {
	c := New("http://unused", "x", "")
	items, err := c.Search(context.Background(), "", nil, 0, 0, nil)
	if err != nil || items != nil {
		t.Fatalf("zero topK should short-circuit, got %v %v", items, err)
	}
}

func TestBuildFilterExprDeterministic(t *testing.T) {
	filter := domain.SearchFilter{"b": "2", "a": "1"}
	want := `a == "1" and b == "2"`
	for i := 0; i < 5; i++ {
		if got := buildFilterExpr(filter); got != want {
			t.Fatalf("expr = %q, want %q", got, want)
		}
	}
}
