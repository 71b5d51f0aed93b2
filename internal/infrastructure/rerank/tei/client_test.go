package tei

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScoreRestoresInputOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		var req rerankRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Query != "q" || len(req.Texts) != 3 {
			t.Errorf("request = %+v", req)
		}
		// Sorted by score, as the endpoint responds.
		_, _ = w.Write([]byte(`[{"index":2,"score":0.9},{"index":0,"score":0.5},{"index":1,"score":0.1}]`))
	}))
	defer server.Close()

	c := New(server.URL)
	scores, err := c.Score(context.Background(), "q", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	want := []float64{0.5, 0.1, 0.9}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("scores = %v, want %v", scores, want)
		}
	}
}

func TestScoreEmptyTexts(t *testing.T) {
	c := New("http://unused")
	scores, err := c.Score(context.Background(), "q", nil)
	if err != nil || scores != nil {
		t.Fatalf("empty input should short-circuit, got %v %v", scores, err)
	}
}

func TestScoreBadIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"index":9,"score":0.9}]`))
	}))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.Score(context.Background(), "q", []string{"a"}); err == nil {
		t.Fatalf("expected error for out-of-range index")
	}
}

func TestScoreErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.Score(context.Background(), "q", []string{"a"}); err == nil {
		t.Fatalf("expected error on 503")
	}
}
