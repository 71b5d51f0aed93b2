package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
	"github.com/lexassist/legal-rag/internal/core/ports"
)

// Embedder produces query embeddings via the Ollama embed endpoint.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Embedder {
	return &Embedder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.model,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.postJSON(ctx, "/api/embed", request, &response); err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embeddings[0], nil
}

func (e *Embedder) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if trimmed := strings.TrimSpace(string(msg)); trimmed != "" {
			return fmt.Errorf("ollama embed status: %s: %s", resp.Status, trimmed)
		}
		return fmt.Errorf("ollama embed status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode embed response: %w", err)
	}
	return nil
}

// CachingEmbedder memoizes query embeddings. Embeddings are deterministic for
// a fixed model, so a long TTL is safe.
type CachingEmbedder struct {
	inner ports.Embedder
	cache ports.ResultCache
	ttl   time.Duration
}

func WithCache(inner ports.Embedder, cache ports.ResultCache, ttl time.Duration) *CachingEmbedder {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachingEmbedder{inner: inner, cache: cache, ttl: ttl}
}

func (c *CachingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := domain.NewCacheKey("embedding", text, "")
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if vector, ok := cached.([]float32); ok {
				return vector, nil
			}
		}
	}

	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Set(key, vector, c.ttl)
	}
	return vector, nil
}
