package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

// Client talks to the Milvus REST v2 search endpoint for one collection.
// Construct one client per collection; the personal and public collections
// must never share a client so a wiring mistake cannot cross them.
type Client struct {
	baseURL    string
	collection string
	token      string
	httpClient *http.Client
}

func New(baseURL, collection, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type searchHit struct {
	Distance     float64 `json:"distance"`
	DocumentID   string  `json:"document_id"`
	ChunkID      string  `json:"chunk_id"`
	TextContent  string  `json:"text_content"`
	UserID       string  `json:"user_id"`
	Title        string  `json:"title"`
	DocumentType string  `json:"document_type"`
	LegalDomain  string  `json:"legal_domain"`
}

type searchResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    []searchHit `json:"data"`
}

// Search runs a similarity search. partition is empty for collections that
// are not partitioned per user. filter keys become equality clauses in the
// Milvus filter expression.
func (c *Client) Search(ctx context.Context, partition string, queryVector []float32, topK, offset int, filter domain.SearchFilter) ([]domain.ContextItem, error) {
	if topK <= 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"collectionName": c.collection,
		"data":           [][]float32{queryVector},
		"annsField":      "embedding",
		"limit":          topK,
		"outputFields": []string{
			"document_id", "chunk_id", "text_content", "user_id",
			"title", "document_type", "legal_domain",
		},
	}
	if offset > 0 {
		reqBody["offset"] = offset
	}
	if partition != "" {
		reqBody["partitionNames"] = []string{partition}
	}
	if expr := buildFilterExpr(filter); expr != "" {
		reqBody["filter"] = expr
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := c.baseURL + "/v2/vectordb/entities/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("milvus search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("milvus search status: %s", resp.Status)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if searchResp.Code != 0 {
		return nil, fmt.Errorf("milvus search code %d: %s", searchResp.Code, searchResp.Message)
	}

	out := make([]domain.ContextItem, 0, len(searchResp.Data))
	for _, hit := range searchResp.Data {
		out = append(out, domain.ContextItem{
			Text:      hit.TextContent,
			OriginID:  hit.DocumentID,
			Title:     hit.Title,
			OwnerID:   hit.UserID,
			Partition: partition,
			RawScore:  hit.Distance,
		})
	}
	return out, nil
}

// buildFilterExpr renders the filter as a Milvus boolean expression.
// Keys are sorted so the expression is stable for caching and tests.
func buildFilterExpr(filter domain.SearchFilter) string {
	if len(filter) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, fmt.Sprintf("%s == %q", k, filter[k]))
	}
	return strings.Join(clauses, " and ")
}
