package ports

import (
	"context"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

// HybridQueryService is the inbound contract for the segregated hybrid RAG
// pipeline, consumed by the HTTP adapter.
type HybridQueryService interface {
	// HybridSearchAndSynthesize runs the full pipeline: classify, retrieve
	// from all planes, fuse, synthesize. userID may be empty for public-only
	// mode. sessionID, when non-empty, appends the exchange to that session.
	HybridSearchAndSynthesize(ctx context.Context, userID, query string, budgets domain.Budgets, sessionID string) (*domain.SynthesisResponse, error)

	// ClassifyQuery scores intent without running retrieval.
	ClassifyQuery(ctx context.Context, userID, query string) (domain.Classification, error)

	// Capabilities reports the query planes available to a user.
	Capabilities(ctx context.Context, userID string) (*domain.Capabilities, error)

	// SessionHistory returns the most recent turns of one of the user's
	// sessions, oldest first.
	SessionHistory(ctx context.Context, userID, sessionID string, limit int) ([]domain.SessionTurn, error)
}
