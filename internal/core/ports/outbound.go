package ports

import (
	"context"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

// Embedder turns query text into a fixed-dimension vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher performs similarity search over one logical collection.
// partition scopes the search for the personal collection; it is empty for
// the shared public collection.
type VectorSearcher interface {
	Search(ctx context.Context, partition string, queryVector []float32, topK, offset int, filter domain.SearchFilter) ([]domain.ContextItem, error)
}

// GraphStore looks up legal entities and their relationships.
type GraphStore interface {
	QueryEntities(ctx context.Context, nameFilter string, limit int) ([]domain.GraphEntity, error)
	QueryRelationships(ctx context.Context, sourceID string, limit int) ([]domain.GraphRelationship, error)
}

// CrossEncoder scores (query, text) pairs jointly for re-ranking.
type CrossEncoder interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// ChatCompleter generates the final answer text.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []domain.ChatTurn, maxTokens int, temperature float64) (string, error)
	Model() string
}

// PartitionGuard derives and validates per-user partition names.
type PartitionGuard interface {
	NameFor(userID string) (string, error)
	ValidateAccess(ctx context.Context, userID, partition string) bool
}

// ResultCache is advisory, non-blocking memoization. Concurrent identical
// misses may both compute; last write wins.
type ResultCache interface {
	Get(key domain.CacheKey) (any, bool)
	Set(key domain.CacheKey, value any, ttl time.Duration)
}

// AuditLog records security events. Implementations must be best-effort and
// must never block or fail the query path.
type AuditLog interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// ConversationStore persists query/response turns for a chat session.
type ConversationStore interface {
	EnsureSession(ctx context.Context, userID, sessionID, title string) error
	AppendTurn(ctx context.Context, turn domain.SessionTurn) error
	ListRecentTurns(ctx context.Context, userID, sessionID string, limit int) ([]domain.SessionTurn, error)
}

// PartitionStats reads partition bookkeeping maintained by the ingestion
// pipeline (which lives outside this service).
type PartitionStats interface {
	PersonalDocumentCount(ctx context.Context, userID string) (int, error)
	PartitionInfo(ctx context.Context, userID string) (*domain.PartitionInfo, error)
	PublicDocumentCount(ctx context.Context) (int, error)
}
