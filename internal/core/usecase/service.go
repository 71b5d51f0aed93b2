package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexassist/legal-rag/internal/core/domain"
	"github.com/lexassist/legal-rag/internal/core/ports"
)

const maxQueryLength = 4000

var (
	errEmptyQuery   = errors.New("query is empty")
	errQueryTooLong = errors.New("query exceeds maximum length")
)

// countsTTL bounds how long per-user document counts steer classification.
const countsTTL = 10 * time.Minute

// QueryService orchestrates the full pipeline: classify the query, scale the
// retrieval budgets, fan out to the retrieval planes, fuse, synthesize, and
// optionally append the exchange to a conversation session.
type QueryService struct {
	classifier    *Classifier
	retriever     *Retriever
	synthesizer   *Synthesizer
	stats         ports.PartitionStats
	conversations ports.ConversationStore
	audit         ports.AuditLog
	cache         ports.ResultCache
}

var _ ports.HybridQueryService = (*QueryService)(nil)

func NewQueryService(
	classifier *Classifier,
	retriever *Retriever,
	synthesizer *Synthesizer,
	stats ports.PartitionStats,
	conversations ports.ConversationStore,
	audit ports.AuditLog,
	cache ports.ResultCache,
) *QueryService {
	return &QueryService{
		classifier:    classifier,
		retriever:     retriever,
		synthesizer:   synthesizer,
		stats:         stats,
		conversations: conversations,
		audit:         audit,
		cache:         cache,
	}
}

func (s *QueryService) HybridSearchAndSynthesize(ctx context.Context, userID, query string, budgets domain.Budgets, sessionID string) (*domain.SynthesisResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate query", errEmptyQuery)
	}
	if len(query) > maxQueryLength {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate query", errQueryTooLong)
	}
	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidUserID, "parse user id", err)
		}
	}

	classification := s.classifier.Classify(query, s.userHasDocuments(ctx, userID))
	if userID == "" {
		classification.Strategy = domain.StrategyPublicOnly
	}

	effective := classification.Strategy.Apply(budgets.Clamp())

	personal, publicSemantic, publicGraph, failedSources, err := s.retriever.RetrieveAll(ctx, userID, query, effective)
	if err != nil {
		return nil, err
	}

	fused := s.retriever.CombineContexts(ctx, query, personal, publicSemantic, publicGraph)

	resp, synthErr := s.synthesizer.Synthesize(ctx, query, fused, userID)
	_ = synthErr // fallback responses are complete answers, not errors

	resp.RetrievalMetadata = domain.RetrievalMetadata{
		PersonalFound:       len(personal),
		PublicSemanticFound: len(publicSemantic),
		PublicGraphFound:    len(publicGraph),
		ContextsUsed:        len(fused.Items),
		Strategy:            classification.Strategy,
		FailedSources:       failedSources,
		CompletedAt:         time.Now().UTC(),
	}
	resp.Classification = &classification

	s.recordQueryAudit(ctx, userID, classification.Strategy, len(fused.Items), failedSources)
	s.appendSessionTurns(ctx, userID, sessionID, query, resp.Response)

	return resp, nil
}

func (s *QueryService) ClassifyQuery(ctx context.Context, userID, query string) (domain.Classification, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Classification{}, domain.WrapError(domain.ErrInvalidInput, "validate query", errEmptyQuery)
	}
	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return domain.Classification{}, domain.WrapError(domain.ErrInvalidUserID, "parse user id", err)
		}
	}
	return s.classifier.Classify(query, s.userHasDocuments(ctx, userID)), nil
}

func (s *QueryService) Capabilities(ctx context.Context, userID string) (*domain.Capabilities, error) {
	caps := &domain.Capabilities{
		UserID: userID,
		ProcessingStrategies: []domain.Strategy{
			domain.StrategyPersonalFocused,
			domain.StrategyPublicFocused,
			domain.StrategyPublicOnly,
			domain.StrategyHybridSearch,
			domain.StrategyBalancedSearch,
		},
	}

	if s.stats == nil {
		return caps, nil
	}

	if userID != "" {
		if _, err := uuid.Parse(userID); err != nil {
			return nil, domain.WrapError(domain.ErrInvalidUserID, "parse user id", err)
		}
		info, err := s.stats.PartitionInfo(ctx, userID)
		if err == nil && info != nil {
			caps.PersonalDocuments = *info
		}
	}

	if count, err := s.stats.PublicDocumentCount(ctx); err == nil {
		caps.PublicDocumentCount = count
	}
	return caps, nil
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

var errEmptySessionID = errors.New("session id is empty")

// SessionHistory returns the most recent turns of one of the user's sessions,
// oldest first. Sessions are owned: the lookup is always scoped to the caller,
// so a foreign session id yields an empty history rather than another user's.
func (s *QueryService) SessionHistory(ctx context.Context, userID, sessionID string, limit int) ([]domain.SessionTurn, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidUserID, "parse user id", err)
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "validate session id", errEmptySessionID)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if s.conversations == nil {
		return nil, nil
	}
	turns, err := s.conversations.ListRecentTurns(ctx, userID, sessionID, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list session turns", err)
	}
	return turns, nil
}

// userHasDocuments resolves the classification flag, memoizing per user.
// Lookup failures degrade to false: classification then treats the user as
// public-only, which is the safe direction.
func (s *QueryService) userHasDocuments(ctx context.Context, userID string) bool {
	if userID == "" || s.stats == nil {
		return false
	}

	key := domain.NewCacheKey("doc_count", "", userID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if has, ok := cached.(bool); ok {
				return has
			}
		}
	}

	count, err := s.stats.PersonalDocumentCount(ctx, userID)
	if err != nil {
		return false
	}
	has := count > 0
	if s.cache != nil {
		s.cache.Set(key, has, countsTTL)
	}
	return has
}

func (s *QueryService) recordQueryAudit(ctx context.Context, userID string, strategy domain.Strategy, contextsUsed int, failedSources []string) {
	if s.audit == nil {
		return
	}
	details := map[string]string{
		"strategy":      string(strategy),
		"contexts_used": strconv.Itoa(contextsUsed),
	}
	if len(failedSources) > 0 {
		details["failed_sources"] = strings.Join(failedSources, ",")
	}
	s.audit.Record(ctx, domain.AuditEvent{
		Kind:    domain.AuditQueryExecution,
		UserID:  userID,
		Action:  "hybrid_query",
		Allowed: true,
		Details: details,
		At:      time.Now().UTC(),
	})
}

// appendSessionTurns persists the exchange best-effort; session history is a
// convenience, never a reason to fail the answer.
func (s *QueryService) appendSessionTurns(ctx context.Context, userID, sessionID, query, answer string) {
	if s.conversations == nil || sessionID == "" || userID == "" {
		return
	}
	title := query
	if len(title) > 80 {
		title = title[:80]
	}
	if err := s.conversations.EnsureSession(ctx, userID, sessionID, title); err != nil {
		return
	}
	now := time.Now().UTC()
	_ = s.conversations.AppendTurn(ctx, domain.SessionTurn{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      "user",
		Content:   query,
		CreatedAt: now,
	})
	_ = s.conversations.AppendTurn(ctx, domain.SessionTurn{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Role:      "assistant",
		Content:   answer,
		CreatedAt: now,
	})
}
