package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lexassist/legal-rag/internal/core/domain"
	"github.com/lexassist/legal-rag/internal/core/ports"
)

const (
	sourcePersonal       = "personal"
	sourcePublicSemantic = "public_semantic"
	sourcePublicGraph    = "public_graph"
)

// graphEntityFanout caps how many extracted entities are looked up per query.
const graphEntityFanout = 5

// relatedScore is the fixed raw score assigned to one-hop graph neighbours.
const relatedScore = 0.8

// RetrieverLimits bounds retrieval work per query.
type RetrieverLimits struct {
	SourceTimeout time.Duration
	PublicTTL     time.Duration
	PersonalTTL   time.Duration
}

// Retriever queries the three retrieval planes and fuses the results.
// Personal and public vector search run against separate searchers so a bug
// in one plane can never read the other's collection.
type Retriever struct {
	embedder       ports.Embedder
	personalVector ports.VectorSearcher
	publicVector   ports.VectorSearcher
	graph          ports.GraphStore
	crossEncoder   ports.CrossEncoder
	guard          ports.PartitionGuard
	cache          ports.ResultCache
	audit          ports.AuditLog
	fusion         FusionConfig
	limits         RetrieverLimits
}

func NewRetriever(
	embedder ports.Embedder,
	personalVector ports.VectorSearcher,
	publicVector ports.VectorSearcher,
	graph ports.GraphStore,
	crossEncoder ports.CrossEncoder,
	guard ports.PartitionGuard,
	cache ports.ResultCache,
	audit ports.AuditLog,
	fusion FusionConfig,
	limits RetrieverLimits,
) *Retriever {
	if limits.SourceTimeout <= 0 {
		limits.SourceTimeout = 8 * time.Second
	}
	if limits.PublicTTL <= 0 {
		limits.PublicTTL = 20 * time.Minute
	}
	if limits.PersonalTTL <= 0 {
		limits.PersonalTTL = 5 * time.Minute
	}
	return &Retriever{
		embedder:       embedder,
		personalVector: personalVector,
		publicVector:   publicVector,
		graph:          graph,
		crossEncoder:   crossEncoder,
		guard:          guard,
		cache:          cache,
		audit:          audit,
		fusion:         fusion.normalize(),
		limits:         limits,
	}
}

// QueryPersonal searches the caller's private partition. A malformed user id
// is a request error; an access denial is recorded and answered with empty
// results so callers cannot probe other users' partitions. Caller filters are
// merged into the search but can never override the owner scoping.
func (r *Retriever) QueryPersonal(ctx context.Context, userID, query string, topK, offset int, filters domain.SearchFilter) ([]domain.ContextItem, error) {
	if topK <= 0 {
		return nil, nil
	}

	partition, err := r.guard.NameFor(userID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidUserID, "derive partition", err)
	}

	if !r.guard.ValidateAccess(ctx, userID, partition) {
		r.recordAudit(ctx, domain.AuditEvent{
			Kind:      domain.AuditSecurityViolation,
			UserID:    userID,
			Partition: partition,
			Action:    "personal_search",
			Allowed:   false,
			At:        time.Now().UTC(),
		})
		return nil, nil
	}
	r.recordAudit(ctx, domain.AuditEvent{
		Kind:      domain.AuditPartitionAccess,
		UserID:    userID,
		Partition: partition,
		Action:    "personal_search",
		Allowed:   true,
		At:        time.Now().UTC(),
	})

	key := domain.NewCacheKey("personal_search", query, userID,
		fmt.Sprintf("k=%d", topK), fmt.Sprintf("o=%d", offset), filterParams(filters))
	if cached, ok := r.cacheGet(key); ok {
		if items, ok := cached.([]domain.ContextItem); ok {
			return items, nil
		}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "embed query", err)
	}

	scoped := domain.SearchFilter{"user_id": userID}
	for k, v := range filters {
		if k == "user_id" {
			continue
		}
		scoped[k] = v
	}

	hits, err := r.personalVector.Search(ctx, partition, vector, topK, offset, scoped)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "personal vector search", err)
	}

	items := make([]domain.ContextItem, 0, len(hits))
	for _, hit := range hits {
		// Defence in depth: the filter already scopes by owner, but a result
		// claiming another owner is dropped and reported, never returned.
		if hit.OwnerID != "" && hit.OwnerID != userID {
			r.recordAudit(ctx, domain.AuditEvent{
				Kind:      domain.AuditSecurityViolation,
				UserID:    userID,
				Partition: partition,
				Action:    "owner_mismatch",
				Allowed:   false,
				Details:   map[string]string{"origin_id": hit.OriginID, "owner_id": hit.OwnerID},
				At:        time.Now().UTC(),
			})
			continue
		}
		hit.SourceType = domain.SourcePersonal
		hit.OwnerID = userID
		hit.Partition = partition
		items = append(items, hit)
	}

	r.cacheSet(key, items, r.limits.PersonalTTL)
	return items, nil
}

// QueryPublicSemantic searches the shared public collection. Results carry no
// user scoping and are cached across users.
func (r *Retriever) QueryPublicSemantic(ctx context.Context, query string, topK, offset int, filters domain.SearchFilter) ([]domain.ContextItem, error) {
	if topK <= 0 {
		return nil, nil
	}

	key := domain.NewCacheKey("public_semantic", query, "",
		fmt.Sprintf("k=%d", topK), fmt.Sprintf("o=%d", offset), filterParams(filters))
	if cached, ok := r.cacheGet(key); ok {
		if items, ok := cached.([]domain.ContextItem); ok {
			return items, nil
		}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "embed query", err)
	}

	hits, err := r.publicVector.Search(ctx, "", vector, topK, offset, filters)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "public vector search", err)
	}

	items := make([]domain.ContextItem, 0, len(hits))
	for _, hit := range hits {
		hit.SourceType = domain.SourcePublicSemantic
		hit.OwnerID = ""
		hit.Partition = ""
		items = append(items, hit)
	}

	r.cacheSet(key, items, r.limits.PublicTTL)
	return items, nil
}

// QueryPublicGraph looks up the given legal entities in the knowledge graph
// and expands one hop of relationships per matched entity. Callers extract
// entities from the query once (ExtractLegalEntities) and pass them in;
// results are deduplicated by entity id across lookups.
func (r *Retriever) QueryPublicGraph(ctx context.Context, entities []string, query string, limit int) ([]domain.ContextItem, error) {
	if limit <= 0 || len(entities) == 0 {
		return nil, nil
	}
	if len(entities) > graphEntityFanout {
		entities = entities[:graphEntityFanout]
	}

	key := domain.NewCacheKey("public_graph", strings.Join(entities, "\n"), "", fmt.Sprintf("l=%d", limit))
	if cached, ok := r.cacheGet(key); ok {
		if items, ok := cached.([]domain.ContextItem); ok {
			return items, nil
		}
	}

	seen := make(map[string]struct{})
	var items []domain.ContextItem
	for _, name := range entities {
		if len(items) >= limit {
			break
		}
		matches, err := r.graph.QueryEntities(ctx, name, limit-len(items))
		if err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, "graph entity lookup", err)
		}
		for _, entity := range matches {
			if len(items) >= limit {
				break
			}
			if _, ok := seen[entity.ID]; ok {
				continue
			}
			seen[entity.ID] = struct{}{}
			items = append(items, domain.ContextItem{
				Text:       FormatEntityText(entity),
				SourceType: domain.SourcePublicGraph,
				OriginID:   entity.ID,
				Title:      entity.Name,
				RawScore:   1.0,
			})

			related, err := r.graph.QueryRelationships(ctx, entity.ID, 3)
			if err != nil {
				// Relationship expansion is enrichment; a failed hop does not
				// fail the lookup that produced the primary entity.
				continue
			}
			for _, rel := range related {
				if len(items) >= limit {
					break
				}
				if _, ok := seen[rel.Target.ID]; ok {
					continue
				}
				seen[rel.Target.ID] = struct{}{}
				items = append(items, domain.ContextItem{
					Text:         FormatEntityText(rel.Target),
					SourceType:   domain.SourcePublicGraphRelated,
					OriginID:     rel.Target.ID,
					Title:        rel.Target.Name,
					Relationship: rel.Type,
					RawScore:     relatedScore,
				})
			}
		}
	}

	r.cacheSet(key, items, r.limits.PublicTTL)
	return items, nil
}

type sourceResult struct {
	source string
	items  []domain.ContextItem
	err    error
}

// RetrieveAll fans out to the three planes concurrently. A failing plane
// degrades to empty results and is reported in failedSources; retrieval only
// errors as a whole on a request-level problem such as a malformed user id.
func (r *Retriever) RetrieveAll(ctx context.Context, userID, query string, budgets domain.Budgets) (personal, publicSemantic, publicGraph []domain.ContextItem, failedSources []string, err error) {
	results := make(chan sourceResult, 3)
	var wg sync.WaitGroup

	run := func(source string, fn func(context.Context) ([]domain.ContextItem, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, r.limits.SourceTimeout)
			defer cancel()
			items, err := fn(sctx)
			results <- sourceResult{source: source, items: items, err: err}
		}()
	}

	entities := ExtractLegalEntities(query)

	run(sourcePersonal, func(sctx context.Context) ([]domain.ContextItem, error) {
		if userID == "" || budgets.PersonalTopK <= 0 {
			return nil, nil
		}
		return r.QueryPersonal(sctx, userID, query, budgets.PersonalTopK, 0, nil)
	})
	run(sourcePublicSemantic, func(sctx context.Context) ([]domain.ContextItem, error) {
		return r.QueryPublicSemantic(sctx, query, budgets.PublicSemanticTopK, 0, nil)
	})
	run(sourcePublicGraph, func(sctx context.Context) ([]domain.ContextItem, error) {
		return r.QueryPublicGraph(sctx, entities, query, budgets.PublicGraphLimit)
	})

	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			if domain.IsKind(res.err, domain.ErrInvalidUserID) {
				return nil, nil, nil, nil, res.err
			}
			failedSources = append(failedSources, res.source)
			continue
		}
		switch res.source {
		case sourcePersonal:
			personal = res.items
		case sourcePublicSemantic:
			publicSemantic = res.items
		case sourcePublicGraph:
			publicGraph = res.items
		}
	}
	return personal, publicSemantic, publicGraph, failedSources, nil
}

// CombineContexts merges the per-source results into a bounded, ordered
// context set: priority assignment, near-duplicate removal, cross-encoder
// re-ranking when available, then the relevance floor and cap.
func (r *Retriever) CombineContexts(ctx context.Context, query string, personal, publicSemantic, publicGraph []domain.ContextItem) domain.FusedContext {
	all := make([]domain.ContextItem, 0, len(personal)+len(publicSemantic)+len(publicGraph))
	all = append(all, personal...)
	all = append(all, publicSemantic...)
	all = append(all, publicGraph...)
	for i := range all {
		all[i].SourcePriority = r.fusion.priorityFor(all[i].SourceType)
	}

	all = dedupeContexts(r.fusion, all)
	all = r.rerank(ctx, query, all)
	all = filterAndCap(r.fusion, all)

	fused := domain.FusedContext{Query: query, Items: all}
	fused.Recount()
	return fused
}

// rerank scores contexts with the cross encoder and combines raw similarity,
// cross-encoder score and source priority into one ranking score. Without a
// cross encoder (or when scoring fails) ordering falls back to priority then
// raw score, with the raw score standing in as the combined score so the
// relevance floor still applies.
func (r *Retriever) rerank(ctx context.Context, query string, items []domain.ContextItem) []domain.ContextItem {
	if len(items) == 0 {
		return items
	}

	if r.crossEncoder == nil {
		return r.rerankFallback(items)
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	scores, err := r.crossEncoder.Score(ctx, query, texts)
	if err != nil || len(scores) != len(items) {
		return r.rerankFallback(items)
	}

	cfg := r.fusion
	for i := range items {
		items[i].CrossEncoderScore = scores[i]
		items[i].CombinedScore = cfg.RawWeight*items[i].RawScore +
			cfg.CrossEncoderWeight*scores[i] +
			cfg.PriorityWeight*items[i].SourcePriority
	}
	sortByCombinedScore(items)
	return items
}

func (r *Retriever) rerankFallback(items []domain.ContextItem) []domain.ContextItem {
	for i := range items {
		items[i].CombinedScore = items[i].RawScore
	}
	sortByPriorityScore(items)
	return items
}

func (r *Retriever) recordAudit(ctx context.Context, event domain.AuditEvent) {
	if r.audit == nil {
		return
	}
	r.audit.Record(ctx, event)
}

func (r *Retriever) cacheGet(key domain.CacheKey) (any, bool) {
	if r.cache == nil {
		return nil, false
	}
	return r.cache.Get(key)
}

func (r *Retriever) cacheSet(key domain.CacheKey, value any, ttl time.Duration) {
	if r.cache == nil {
		return
	}
	r.cache.Set(key, value, ttl)
}

// filterParams renders a filter map as a deterministic cache-key fragment.
func filterParams(filters domain.SearchFilter) string {
	if len(filters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(filters[k])
	}
	return b.String()
}
