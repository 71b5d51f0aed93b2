package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexassist/legal-rag/internal/config"
	"github.com/lexassist/legal-rag/internal/core/ports"
	"github.com/lexassist/legal-rag/internal/core/usecase"
	auditnats "github.com/lexassist/legal-rag/internal/infrastructure/audit/nats"
	"github.com/lexassist/legal-rag/internal/infrastructure/cache/memory"
	"github.com/lexassist/legal-rag/internal/infrastructure/embedding/ollama"
	"github.com/lexassist/legal-rag/internal/infrastructure/graph/neo4j"
	"github.com/lexassist/legal-rag/internal/infrastructure/llm/groq"
	"github.com/lexassist/legal-rag/internal/infrastructure/partition"
	"github.com/lexassist/legal-rag/internal/infrastructure/rerank/tei"
	"github.com/lexassist/legal-rag/internal/infrastructure/repository/postgres"
	"github.com/lexassist/legal-rag/internal/infrastructure/resilience"
	"github.com/lexassist/legal-rag/internal/infrastructure/vector/milvus"
	"github.com/lexassist/legal-rag/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Service ports.HybridQueryService

	closeFn func(ctx context.Context)
}

// New wires the service graph. serverMetrics may be nil; the audit log and
// result cache are then left uninstrumented.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, serverMetrics *metrics.HTTPServerMetrics) (*App, error) {
	// A missing key would silently serve every query from the deterministic
	// fallback, so it is a startup error rather than a degraded mode.
	if cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("groq api key is required (set GROQ_API_KEY)")
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sessions := postgres.NewSessionRepository(db)
	if err := sessions.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	partitions := postgres.NewPartitionRepository(db)

	graphStore, err := neo4j.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}

	auditPublisher, err := auditnats.NewWithOptions(cfg.NATSURL, cfg.NATSAuditSubject, auditnats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init audit publisher: %w", err)
	}
	var audit ports.AuditLog = auditPublisher

	var cache ports.ResultCache = memory.New(10*time.Minute, 5*time.Minute)

	if serverMetrics != nil {
		audit = metrics.InstrumentAuditLog(audit, serverMetrics, "legal-rag-api")
		cache = metrics.InstrumentCache(cache, serverMetrics, "legal-rag-api")
	}

	embedder := ollama.WithCache(
		ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel),
		cache,
		time.Duration(cfg.EmbedCacheTTLMinutes)*time.Minute,
	)

	var crossEncoder ports.CrossEncoder
	if cfg.RerankerURL != "" {
		crossEncoder = tei.New(cfg.RerankerURL)
	}

	completer := groq.New(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, groq.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})

	guard := partition.NewGuard(logger)
	personalVector := milvus.New(cfg.MilvusURL, cfg.MilvusPersonalCollection, cfg.MilvusToken)
	publicVector := milvus.New(cfg.MilvusURL, cfg.MilvusPublicCollection, cfg.MilvusToken)

	fusion := usecase.FusionConfig{
		PersonalPriority:       cfg.FusionPersonalPriority,
		PublicSemanticPriority: cfg.FusionPublicSemanticPriority,
		PublicGraphPriority:    cfg.FusionPublicGraphPriority,
		RelatedPriority:        cfg.FusionRelatedPriority,
		RawWeight:              cfg.FusionRawWeight,
		CrossEncoderWeight:     cfg.FusionCrossEncoderWeight,
		PriorityWeight:         cfg.FusionPriorityWeight,
		MinPublicScore:         cfg.FusionMinPublicScore,
		MaxContexts:            cfg.FusionMaxContexts,
		DuplicateJaccard:       cfg.FusionDuplicateJaccard,
	}

	retriever := usecase.NewRetriever(
		embedder,
		personalVector,
		publicVector,
		graphStore,
		crossEncoder,
		guard,
		cache,
		audit,
		fusion,
		usecase.RetrieverLimits{
			SourceTimeout: time.Duration(cfg.SourceTimeoutSeconds) * time.Second,
			PublicTTL:     time.Duration(cfg.PublicCacheTTLMinutes) * time.Minute,
			PersonalTTL:   time.Duration(cfg.PersonalCacheTTLMinutes) * time.Minute,
		},
	)
	synthesizer := usecase.NewSynthesizer(completer, cache, usecase.SynthesizerLimits{
		MaxTokens:   cfg.GroqMaxTokens,
		Temperature: cfg.GroqTemperature,
		ResponseTTL: time.Duration(cfg.ResponseCacheTTLMinutes) * time.Minute,
	})

	service := usecase.NewQueryService(
		usecase.NewClassifier(),
		retriever,
		synthesizer,
		partitions,
		sessions,
		audit,
		cache,
	)

	return &App{
		Config:  cfg,
		Service: service,

		closeFn: func(ctx context.Context) {
			auditPublisher.Close()
			if err := graphStore.Close(ctx); err != nil {
				logger.Warn("close neo4j driver", "error", err)
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}
