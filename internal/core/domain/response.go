package domain

import "time"

// CitationType classifies a citation marker found in generated text.
type CitationType string

const (
	CitationPersonalDocument        CitationType = "personal_document"
	CitationConstitutionalArticle   CitationType = "constitutional_article"
	CitationConstitutionalProvision CitationType = "constitutional_provision"
	CitationCaseLaw                 CitationType = "case_law"
	CitationLegalAuthority          CitationType = "legal_authority"
)

// ResolvedSource points a citation back at the context item it was grounded on.
type ResolvedSource struct {
	SourceType SourceType `json:"source_type"`
	OriginID   string     `json:"origin_id"`
	Title      string     `json:"title,omitempty"`
	Score      float64    `json:"score,omitempty"`
}

// Citation is one marker extracted from the synthesized answer. Source is nil
// when the marker could not be matched back to any retrieved context;
// resolution is best-effort substring matching, not a guarantee.
type Citation struct {
	Text   string          `json:"text"`
	Type   CitationType    `json:"type"`
	Source *ResolvedSource `json:"source_context"`
}

// ContextSummary reports how the fused context was composed.
type ContextSummary struct {
	TotalContexts       int `json:"total_contexts"`
	PersonalCount       int `json:"personal_count"`
	PublicSemanticCount int `json:"public_semantic_count"`
	PublicGraphCount    int `json:"public_graph_count"`
}

// RetrievalMetadata reports raw per-source counts before fusion.
type RetrievalMetadata struct {
	PersonalFound       int       `json:"personal_contexts_found"`
	PublicSemanticFound int       `json:"public_semantic_contexts_found"`
	PublicGraphFound    int       `json:"public_graph_contexts_found"`
	ContextsUsed        int       `json:"contexts_used_in_response"`
	Strategy            Strategy  `json:"processing_strategy"`
	FailedSources       []string  `json:"failed_sources,omitempty"`
	CompletedAt         time.Time `json:"search_completed_at"`
}

// ModelFallback is the ModelUsed sentinel for deterministic fallback answers.
const ModelFallback = "fallback"

// SynthesisResponse is the final cited answer handed to the caller.
type SynthesisResponse struct {
	Query              string            `json:"query"`
	Response           string            `json:"response"`
	Citations          []Citation        `json:"citations"`
	HasPersonalContext bool              `json:"has_personal_context"`
	HasPublicContext   bool              `json:"has_public_context"`
	ContextSummary     ContextSummary    `json:"context_summary"`
	RetrievalMetadata  RetrievalMetadata `json:"retrieval_metadata"`
	Classification     *Classification   `json:"query_classification,omitempty"`
	GeneratedAt        time.Time         `json:"generated_at"`
	ModelUsed          string            `json:"model_used"`
}

// ChatTurn is one role-tagged message in a conversation exchange.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionTurn is a persisted conversation-history entry.
type SessionTurn struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// PartitionInfo describes a user's personal partition for the capabilities view.
type PartitionInfo struct {
	Exists          bool      `json:"exists"`
	PartitionName   string    `json:"partition_name,omitempty"`
	DocumentCount   int       `json:"document_count"`
	TotalEmbeddings int       `json:"total_embeddings"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	LastAccessed    time.Time `json:"last_accessed,omitzero"`
}

// Capabilities summarises what query planes are available to a user.
type Capabilities struct {
	UserID               string        `json:"user_id"`
	PersonalDocuments    PartitionInfo `json:"personal_documents"`
	PublicDocumentCount  int           `json:"public_document_count"`
	ProcessingStrategies []Strategy    `json:"processing_strategies"`
}
