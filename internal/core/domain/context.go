package domain

// SourceType identifies which retrieval plane produced a context item.
// The set is closed: fusion and prompt formatting switch exhaustively on it.
type SourceType string

const (
	SourcePersonal           SourceType = "personal"
	SourcePublicSemantic     SourceType = "public_semantic"
	SourcePublicGraph        SourceType = "public_graph"
	SourcePublicGraphRelated SourceType = "public_graph_related"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourcePersonal, SourcePublicSemantic, SourcePublicGraph, SourcePublicGraphRelated:
		return true
	}
	return false
}

func (s SourceType) IsPublic() bool {
	return s.Valid() && s != SourcePersonal
}

// SearchFilter is a scalar-field equality filter pushed down to the vector store.
type SearchFilter map[string]string

// ContextItem is one retrieved passage with its provenance and scores.
// Items are created per query and never persisted.
type ContextItem struct {
	Text       string     `json:"text"`
	SourceType SourceType `json:"source_type"`

	// OriginID is the document id for vector hits and the entity id for graph hits.
	OriginID string `json:"origin_id"`
	Title    string `json:"title,omitempty"`

	// OwnerID is set only for personal items and must equal the querying user.
	OwnerID   string `json:"owner_id,omitempty"`
	Partition string `json:"partition,omitempty"`

	// Relationship is set for one-hop graph neighbours.
	Relationship string `json:"relationship,omitempty"`

	RawScore          float64 `json:"raw_score"`
	SourcePriority    float64 `json:"source_priority"`
	CrossEncoderScore float64 `json:"cross_encoder_score,omitempty"`
	CombinedScore     float64 `json:"combined_score"`
}

// FusedContext is the bounded, ordered merge of all retrieval sources.
type FusedContext struct {
	Query string        `json:"query"`
	Items []ContextItem `json:"items"`

	PersonalCount       int `json:"personal_count"`
	PublicSemanticCount int `json:"public_semantic_count"`
	PublicGraphCount    int `json:"public_graph_count"`

	HasPersonalContext bool `json:"has_personal_context"`
	HasPublicContext   bool `json:"has_public_context"`
}

// Recount refreshes the aggregate fields from Items.
func (f *FusedContext) Recount() {
	f.PersonalCount = 0
	f.PublicSemanticCount = 0
	f.PublicGraphCount = 0
	for _, item := range f.Items {
		switch item.SourceType {
		case SourcePersonal:
			f.PersonalCount++
		case SourcePublicSemantic:
			f.PublicSemanticCount++
		case SourcePublicGraph, SourcePublicGraphRelated:
			f.PublicGraphCount++
		}
	}
	f.HasPersonalContext = f.PersonalCount > 0
	f.HasPublicContext = f.PublicSemanticCount+f.PublicGraphCount > 0
}

// GraphEntity is a node returned by the legal knowledge graph.
type GraphEntity struct {
	ID      string            `json:"id"`
	Type    string            `json:"entity_type"`
	Name    string            `json:"name"`
	Content string            `json:"content,omitempty"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// GraphRelationship is a directed edge to a neighbouring entity.
type GraphRelationship struct {
	Type    string      `json:"type"`
	Context string      `json:"context,omitempty"`
	Target  GraphEntity `json:"target"`
}
