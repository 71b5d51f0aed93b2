package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

const (
	entityQuery = `MATCH (n)
WHERE toLower(n.name) CONTAINS toLower($name)
RETURN n, labels(n) AS labels, elementId(n) AS element_id
LIMIT $limit`

	relationshipQuery = `MATCH (source)-[r]->(target)
WHERE source.id = $source_id OR elementId(source) = $source_id
RETURN type(r) AS rel_type, r.context AS rel_context,
       target, labels(target) AS labels, elementId(target) AS element_id
LIMIT $limit`
)

// Store reads the legal knowledge graph. It is read-only: graph population
// belongs to the ingestion pipeline, not this service.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewStore(driver neo4j.DriverWithContext, database string) *Store {
	return &Store{driver: driver, database: database}
}

// Connect opens and verifies a driver connection.
func Connect(ctx context.Context, uri, username, password, database string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return NewStore(driver, database), nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) QueryEntities(ctx context.Context, nameFilter string, limit int) ([]domain.GraphEntity, error) {
	if nameFilter == "" || limit <= 0 {
		return nil, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	records, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]*neo4j.Record, error) {
		result, err := tx.Run(ctx, entityQuery, map[string]any{"name": nameFilter, "limit": limit})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}

	entities := make([]domain.GraphEntity, 0, len(records))
	for _, record := range records {
		node, ok := nodeFromRecord(record, "n")
		if !ok {
			continue
		}
		entities = append(entities, entityFromNode(node, record))
	}
	return entities, nil
}

func (s *Store) QueryRelationships(ctx context.Context, sourceID string, limit int) ([]domain.GraphRelationship, error) {
	if sourceID == "" || limit <= 0 {
		return nil, nil
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	records, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]*neo4j.Record, error) {
		result, err := tx.Run(ctx, relationshipQuery, map[string]any{"source_id": sourceID, "limit": limit})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}

	relationships := make([]domain.GraphRelationship, 0, len(records))
	for _, record := range records {
		node, ok := nodeFromRecord(record, "target")
		if !ok {
			continue
		}
		relType, _ := stringValue(record, "rel_type")
		relContext, _ := stringValue(record, "rel_context")
		relationships = append(relationships, domain.GraphRelationship{
			Type:    relType,
			Context: relContext,
			Target:  entityFromNode(node, record),
		})
	}
	return relationships, nil
}

func nodeFromRecord(record *neo4j.Record, key string) (neo4j.Node, bool) {
	value, ok := record.Get(key)
	if !ok {
		return neo4j.Node{}, false
	}
	node, ok := value.(neo4j.Node)
	return node, ok
}

// entityFromNode flattens a node into the domain shape. The node's own id
// property wins over the driver element id so citations stay stable across
// database restarts.
func entityFromNode(node neo4j.Node, record *neo4j.Record) domain.GraphEntity {
	entity := domain.GraphEntity{Attrs: make(map[string]string)}

	for key, value := range node.Props {
		text := propString(value)
		switch key {
		case "id":
			entity.ID = text
		case "name":
			entity.Name = text
		case "content", "text", "description":
			if entity.Content == "" {
				entity.Content = text
			}
		default:
			if text != "" {
				entity.Attrs[key] = text
			}
		}
	}

	if entity.ID == "" {
		if elementID, ok := stringValue(record, "element_id"); ok {
			entity.ID = elementID
		}
	}
	entity.Type = entityType(node.Labels)
	return entity
}

// entityType lowercases the first label, matching how the graph is populated
// (articles, cases, judges and so on).
func entityType(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	out := make([]byte, len(labels[0]))
	for i := 0; i < len(labels[0]); i++ {
		c := labels[0][i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func stringValue(record *neo4j.Record, key string) (string, bool) {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

func propString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}
