package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lexassist/legal-rag/internal/core/domain"
)

// PartitionRepository reads partition bookkeeping written by the ingestion
// pipeline. This service never writes these tables.
type PartitionRepository struct {
	db *sql.DB
}

func NewPartitionRepository(db *sql.DB) *PartitionRepository {
	return &PartitionRepository{db: db}
}

func (r *PartitionRepository) PersonalDocumentCount(ctx context.Context, userID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT COALESCE(document_count, 0)
FROM user_partitions
WHERE user_id = $1
`, userID)

	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("personal document count: %w", err)
	}
	return count, nil
}

func (r *PartitionRepository) PartitionInfo(ctx context.Context, userID string) (*domain.PartitionInfo, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT partition_name, document_count, total_embeddings, created_at, last_accessed
FROM user_partitions
WHERE user_id = $1
`, userID)

	var info domain.PartitionInfo
	err := row.Scan(
		&info.PartitionName,
		&info.DocumentCount,
		&info.TotalEmbeddings,
		&info.CreatedAt,
		&info.LastAccessed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.PartitionInfo{Exists: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("partition info: %w", err)
	}
	info.Exists = true
	return &info, nil
}

func (r *PartitionRepository) PublicDocumentCount(ctx context.Context) (int, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM public_documents`)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("public document count: %w", err)
	}
	return count, nil
}
