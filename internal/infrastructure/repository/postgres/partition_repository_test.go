package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newPartitionRepoWithMock(t *testing.T) (*PartitionRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &PartitionRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestPersonalDocumentCount(t *testing.T) {
	repo, mock, done := newPartitionRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"document_count"}).AddRow(4))

	count, err := repo.PersonalDocumentCount(context.Background(), "u1")
	if err != nil || count != 4 {
		t.Fatalf("count = %d, err = %v", count, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPersonalDocumentCountNoPartition(t *testing.T) {
	repo, mock, done := newPartitionRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("u2").
		WillReturnError(sql.ErrNoRows)

	count, err := repo.PersonalDocumentCount(context.Background(), "u2")
	if err != nil {
		t.Fatalf("missing partition must not error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestPartitionInfo(t *testing.T) {
	repo, mock, done := newPartitionRepoWithMock(t)
	defer done()

	created := time.Now().UTC().Add(-24 * time.Hour)
	accessed := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"partition_name", "document_count", "total_embeddings", "created_at", "last_accessed"}).
		AddRow("user_abc", 3, 120, created, accessed)

	mock.ExpectQuery("SELECT partition_name").
		WithArgs("u1").
		WillReturnRows(rows)

	info, err := repo.PartitionInfo(context.Background(), "u1")
	if err != nil {
		t.Fatalf("PartitionInfo() error = %v", err)
	}
	if !info.Exists || info.PartitionName != "user_abc" || info.DocumentCount != 3 || info.TotalEmbeddings != 120 {
		t.Fatalf("info = %+v", info)
	}
}

func TestPartitionInfoMissing(t *testing.T) {
	repo, mock, done := newPartitionRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT partition_name").
		WithArgs("u9").
		WillReturnError(sql.ErrNoRows)

	info, err := repo.PartitionInfo(context.Background(), "u9")
	if err != nil {
		t.Fatalf("missing partition must not error, got %v", err)
	}
	if info.Exists {
		t.Fatalf("info = %+v, want Exists=false", info)
	}
}

func TestPublicDocumentCount(t *testing.T) {
	repo, mock, done := newPartitionRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1200))

	count, err := repo.PublicDocumentCount(context.Background())
	if err != nil || count != 1200 {
		t.Fatalf("count = %d, err = %v", count, err)
	}
}
