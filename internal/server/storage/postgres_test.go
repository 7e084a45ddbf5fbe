package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
)

func newMockRepository(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresRepository{db: db}, mock
}

func TestPostgresSaveBlob_WithHints(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO secret_blobs`).
		WithArgs("default", []byte("blob")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO secret_metadata`).
		WithArgs("default", 3, int64(1024)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveBlob(context.Background(), "default", []byte("blob"),
		&Hints{FileCount: 3, TotalSize: 1024})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveBlob_NoHints(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO secret_blobs`).
		WithArgs("work", []byte("x")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveBlob(context.Background(), "work", []byte("x"), nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveBlob_RollsBackOnError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO secret_blobs`).
		WithArgs("default", []byte("blob")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.SaveBlob(context.Background(), "default", []byte("blob"), nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadBlob(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT blob FROM secret_blobs`).
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows([]string{"blob"}).AddRow([]byte("blob")))

	data, err := repo.LoadBlob(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadBlob_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT blob FROM secret_blobs`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"blob"}))

	_, err := repo.LoadBlob(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresSaveLoadMetadata(t *testing.T) {
	repo, mock := newMockRepository(t)

	uploaded := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	md := &backend.Metadata{FileCount: 2, TotalSize: 512, ChunkCount: 1, UploadedAt: uploaded}

	mock.ExpectExec(`INSERT INTO secret_metadata`).
		WithArgs("default", 2, int64(512), 1, uploaded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT file_count, total_size, chunk_count, uploaded_at`).
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows(
			[]string{"file_count", "total_size", "chunk_count", "uploaded_at"}).
			AddRow(2, int64(512), 1, uploaded))

	require.NoError(t, repo.SaveMetadata(context.Background(), "default", md))

	got, err := repo.LoadMetadata(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, md, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadMetadata_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT file_count, total_size, chunk_count, uploaded_at`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(
			[]string{"file_count", "total_size", "chunk_count", "uploaded_at"}))

	_, err := repo.LoadMetadata(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM secret_blobs`).
		WithArgs("default").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM secret_metadata`).
		WithArgs("default").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteBlob(context.Background(), "default"))
	require.NoError(t, repo.DeleteMetadata(context.Background(), "default"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM secret_blobs`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteBlob(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresListGroups(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT group_name FROM secret_metadata`).
		WillReturnRows(sqlmock.NewRows([]string{"group_name"}).
			AddRow("default").AddRow("work"))

	groups, err := repo.ListGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "work"}, groups)
}
