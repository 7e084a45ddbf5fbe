package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/secretsync/internal/backend"
	"github.com/dmitrijs2005/secretsync/internal/common"
	"github.com/dmitrijs2005/secretsync/internal/dbx"
	"github.com/dmitrijs2005/secretsync/internal/server/storage/migrations"
)

// PostgresRepository persists groups in two tables: secret_blobs and
// secret_metadata, keyed by group name.
type PostgresRepository struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing migration wiring.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresRepository opens dsn with the pgx stdlib driver and runs the
// embedded migrations.
func NewPostgresRepository(ctx context.Context, dsn string) (*PostgresRepository, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	r := &PostgresRepository{db: db}
	if err := r.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return gooseUpContext(ctx, r.db, ".")
}

func (r *PostgresRepository) SaveBlob(ctx context.Context, group string, data []byte, hints *Hints) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO secret_blobs (group_name, blob, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (group_name)
			DO UPDATE SET blob = EXCLUDED.blob, updated_at = now();
		`, group, data)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		if hints == nil {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO secret_metadata (group_name, file_count, total_size, chunk_count, uploaded_at)
			VALUES ($1, $2, $3, 1, now())
			ON CONFLICT (group_name)
			DO UPDATE SET
				file_count = EXCLUDED.file_count,
				total_size = EXCLUDED.total_size,
				chunk_count = 1,
				uploaded_at = now();
		`, group, hints.FileCount, hints.TotalSize)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) LoadBlob(ctx context.Context, group string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT blob FROM secret_blobs WHERE group_name = $1`, group).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return blob, nil
}

func (r *PostgresRepository) DeleteBlob(ctx context.Context, group string) error {
	return r.deleteRow(ctx, `DELETE FROM secret_blobs WHERE group_name = $1`, group)
}

func (r *PostgresRepository) SaveMetadata(ctx context.Context, group string, md *backend.Metadata) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO secret_metadata (group_name, file_count, total_size, chunk_count, uploaded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_name)
		DO UPDATE SET
			file_count = EXCLUDED.file_count,
			total_size = EXCLUDED.total_size,
			chunk_count = EXCLUDED.chunk_count,
			uploaded_at = EXCLUDED.uploaded_at;
	`, group, md.FileCount, md.TotalSize, md.ChunkCount, md.UploadedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LoadMetadata(ctx context.Context, group string) (*backend.Metadata, error) {
	var md backend.Metadata
	err := r.db.QueryRowContext(ctx, `
		SELECT file_count, total_size, chunk_count, uploaded_at
		FROM secret_metadata WHERE group_name = $1
	`, group).Scan(&md.FileCount, &md.TotalSize, &md.ChunkCount, &md.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &md, nil
}

func (r *PostgresRepository) DeleteMetadata(ctx context.Context, group string) error {
	return r.deleteRow(ctx, `DELETE FROM secret_metadata WHERE group_name = $1`, group)
}

func (r *PostgresRepository) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_name FROM secret_metadata ORDER BY group_name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

func (r *PostgresRepository) deleteRow(ctx context.Context, query, group string) error {
	res, err := r.db.ExecContext(ctx, query, group)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
