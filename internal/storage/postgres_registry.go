package storage

import (
	"context"
	"errors"
	"fmt"

	"ragbot/internal/models"

	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ragbot_corpus (
	singleton   SMALLINT PRIMARY KEY DEFAULT 1 CHECK (singleton = 1),
	corpus_id   TEXT NOT NULL,
	corpus_name TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS ragbot_files (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	file_name   TEXT NOT NULL,
	upload_path TEXT NOT NULL,
	mime_type   TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	corpus_id   TEXT NOT NULL,
	size        BIGINT NOT NULL,
	checksum    TEXT NOT NULL DEFAULT '',
	pages       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS ragbot_llm_calls (
	seq           BIGSERIAL PRIMARY KEY,
	operation     TEXT NOT NULL,
	corpus_id     TEXT NOT NULL,
	provider_name TEXT NOT NULL,
	model         TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_type    TEXT,
	latency_ms    BIGINT NOT NULL,
	called_at     TIMESTAMPTZ NOT NULL
);`

// PostgresRegistry stores the registry in two tables. The corpus table holds at most one row.
type PostgresRegistry struct {
	db *DB
}

var _ Registry = (*PostgresRegistry)(nil)

func NewPostgresRegistry(db *DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) InitSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("init registry schema: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) Corpus(ctx context.Context) (models.Corpus, error) {
	var c models.Corpus
	err := r.db.Pool.QueryRow(ctx, `SELECT corpus_id, corpus_name, created_at FROM ragbot_corpus WHERE singleton = 1`).
		Scan(&c.CorpusID, &c.CorpusName, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Corpus{}, ErrNoCorpus
	}
	if err != nil {
		return models.Corpus{}, fmt.Errorf("select corpus: %w", err)
	}
	return c, nil
}

func (r *PostgresRegistry) EnsureCorpus(ctx context.Context, newCorpus func() models.Corpus) (models.Corpus, bool, error) {
	c := newCorpus()
	tag, err := r.db.Pool.Exec(ctx, `
INSERT INTO ragbot_corpus (singleton, corpus_id, corpus_name, created_at)
VALUES (1, $1, $2, $3)
ON CONFLICT (singleton) DO NOTHING`, c.CorpusID, c.CorpusName, c.CreatedAt)
	if err != nil {
		return models.Corpus{}, false, fmt.Errorf("insert corpus: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return c, true, nil
	}
	existing, err := r.Corpus(ctx)
	if err != nil {
		return models.Corpus{}, false, err
	}
	return existing, false, nil
}

func (r *PostgresRegistry) AppendFiles(ctx context.Context, files []models.UploadedFile) error {
	if len(files) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, f := range files {
		batch.Queue(`
INSERT INTO ragbot_files (id, file_name, upload_path, mime_type, uploaded_at, corpus_id, size, checksum, pages)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			f.ID, f.FileName, f.UploadPath, f.MimeType, f.UploadedAt, f.CorpusID, f.Size, f.Checksum, f.Pages)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert files: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) ListFiles(ctx context.Context) ([]models.UploadedFile, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id, file_name, upload_path, mime_type, uploaded_at, corpus_id, size, checksum, pages
FROM ragbot_files ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := make([]models.UploadedFile, 0)
	for rows.Next() {
		var f models.UploadedFile
		if err := rows.Scan(&f.ID, &f.FileName, &f.UploadPath, &f.MimeType, &f.UploadedAt, &f.CorpusID, &f.Size, &f.Checksum, &f.Pages); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return out, nil
}

func (r *PostgresRegistry) Close() error {
	r.db.Close()
	return nil
}
