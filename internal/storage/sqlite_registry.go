package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"ragbot/internal/models"
	"ragbot/internal/util"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS corpus (
	singleton   INTEGER PRIMARY KEY CHECK (singleton = 1),
	corpus_id   TEXT NOT NULL,
	corpus_name TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS files (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	file_name   TEXT NOT NULL,
	upload_path TEXT NOT NULL,
	mime_type   TEXT NOT NULL,
	uploaded_at TEXT NOT NULL,
	corpus_id   TEXT NOT NULL,
	size        INTEGER NOT NULL,
	checksum    TEXT NOT NULL DEFAULT '',
	pages       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS llm_calls (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	operation     TEXT NOT NULL,
	corpus_id     TEXT NOT NULL,
	provider_name TEXT NOT NULL,
	model         TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_type    TEXT NOT NULL DEFAULT '',
	latency_ms    INTEGER NOT NULL,
	called_at     TEXT NOT NULL
);`

// SQLiteRegistry is an embedded registry backend. Writes run in transactions, so the
// corpus row is created exactly once and appends are never lost.
type SQLiteRegistry struct {
	db *sql.DB
}

var _ Registry = (*SQLiteRegistry)(nil)

func NewSQLiteRegistry(path string) (*SQLiteRegistry, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite registry: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteRegistry{db: db}, nil
}

func (r *SQLiteRegistry) Corpus(ctx context.Context) (models.Corpus, error) {
	return scanCorpus(r.db.QueryRowContext(ctx, `SELECT corpus_id, corpus_name, created_at FROM corpus WHERE singleton = 1`))
}

func (r *SQLiteRegistry) EnsureCorpus(ctx context.Context, newCorpus func() models.Corpus) (models.Corpus, bool, error) {
	c := newCorpus()
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO corpus (singleton, corpus_id, corpus_name, created_at) VALUES (1, ?, ?, ?)`,
		c.CorpusID, c.CorpusName, c.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return models.Corpus{}, false, fmt.Errorf("insert corpus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return c, true, nil
	}
	existing, err := r.Corpus(ctx)
	if err != nil {
		return models.Corpus{}, false, err
	}
	return existing, false, nil
}

func (r *SQLiteRegistry) AppendFiles(ctx context.Context, files []models.UploadedFile) error {
	if len(files) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO files (id, file_name, upload_path, mime_type, uploaded_at, corpus_id, size, checksum, pages)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.ID, f.FileName, f.UploadPath, f.MimeType,
			f.UploadedAt.UTC().Format(time.RFC3339Nano), f.CorpusID, f.Size, f.Checksum, f.Pages); err != nil {
			return fmt.Errorf("insert file %s: %w", f.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (r *SQLiteRegistry) ListFiles(ctx context.Context) ([]models.UploadedFile, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, file_name, upload_path, mime_type, uploaded_at, corpus_id, size, checksum, pages
FROM files ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	out := make([]models.UploadedFile, 0)
	for rows.Next() {
		var (
			f          models.UploadedFile
			uploadedAt string
		)
		if err := rows.Scan(&f.ID, &f.FileName, &f.UploadPath, &f.MimeType, &uploadedAt, &f.CorpusID, &f.Size, &f.Checksum, &f.Pages); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		if f.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt); err != nil {
			return nil, fmt.Errorf("parse uploaded_at for %s: %w", f.ID, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return out, nil
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func scanCorpus(row *sql.Row) (models.Corpus, error) {
	var (
		c         models.Corpus
		createdAt string
	)
	err := row.Scan(&c.CorpusID, &c.CorpusName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Corpus{}, ErrNoCorpus
	}
	if err != nil {
		return models.Corpus{}, fmt.Errorf("select corpus: %w", err)
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.Corpus{}, fmt.Errorf("parse corpus created_at: %w", err)
	}
	return c, nil
}
