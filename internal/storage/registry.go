package storage

import (
	"context"
	"errors"
	"fmt"

	"ragbot/internal/config"
	"ragbot/internal/models"
)

var ErrNoCorpus = errors.New("no corpus")

// Registry persists the active corpus and the metadata of every uploaded file.
// Implementations serialize EnsureCorpus and AppendFiles so concurrent uploads
// cannot drop each other's entries.
type Registry interface {
	// Corpus returns the active corpus or ErrNoCorpus.
	Corpus(ctx context.Context) (models.Corpus, error)
	// EnsureCorpus returns the active corpus, creating it from newCorpus when none exists.
	// The bool reports whether this call created it.
	EnsureCorpus(ctx context.Context, newCorpus func() models.Corpus) (models.Corpus, bool, error)
	AppendFiles(ctx context.Context, files []models.UploadedFile) error
	ListFiles(ctx context.Context) ([]models.UploadedFile, error)
	Close() error
}

// Open builds the registry backend named by cfg.RegistryBackend.
func Open(ctx context.Context, cfg config.Config) (Registry, error) {
	switch cfg.RegistryBackend {
	case "", "json":
		return NewJSONRegistry(cfg.DataRoot)
	case "sqlite":
		return NewSQLiteRegistry(cfg.SQLitePath)
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres registry requires RAGBOT_POSTGRES_URL")
		}
		db, err := NewDB(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		reg := NewPostgresRegistry(db)
		if err := reg.InitSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unsupported registry backend: %s", cfg.RegistryBackend)
	}
}
