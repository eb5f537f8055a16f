package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"ragbot/internal/models"
	"ragbot/internal/util"
)

const (
	corpusConfigFile = "corpus_config.json"
	fileRegistryFile = "file_registry.json"
)

// JSONRegistry keeps the corpus record and file list as two JSON files under one directory.
// A single mutex guards every read-modify-write, and files are replaced atomically.
type JSONRegistry struct {
	mu           sync.Mutex
	configPath   string
	registryPath string
	prettyLimit  int
}

var _ Registry = (*JSONRegistry)(nil)

func NewJSONRegistry(dir string) (*JSONRegistry, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &JSONRegistry{
		configPath:   filepath.Join(dir, corpusConfigFile),
		registryPath: filepath.Join(dir, fileRegistryFile),
		prettyLimit:  util.MaxPrettyJSONBytes,
	}, nil
}

func (r *JSONRegistry) Corpus(ctx context.Context) (models.Corpus, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readCorpus()
}

func (r *JSONRegistry) EnsureCorpus(ctx context.Context, newCorpus func() models.Corpus) (models.Corpus, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.readCorpus()
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, ErrNoCorpus) {
		return models.Corpus{}, false, err
	}
	c = newCorpus()
	if err := util.WriteJSONAtomic(r.configPath, c); err != nil {
		return models.Corpus{}, false, fmt.Errorf("persist corpus config: %w", err)
	}
	return c, true, nil
}

func (r *JSONRegistry) AppendFiles(ctx context.Context, files []models.UploadedFile) error {
	_ = ctx
	if len(files) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.readFiles()
	if err != nil {
		return err
	}
	current = append(current, files...)
	compact, err := util.WriteJSONAtomicLimit(r.registryPath, current, r.prettyLimit)
	if err != nil {
		return fmt.Errorf("persist file registry: %w", err)
	}
	if compact {
		log.Printf("file registry exceeded %d bytes pretty-printed; wrote compact json entries=%d", r.prettyLimit, len(current))
	}
	return nil
}

func (r *JSONRegistry) ListFiles(ctx context.Context) ([]models.UploadedFile, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readFiles()
}

func (r *JSONRegistry) Close() error {
	return nil
}

func (r *JSONRegistry) readCorpus() (models.Corpus, error) {
	var c models.Corpus
	if err := util.ReadJSON(r.configPath, &c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Corpus{}, ErrNoCorpus
		}
		return models.Corpus{}, fmt.Errorf("read corpus config: %w", err)
	}
	if c.CorpusID == "" {
		return models.Corpus{}, ErrNoCorpus
	}
	return c, nil
}

func (r *JSONRegistry) readFiles() ([]models.UploadedFile, error) {
	files := make([]models.UploadedFile, 0)
	if err := util.ReadJSON(r.registryPath, &files); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.UploadedFile{}, nil
		}
		return nil, fmt.Errorf("read file registry: %w", err)
	}
	return files, nil
}
