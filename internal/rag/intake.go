package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"ragbot/internal/models"
	"ragbot/internal/storage"
	"ragbot/internal/util"
	"ragbot/internal/validate"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// ErrNothingStored is returned with a populated UploadResult when every file in a batch failed.
var ErrNothingStored = errors.New("no files were uploaded successfully")

// FileInput is one document of an upload batch.
type FileInput struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type StoredFile struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
}

type FileError struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
}

type UploadResult struct {
	CorpusID   string       `json:"corpusId"`
	Files      []StoredFile `json:"files"`
	Errors     []FileError  `json:"errors"`
	TotalFiles int          `json:"totalFiles"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
}

type IntakeConfig struct {
	UploadsDir   string
	CorpusPrefix string
	MaxFileBytes int64
	MaxFiles     int
}

// Intake validates uploaded documents, stores their blobs and records them in the registry.
type Intake struct {
	reg storage.Registry
	cfg IntakeConfig
	now func() time.Time
}

func NewIntake(reg storage.Registry, cfg IntakeConfig) *Intake {
	if cfg.CorpusPrefix == "" {
		cfg.CorpusPrefix = "corpus"
	}
	if cfg.MaxFileBytes <= 0 || cfg.MaxFileBytes > validate.MaxFileBytes {
		cfg.MaxFileBytes = validate.MaxFileBytes
	}
	return &Intake{reg: reg, cfg: cfg, now: time.Now}
}

// Upload processes files one at a time. Invalid or unwritable files are reported in
// UploadResult.Errors without aborting the batch. The corpus is created on the first
// batch that stores at least one file.
func (in *Intake) Upload(ctx context.Context, files []FileInput) (UploadResult, error) {
	if err := validate.Batch(len(files), in.cfg.MaxFiles); err != nil {
		return UploadResult{}, err
	}
	if err := util.EnsureDir(in.cfg.UploadsDir); err != nil {
		return UploadResult{}, err
	}

	res := UploadResult{TotalFiles: len(files), Files: []StoredFile{}, Errors: []FileError{}}
	stored := make([]models.UploadedFile, 0, len(files))
	for _, f := range files {
		name := util.SanitizeText(util.BaseName(f.Name))
		if name == "" {
			name = "unnamed"
		}
		rec, err := in.store(name, f)
		if err != nil {
			log.Printf("upload rejected file=%q: %v", name, err)
			res.Errors = append(res.Errors, FileError{FileName: name, Error: in.userError(err)})
			continue
		}
		stored = append(stored, rec)
	}
	res.Failed = len(res.Errors)
	if len(stored) == 0 {
		return res, ErrNothingStored
	}

	corpus, created, err := in.reg.EnsureCorpus(ctx, in.newCorpus)
	if err != nil {
		in.discard(stored)
		return UploadResult{}, fmt.Errorf("ensure corpus: %w", err)
	}
	if created {
		log.Printf("corpus created id=%s", corpus.CorpusID)
	}
	for i := range stored {
		stored[i].CorpusID = corpus.CorpusID
	}
	if err := in.reg.AppendFiles(ctx, stored); err != nil {
		in.discard(stored)
		return UploadResult{}, fmt.Errorf("append files: %w", err)
	}

	res.CorpusID = corpus.CorpusID
	for _, f := range stored {
		res.Files = append(res.Files, StoredFile{ID: f.ID, FileName: f.FileName, Size: f.Size})
	}
	res.Successful = len(stored)
	return res, nil
}

// Catalog returns the active corpus and its registered files.
func (in *Intake) Catalog(ctx context.Context) (models.Corpus, []models.UploadedFile, error) {
	c, err := in.reg.Corpus(ctx)
	if err != nil {
		return models.Corpus{}, nil, err
	}
	files, err := in.reg.ListFiles(ctx)
	if err != nil {
		return models.Corpus{}, nil, err
	}
	return c, files, nil
}

func (in *Intake) newCorpus() models.Corpus {
	now := in.now().UTC()
	id := fmt.Sprintf("%s-%d", in.cfg.CorpusPrefix, now.UnixMilli())
	return models.Corpus{CorpusID: id, CorpusName: id, CreatedAt: now}
}

func (in *Intake) store(name string, f FileInput) (models.UploadedFile, error) {
	mt := validate.NormalizeMIME(f.MimeType)
	if err := validate.File(name, mt, f.Size, in.cfg.MaxFileBytes); err != nil {
		return models.UploadedFile{}, err
	}
	path, size, sum, err := in.saveBlob(f)
	if err != nil {
		return models.UploadedFile{}, err
	}
	now := in.now().UTC()
	rec := models.UploadedFile{
		ID:         fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		FileName:   name,
		UploadPath: path,
		MimeType:   mt,
		UploadedAt: now,
		Size:       size,
		Checksum:   sum,
	}
	if mt == models.MIMETypePDF {
		rec.Pages = pdfPages(path)
	}
	return rec, nil
}

func (in *Intake) saveBlob(f FileInput) (path string, size int64, checksum string, err error) {
	if f.Open == nil {
		return "", 0, "", fmt.Errorf("open upload: no content")
	}
	src, err := f.Open()
	if err != nil {
		return "", 0, "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(in.cfg.UploadsDir, "upload-*")
	if err != nil {
		return "", 0, "", fmt.Errorf("create blob: %w", err)
	}
	path = tmp.Name()
	defer func() {
		if err != nil {
			_ = util.RemoveQuietly(path)
		}
	}()

	size, checksum, err = util.CopySHA256(tmp, io.LimitReader(src, in.cfg.MaxFileBytes+1))
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return "", 0, "", fmt.Errorf("write blob: %w", err)
	}
	if size > in.cfg.MaxFileBytes {
		err = fmt.Errorf("%w: limit is %d MB", validate.ErrTooLarge, in.cfg.MaxFileBytes>>20)
		return "", 0, "", err
	}
	return path, size, checksum, nil
}

// discard removes blobs whose registry entries could not be persisted.
func (in *Intake) discard(files []models.UploadedFile) {
	for _, f := range files {
		if err := util.RemoveQuietly(f.UploadPath); err != nil {
			log.Printf("upload cleanup failed path=%s: %v", f.UploadPath, err)
		}
	}
}

// pdfPages returns the page count of a PDF, or 0 when it cannot be parsed.
func pdfPages(path string) (pages int) {
	// the parser panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("pdf page count skipped path=%s: %v", path, rec)
			pages = 0
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		log.Printf("pdf page count skipped path=%s: %v", path, err)
		return 0
	}
	defer f.Close()
	return r.NumPage()
}

func (in *Intake) userError(err error) string {
	switch {
	case errors.Is(err, validate.ErrUnsupportedType):
		return "Unsupported file type. Only PDF, DOCX and plain text files are accepted."
	case errors.Is(err, validate.ErrTooLarge):
		return fmt.Sprintf("File is too large. The limit is %d MB.", in.cfg.MaxFileBytes>>20)
	default:
		return "Failed to store file."
	}
}
