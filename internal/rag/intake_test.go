package rag

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"ragbot/internal/models"
	"ragbot/internal/storage"
	"ragbot/internal/validate"

	"github.com/stretchr/testify/require"
)

func memFile(name, mt string, body []byte) FileInput {
	return FileInput{
		Name:     name,
		MimeType: mt,
		Size:     int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		},
	}
}

func newIntake(t *testing.T, reg storage.Registry) (*Intake, string) {
	t.Helper()
	dir := t.TempDir()
	in := NewIntake(reg, IntakeConfig{
		UploadsDir:   dir,
		CorpusPrefix: "abs-brochures",
		MaxFileBytes: 1 << 20,
		MaxFiles:     5,
	})
	return in, dir
}

func newJSONRegistry(t *testing.T) *storage.JSONRegistry {
	t.Helper()
	reg, err := storage.NewJSONRegistry(t.TempDir())
	require.NoError(t, err)
	return reg
}

func blobCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestUploadCreatesCorpusOnce(t *testing.T) {
	reg := newJSONRegistry(t)
	in, _ := newIntake(t, reg)
	in.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	first, err := in.Upload(ctx, []FileInput{memFile("a.txt", "text/plain", []byte("Block A"))})
	require.NoError(t, err)
	require.Equal(t, "abs-brochures-1700000000000", first.CorpusID)

	in.now = func() time.Time { return time.UnixMilli(1800000000000) }
	second, err := in.Upload(ctx, []FileInput{memFile("b.txt", "text/plain", []byte("Block B"))})
	require.NoError(t, err)
	require.Equal(t, first.CorpusID, second.CorpusID)

	c, files, err := in.Catalog(ctx)
	require.NoError(t, err)
	require.Equal(t, first.CorpusID, c.CorpusID)
	require.Len(t, files, 2)
	for _, f := range files {
		require.Equal(t, first.CorpusID, f.CorpusID)
	}
}

func TestUploadPartialSuccess(t *testing.T) {
	reg := newJSONRegistry(t)
	in, dir := newIntake(t, reg)

	res, err := in.Upload(context.Background(), []FileInput{
		memFile("plans.txt", "text/plain; charset=utf-8", []byte("10% down")),
		memFile("photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'}),
		memFile("../../etc/brochure.docx", models.MIMETypeDOCX, []byte("PK")),
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.TotalFiles)
	require.Equal(t, 2, res.Successful)
	require.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "photo.png", res.Errors[0].FileName)
	require.Equal(t, "brochure.docx", res.Files[1].FileName)

	files, err := reg.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, models.MIMETypeText, files[0].MimeType)
	require.Len(t, files[0].Checksum, 64)
	require.Equal(t, int64(8), files[0].Size)
	require.True(t, strings.HasPrefix(files[0].UploadPath, dir))
	require.NotContains(t, files[0].UploadPath, "plans.txt")
	require.Equal(t, 2, blobCount(t, dir))
}

func TestUploadValidationIsTotal(t *testing.T) {
	reg := newJSONRegistry(t)
	in, dir := newIntake(t, reg)

	big := memFile("huge.pdf", models.MIMETypePDF, nil)
	big.Size = 2 << 20
	res, err := in.Upload(context.Background(), []FileInput{
		big,
		memFile("page.html", "text/html", []byte("<p>")),
		memFile("blank", "", []byte("x")),
	})
	require.ErrorIs(t, err, ErrNothingStored)
	require.Equal(t, 3, res.Failed)
	require.Empty(t, res.Files)
	require.Contains(t, res.Errors[0].Error, "too large")
	require.Equal(t, 0, blobCount(t, dir))

	_, err = reg.Corpus(context.Background())
	require.ErrorIs(t, err, storage.ErrNoCorpus)
}

func TestUploadRejectsUnderstatedSize(t *testing.T) {
	reg := newJSONRegistry(t)
	in, dir := newIntake(t, reg)

	f := memFile("liar.txt", "text/plain", bytes.Repeat([]byte("a"), 2<<20))
	f.Size = 10
	res, err := in.Upload(context.Background(), []FileInput{f})
	require.ErrorIs(t, err, ErrNothingStored)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, 0, blobCount(t, dir))
}

func TestUploadBatchLimits(t *testing.T) {
	in, _ := newIntake(t, newJSONRegistry(t))
	_, err := in.Upload(context.Background(), nil)
	require.Error(t, err)

	many := make([]FileInput, 6)
	for i := range many {
		many[i] = memFile("a.txt", "text/plain", []byte("a"))
	}
	_, err = in.Upload(context.Background(), many)
	require.Error(t, err)
}

func TestUploadOpenFailureIsPerFile(t *testing.T) {
	in, _ := newIntake(t, newJSONRegistry(t))
	broken := memFile("broken.txt", "text/plain", []byte("x"))
	broken.Open = func() (io.ReadCloser, error) { return nil, errors.New("disk gone") }

	res, err := in.Upload(context.Background(), []FileInput{broken, memFile("ok.txt", "text/plain", []byte("ok"))})
	require.NoError(t, err)
	require.Equal(t, 1, res.Successful)
	require.Equal(t, "Failed to store file.", res.Errors[0].Error)
}

func TestUploadInvalidPDFStillStored(t *testing.T) {
	reg := newJSONRegistry(t)
	in, _ := newIntake(t, reg)
	res, err := in.Upload(context.Background(), []FileInput{memFile("abs-mall.pdf", models.MIMETypePDF, []byte("not really a pdf"))})
	require.NoError(t, err)
	require.Equal(t, 1, res.Successful)

	files, err := reg.ListFiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, files[0].Pages)
}

type failingAppendRegistry struct {
	storage.Registry
}

func (failingAppendRegistry) AppendFiles(context.Context, []models.UploadedFile) error {
	return errors.New("disk full")
}

func TestUploadRemovesBlobsWhenRegistryWriteFails(t *testing.T) {
	in, dir := newIntake(t, failingAppendRegistry{Registry: newJSONRegistry(t)})
	_, err := in.Upload(context.Background(), []FileInput{memFile("a.txt", "text/plain", []byte("a"))})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNothingStored)
	require.Equal(t, 0, blobCount(t, dir))
}

func TestUploadZeroLimitFallsBackToCap(t *testing.T) {
	in := NewIntake(newJSONRegistry(t), IntakeConfig{UploadsDir: t.TempDir()})
	require.Equal(t, validate.MaxFileBytes, in.cfg.MaxFileBytes)

	big := memFile("tower.pdf", models.MIMETypePDF, nil)
	big.Size = validate.MaxFileBytes + 1
	res, err := in.Upload(context.Background(), []FileInput{big})
	require.ErrorIs(t, err, ErrNothingStored)
	require.Equal(t, 1, res.Failed)
}
