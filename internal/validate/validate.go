// Package validate checks uploaded documents before they are stored.
package validate

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"ragbot/internal/models"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrNoFiles         = errors.New("no files provided")
	ErrTooManyFiles    = errors.New("too many files")
)

// MaxFileBytes is the hard per-file cap, 500 MiB.
const MaxFileBytes int64 = 500 << 20

var allowedMIME = map[string]struct{}{
	models.MIMETypePDF:  {},
	models.MIMETypeDOCX: {},
	models.MIMETypeText: {},
}

// NormalizeMIME lowercases a declared content type and drops parameters such as charset.
func NormalizeMIME(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
}

// MIMEAllowed reports whether ct is PDF, DOCX or plain text.
func MIMEAllowed(ct string) bool {
	_, ok := allowedMIME[NormalizeMIME(ct)]
	return ok
}

// File checks one document's declared type and size against maxBytes. A maxBytes
// outside (0, MaxFileBytes] is treated as MaxFileBytes.
func File(name, ct string, size, maxBytes int64) error {
	if !MIMEAllowed(ct) {
		return fmt.Errorf("%w: %q (only PDF, DOCX and plain text are accepted)", ErrUnsupportedType, ct)
	}
	if maxBytes <= 0 || maxBytes > MaxFileBytes {
		maxBytes = MaxFileBytes
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d MB", ErrTooLarge, name, size, maxBytes>>20)
	}
	return nil
}

// Batch checks the number of files in one upload request.
func Batch(n, max int) error {
	if n == 0 {
		return ErrNoFiles
	}
	if max > 0 && n > max {
		return fmt.Errorf("%w: %d files sent, at most %d per upload", ErrTooManyFiles, n, max)
	}
	return nil
}
