package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// CopySHA256 copies src into dst and returns the byte count and hex SHA-256 of what was copied.
func CopySHA256(dst io.Writer, src io.Reader) (int64, string, error) {
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(dst, h), src)
	if err != nil {
		return n, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
