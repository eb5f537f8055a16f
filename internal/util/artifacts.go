package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MaxPrettyJSONBytes bounds the indented encoding of registry files. Larger payloads
// are written compact instead.
const MaxPrettyJSONBytes = 64 << 20

func WriteJSONAtomic(path string, v any) error {
	_, err := WriteJSONAtomicLimit(path, v, MaxPrettyJSONBytes)
	return err
}

// WriteJSONAtomicLimit writes v as indented JSON, or compact JSON when the indented form
// exceeds prettyLimit bytes. It reports whether the compact form was used.
func WriteJSONAtomicLimit(path string, v any, prettyLimit int) (bool, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode json: %w", err)
	}
	compact := false
	if prettyLimit > 0 && len(b) > prettyLimit {
		if b, err = json.Marshal(v); err != nil {
			return false, fmt.Errorf("encode compact json: %w", err)
		}
		compact = true
	}
	if err := WriteFileAtomic(path, append(b, '\n')); err != nil {
		return false, err
	}
	return compact, nil
}

// WriteFileAtomic replaces path with data via a temp file in the same directory.
func WriteFileAtomic(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ReadJSON decodes path into v. A missing file is reported as os.ErrNotExist.
func ReadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
