package util

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"brochure.pdf":           "brochure.pdf",
		"../../etc/passwd":       "passwd",
		"dir/sub/price list.txt": "price list.txt",
		"":                       "",
	}
	for in, want := range cases {
		require.Equal(t, want, BaseName(in), in)
	}
}

func TestRemoveQuietly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, RemoveQuietly(path))
	require.NoError(t, RemoveQuietly(path))
	require.NoError(t, RemoveQuietly(""))
}

func TestCopySHA256(t *testing.T) {
	var dst bytes.Buffer
	n, sum, err := CopySHA256(&dst, strings.NewReader("abs mall"))
	require.NoError(t, err)
	require.Equal(t, int64(8), n)
	require.Equal(t, "9c9a3e0d81030e2d78fd78e9eed27ede83373230d6a51de783d59b8837dcfb5c", sum)
	require.Equal(t, "abs mall", dst.String())
}
