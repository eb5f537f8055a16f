package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "  ", "", "")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeminiProviderGenerate(t *testing.T) {
	var gotPath, gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "Block C has 3-bed apartments."}},
				},
			}},
		})
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "test-key", srv.URL+"/", "gemini-test")
	require.NoError(t, err)
	resp, info, err := p.Generate(context.Background(), GenerateRequest{Operation: "query", Prompt: "Which blocks have 3 beds?"})
	require.NoError(t, err)
	require.Equal(t, "Block C has 3-bed apartments.", resp.Text)
	require.Equal(t, "gemini", info.Name)
	require.Equal(t, "gemini-test", info.Model)
	require.True(t, strings.HasSuffix(gotPath, "models/gemini-test:generateContent"), gotPath)
	require.Equal(t, "test-key", gotKey)
	require.Contains(t, gotBody, "Which blocks have 3 beds?")
}
