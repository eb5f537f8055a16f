package providers

import (
	"context"
	"errors"
	"testing"

	"ragbot/internal/config"

	"github.com/stretchr/testify/require"
)

func TestNewManagerNoUsableProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewManager(context.Background(), config.Config{LLMProviders: "gemini|openai"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewManagerUnknownProvider(t *testing.T) {
	_, err := NewManager(context.Background(), config.Config{LLMProviders: "bogus"})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotConfigured)
}

func TestNewManagerMock(t *testing.T) {
	m, err := NewManager(context.Background(), config.Config{LLMProviders: "mock"})
	require.NoError(t, err)
	require.Equal(t, 1, m.LLMCount())
	resp, info, err := m.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	require.Equal(t, "mock", info.Name)
	require.NotEmpty(t, resp.Text)
}

func TestManagerFailsOverAndPrefersRealProviders(t *testing.T) {
	broken := NewMockProvider("")
	broken.FailWith(errors.New("invalid model"))
	fallback := NewMockProvider("from fallback")
	mock := NewMockProvider("from mock")

	m := NewManagerWith(
		NamedLLMProvider{Ref: ProviderRef{Raw: "mock", Name: "mock"}, Provider: mock},
		NamedLLMProvider{Ref: ProviderRef{Raw: "gemini", Name: "gemini"}, Provider: broken},
		NamedLLMProvider{Ref: ProviderRef{Raw: "openai", Name: "openai"}, Provider: fallback},
	)
	require.Equal(t, []int{1, 2, 0}, m.PreferredLLMOrder())

	resp, _, err := m.Generate(context.Background(), GenerateRequest{Prompt: "q"})
	require.NoError(t, err)
	require.Equal(t, "from fallback", resp.Text)
	require.Equal(t, 1, broken.Calls())
	require.Equal(t, 0, mock.Calls())
	require.Equal(t, "q", fallback.LastPrompt())
}

func TestManagerReturnsLastError(t *testing.T) {
	only := NewMockProvider("")
	only.FailWith(errors.New("quota exceeded"))
	m := NewManagerWith(NamedLLMProvider{Ref: ProviderRef{Name: "gemini"}, Provider: only})
	_, _, err := m.Generate(context.Background(), GenerateRequest{})
	require.EqualError(t, err, "quota exceeded")
}
