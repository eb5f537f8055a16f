package providers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ragbot/internal/config"
)

type NamedLLMProvider struct {
	Ref      ProviderRef
	Provider LLMProvider
}

// Manager holds the usable providers in preference order and fails over between them.
type Manager struct {
	llmProviders []NamedLLMProvider
}

// NewManager builds every provider named in cfg.LLMProviders, skipping the ones
// without credentials. It returns ErrNotConfigured when none is usable.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	policy := NewPolicy(cfg.ProviderTimeoutSecs, cfg.ProviderRetries, cfg.ProviderRPS)
	m := &Manager{}
	for _, ref := range ParseProviderList(cfg.LLMProviders) {
		p, err := buildProvider(ctx, ref, cfg)
		if errors.Is(err, ErrNotConfigured) {
			log.Printf("llm provider %s skipped: %v", ref.Raw, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		m.llmProviders = append(m.llmProviders, NamedLLMProvider{Ref: ref, Provider: WithPolicy(p, policy)})
	}
	if len(m.llmProviders) == 0 {
		return nil, ErrNotConfigured
	}
	return m, nil
}

func (m *Manager) LLMCount() int {
	return len(m.llmProviders)
}

func (m *Manager) Refs() []ProviderRef {
	out := make([]ProviderRef, 0, len(m.llmProviders))
	for i := range m.llmProviders {
		out = append(out, m.llmProviders[i].Ref)
	}
	return out
}

func (m *Manager) PreferredLLMOrder() []int {
	return preferredOrder(len(m.llmProviders), func(i int) string { return strings.ToLower(m.llmProviders[i].Ref.Name) })
}

// Generate tries each provider in preferred order and returns the first success.
// Context and permanent errors from one provider do not stop the next attempt,
// but a cancelled caller context does.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var lastErr error
	var lastInfo ProviderInfo
	for _, i := range m.PreferredLLMOrder() {
		named := m.llmProviders[i]
		resp, info, err := named.Provider.Generate(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		lastErr, lastInfo = err, info
		if ctx.Err() != nil {
			break
		}
		log.Printf("llm provider %s failed (%s): %v", named.Ref.Raw, ClassifyError(err), err)
	}
	if lastErr == nil {
		lastErr = ErrNotConfigured
	}
	return GenerateResponse{}, lastInfo, lastErr
}

func preferredOrder(n int, nameAt func(i int) string) []int {
	if n <= 0 {
		return nil
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if nameAt(i) != "mock" {
			out = append(out, i)
		}
	}
	for i := 0; i < n; i++ {
		if nameAt(i) == "mock" {
			out = append(out, i)
		}
	}
	return out
}

func buildProvider(ctx context.Context, ref ProviderRef, cfg config.Config) (LLMProvider, error) {
	switch strings.ToLower(ref.Name) {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel)
	case "mock":
		return NewMockProvider(""), nil
	case "openai":
		p := NewOpenAIProvider(ref.KeyAlias)
		if !p.Configured() {
			return nil, fmt.Errorf("%w: openai key missing", ErrNotConfigured)
		}
		return p, nil
	case "groq":
		p := NewGroqProvider(ref.KeyAlias)
		if !p.Configured() {
			return nil, fmt.Errorf("%w: groq key missing", ErrNotConfigured)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", ref.Name)
	}
}
