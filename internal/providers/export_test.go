package providers

import "context"

// ProviderFunc adapts a function to LLMProvider.
type ProviderFunc func(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)

func (f ProviderFunc) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	return f(ctx, req)
}

// NewManagerWith wraps already-built providers.
func NewManagerWith(named ...NamedLLMProvider) *Manager {
	return &Manager{llmProviders: named}
}

// FailWith makes every later call return err.
func (m *MockProvider) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the most recent prompt, or "" before the first call.
func (m *MockProvider) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
