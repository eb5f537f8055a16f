package providers

import (
	"context"
	"sync"
)

const defaultMockReply = "ABS Developers brochures are loaded. Ask about a specific project, apartment size or payment plan for details."

// MockProvider returns a fixed reply. It backs local development and tests.
type MockProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
}

func NewMockProvider(reply string) *MockProvider {
	if reply == "" {
		reply = defaultMockReply
	}
	return &MockProvider{reply: reply}
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	if m.err != nil {
		return GenerateResponse{}, info, m.err
	}
	return GenerateResponse{Text: m.reply}, info, nil
}
