package api

import (
	"context"
	"sync"

	"ragbot/internal/providers"
)

type stubLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func newStub(reply string) *stubLLM {
	return &stubLLM{reply: reply}
}

func (s *stubLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	info := providers.ProviderInfo{Name: "gemini", Model: "gemini-2.0-flash", Key: "test"}
	if s.err != nil {
		return providers.GenerateResponse{}, info, s.err
	}
	return providers.GenerateResponse{Text: s.reply}, info, nil
}

func (s *stubLLM) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
