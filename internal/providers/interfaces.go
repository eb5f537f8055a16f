package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Key   string `json:"key"`
}

type GenerateRequest struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
	// Model overrides the provider's configured model when set.
	Model string `json:"model,omitempty"`
}

type GenerateResponse struct {
	Text string `json:"text"`
}

// LLMProvider is a single-shot text completion service: one prompt in, one text out.
type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error)
}
