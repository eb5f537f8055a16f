package providers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider calls the Gemini generateContent API through the genai SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, apiKey, baseURL, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", ErrNotConfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	model := g.model
	if req.Model != "" {
		model = req.Model
	}
	info := ProviderInfo{Name: "gemini", Model: model, Key: "default"}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), nil)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("gemini generate request failed: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return GenerateResponse{}, info, fmt.Errorf("gemini returned empty text")
	}
	return GenerateResponse{Text: text}, info, nil
}
