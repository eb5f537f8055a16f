package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIProvider speaks the OpenAI chat completions protocol. It also serves Groq,
// which exposes the same API under a different base URL.
type OpenAIProvider struct {
	name    string
	keyName string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAIProvider(keyName string) *OpenAIProvider {
	return &OpenAIProvider{
		name:    "openai",
		keyName: keyName,
		apiKey:  resolveKey("OPENAI", keyName),
		baseURL: getenvDefault("RAGBOT_OPENAI_BASE_URL", "https://api.openai.com/v1"),
		model:   getenvDefault("RAGBOT_OPENAI_MODEL", "gpt-4o-mini"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func NewGroqProvider(keyName string) *OpenAIProvider {
	return &OpenAIProvider{
		name:    "groq",
		keyName: keyName,
		apiKey:  resolveKey("GROQ", keyName),
		baseURL: "https://api.groq.com/openai/v1",
		model:   getenvDefault("RAGBOT_GROQ_MODEL", "llama-3.1-8b-instant"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (o *OpenAIProvider) Configured() bool {
	return o.apiKey != ""
}

func (o *OpenAIProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	model := o.model
	if req.Model != "" {
		model = req.Model
	}
	info := ProviderInfo{Name: o.name, Model: model, Key: o.keyName}
	if o.apiKey == "" {
		return GenerateResponse{}, info, fmt.Errorf("%w: %s key missing for alias %q", ErrNotConfigured, o.name, o.keyName)
	}
	payload, err := json.Marshal(map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	})
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("encode %s request: %w", o.name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(o.baseURL, "/")+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("build %s request: %w", o.name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return GenerateResponse{}, info, fmt.Errorf("%s generate request failed: %w", o.name, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, info, fmt.Errorf("%s generate error %d: %s", o.name, resp.StatusCode, string(body))
	}
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return GenerateResponse{}, info, fmt.Errorf("decode %s response: %w", o.name, err)
	}
	if len(parsed.Choices) == 0 {
		return GenerateResponse{}, info, fmt.Errorf("%s returned empty choices", o.name)
	}
	return GenerateResponse{Text: parsed.Choices[0].Message.Content}, info, nil
}

func resolveKey(vendor, alias string) string {
	if alias != "" {
		if v := os.Getenv("RAGBOT_" + vendor + "_KEY_" + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv(vendor + "_API_KEY")
}

func getenvDefault(k, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return fallback
}
