package rag

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ragbot/internal/answer"
	"ragbot/internal/providers"
	"ragbot/internal/storage"
)

var (
	ErrEmptyMessage     = errors.New("message is required")
	ErrProviderNotReady = errors.New("llm provider not initialized")
	// ErrQueryFailed hides provider and storage failures from callers; details are logged.
	ErrQueryFailed = errors.New("error processing query")
)

// Gateway answers questions about the active corpus with one completion call per query.
type Gateway struct {
	reg      storage.Registry
	llm      providers.LLMProvider
	pipeline *answer.Pipeline
}

// NewGateway builds a gateway. llm may be nil, in which case every Query fails
// with ErrProviderNotReady.
func NewGateway(reg storage.Registry, llm providers.LLMProvider, pipeline *answer.Pipeline) *Gateway {
	return &Gateway{reg: reg, llm: llm, pipeline: pipeline}
}

func (g *Gateway) Ready() bool {
	return g.llm != nil
}

// Query assembles the prompt from the registry listing and the message, calls the
// provider once and returns the post-processed answer.
func (g *Gateway) Query(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if g.llm == nil {
		return "", ErrProviderNotReady
	}
	corpus, err := g.reg.Corpus(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoCorpus) {
			return "", err
		}
		log.Printf("query: load corpus: %v", err)
		return "", ErrQueryFailed
	}
	files, err := g.reg.ListFiles(ctx)
	if err != nil {
		log.Printf("query: load registry: %v", err)
		return "", ErrQueryFailed
	}

	prompt := answer.BuildPrompt(files, message, g.pipeline.MaxWords())
	start := time.Now()
	resp, info, err := g.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "query",
		Prompt:    prompt,
	})
	g.audit(ctx, corpus.CorpusID, info, start, err)
	if err != nil {
		log.Printf("query: provider=%s model=%s class=%s: %v", info.Name, info.Model, providers.ClassifyError(err), err)
		return "", ErrQueryFailed
	}
	return g.pipeline.Process(message, resp.Text), nil
}

// audit records the call when the registry keeps a call log. Failures are logged only.
func (g *Gateway) audit(ctx context.Context, corpusID string, info providers.ProviderInfo, start time.Time, callErr error) {
	auditor, ok := g.reg.(storage.CallAuditor)
	if !ok {
		return
	}
	rec := storage.CallRecord{
		Operation: "query",
		CorpusID:  corpusID,
		Provider:  info.Name,
		Model:     info.Model,
		Status:    "ok",
		LatencyMS: time.Since(start).Milliseconds(),
		At:        start.UTC(),
	}
	if callErr != nil {
		rec.Status = "error"
		rec.ErrorType = string(providers.ClassifyError(callErr))
	}
	if err := auditor.RecordCall(context.WithoutCancel(ctx), rec); err != nil {
		log.Printf("query: record llm call: %v", err)
	}
}

// RecentCalls returns the newest provider calls, newest first. The bool is false
// when the registry backend keeps no call log.
func (g *Gateway) RecentCalls(ctx context.Context, limit int) ([]storage.CallRecord, bool, error) {
	auditor, ok := g.reg.(storage.CallAuditor)
	if !ok {
		return nil, false, nil
	}
	calls, err := auditor.RecentCalls(ctx, limit)
	if err != nil {
		return nil, true, err
	}
	return calls, true, nil
}
