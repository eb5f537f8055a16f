package providers

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// Policy bounds a single provider call: a per-attempt timeout, a retry budget for
// transient and rate-limit failures, and an optional request rate limit.
type Policy struct {
	Timeout time.Duration
	Retries int
	Limiter *rate.Limiter
	Backoff time.Duration
}

func NewPolicy(timeoutSecs, retries int, rps float64) Policy {
	p := Policy{
		Timeout: time.Duration(timeoutSecs) * time.Second,
		Retries: retries,
		Backoff: 500 * time.Millisecond,
	}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		p.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return p
}

type policyProvider struct {
	inner  LLMProvider
	policy Policy
}

// WithPolicy wraps p so every Generate call honors policy.
func WithPolicy(p LLMProvider, policy Policy) LLMProvider {
	return &policyProvider{inner: p, policy: policy}
}

func (p *policyProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	var (
		resp GenerateResponse
		info ProviderInfo
		err  error
	)
	for attempt := 0; attempt <= p.policy.Retries; attempt++ {
		if p.policy.Limiter != nil {
			if werr := p.policy.Limiter.Wait(ctx); werr != nil {
				return GenerateResponse{}, info, werr
			}
		}
		resp, info, err = p.attempt(ctx, req)
		if err == nil {
			return resp, info, nil
		}
		if !Retryable(err) || attempt == p.policy.Retries {
			break
		}
		log.Printf("provider %s attempt %d failed (%s), retrying: %v", info.Name, attempt+1, ClassifyError(err), err)
		if sleepErr := sleepCtx(ctx, p.policy.Backoff*time.Duration(attempt+1)); sleepErr != nil {
			return GenerateResponse{}, info, sleepErr
		}
	}
	return GenerateResponse{}, info, err
}

func (p *policyProvider) attempt(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	if p.policy.Timeout <= 0 {
		return p.inner.Generate(ctx, req)
	}
	cctx, cancel := context.WithTimeout(ctx, p.policy.Timeout)
	defer cancel()
	return p.inner.Generate(cctx, req)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
