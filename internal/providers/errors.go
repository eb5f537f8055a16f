package providers

import (
	"context"
	"errors"
	"strings"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

var ErrNotConfigured = errors.New("llm provider not configured")

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTransient
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "429"),
		strings.Contains(e, "too many requests"), strings.Contains(e, "resource_exhausted"):
		return ErrorRate
	case strings.Contains(e, "context length"), strings.Contains(e, "context window"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"),
		strings.Contains(e, "connection reset"), strings.Contains(e, "connection refused"), strings.Contains(e, "eof"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// Retryable reports whether another attempt could succeed.
func Retryable(err error) bool {
	switch ClassifyError(err) {
	case ErrorTransient, ErrorRate:
		return true
	default:
		return false
	}
}
