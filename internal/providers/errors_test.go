package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":                     ErrorQuota,
		"429 rate":                               ErrorRate,
		"Error 429, Status: RESOURCE_EXHAUSTED":  ErrorRate,
		"prompt exceeds context length":          ErrorContext,
		"timeout":                                ErrorTransient,
		"Error 503, Status: UNAVAILABLE":         ErrorTransient,
		"read tcp: connection reset by peer":     ErrorTransient,
		"bad request":                            ErrorPermanent,
		"gemini generate error: invalid model":   ErrorPermanent,
		"Error 400, Message: API key not valid.": ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestClassifyDeadlineExceededIsTransient(t *testing.T) {
	err := fmt.Errorf("gemini generate request failed: %w", context.DeadlineExceeded)
	if got := ClassifyError(err); got != ErrorTransient {
		t.Fatalf("got %s want %s", got, ErrorTransient)
	}
	if !Retryable(err) {
		t.Fatalf("deadline exceeded should be retryable")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatalf("nil error is not retryable")
	}
	if Retryable(errors.New("invalid argument")) {
		t.Fatalf("permanent error must not be retried")
	}
	if !Retryable(errors.New("429 too many requests")) {
		t.Fatalf("rate limit should be retried")
	}
}
