// Package llm wraps external text-generation providers behind a minimal
// Client interface and a retrying Invoker. The package is content-agnostic:
// it knows nothing about plans or prompts, only "send text, get text, retry
// on transient network symptoms".
package llm

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Client is the single call every provider implementation must satisfy.
type Client interface {
	// GenerateText sends one prompt and returns the model's raw text reply.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider for logging and engine metadata.
	Name() string
}

// StatusError is a non-2xx provider response. The status code drives
// transient classification (408/429/5xx retry, everything else fails fast).
type StatusError struct {
	Provider string
	Code     int
	Body     any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %v", e.Provider, e.Code, e.Body)
}

func clientTimeout() time.Duration {
	if v := os.Getenv("LLM_HTTP_TIMEOUT_MS"); v != "" {
		if ms, err := time.ParseDuration(v + "ms"); err == nil {
			return ms
		}
	}
	return 45 * time.Second
}
