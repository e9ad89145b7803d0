package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"KaziAI/pkg/config"
)

// Completer is the inference engine boundary: prompt in, completion out.
// Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// ErrUnavailable wraps inference failures so handlers can answer 502 rather
// than persisting substitute content.
var ErrUnavailable = errors.New("inference engine unavailable")

// NewCompleter picks the provider configured via MODEL_PROVIDER.
func NewCompleter() Completer {
	switch config.ModelProvider {
	case "openai":
		return NewOpenAIService()
	case "mock":
		log.Printf("[services] using local mock completer")
		return NewMockService()
	default:
		return NewLlamaService()
	}
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "status 429") ||
		strings.Contains(s, "status 500") ||
		strings.Contains(s, "status 502") ||
		strings.Contains(s, "status 503") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused")
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
