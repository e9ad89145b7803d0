package services

import (
	"context"
	"fmt"
	"strings"
)

// MockService produces a deterministic local reply. Used in development and
// tests so the rest of the pipeline can run without a model server.
type MockService struct{}

func NewMockService() *MockService { return &MockService{} }

func (MockService) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	question := questionFromPrompt(prompt)
	b := &strings.Builder{}
	fmt.Fprintf(b, "Summary answer for: %s\n\n", truncate(question, 60))
	fmt.Fprintln(b, "Key points:")
	fmt.Fprintln(b, "1) Short explanation of the topic under labour relations law.")
	fmt.Fprintln(b, "2) Practical steps available to the worker or employer.")
	fmt.Fprintln(b, "3) Relevant sections of the Zanzibar Labour Relations Act 2005.")
	fmt.Fprintln(b, "\nNote: this is a locally generated placeholder answer.")
	return b.String(), nil
}

// questionFromPrompt pulls the user question back out of an assembled
// prompt, falling back to the last non-empty line.
func questionFromPrompt(prompt string) string {
	const marker = "User Question: "
	if i := strings.LastIndex(prompt, marker); i >= 0 {
		rest := prompt[i+len(marker):]
		if j := strings.IndexByte(rest, '\n'); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	if len(lines) == 0 {
		return "your question"
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// truncate shortens s to at most n runes, never splitting a multi-byte
// character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
