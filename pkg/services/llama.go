package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"KaziAI/pkg/config"
)

// LlamaService talks to a llama.cpp HTTP server. The server loads a single
// local model, so calls are serialized here instead of assuming parallel
// throughput from the engine.
type LlamaService struct {
	baseURL string
	client  *http.Client
	mu      sync.Mutex
}

func NewLlamaService() *LlamaService {
	return &LlamaService{
		baseURL: strings.TrimRight(config.LlamaServerURL, "/"),
		client:  &http.Client{Timeout: time.Duration(config.LlamaTimeoutSeconds) * time.Second},
	}
}

func (s *LlamaService) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, err := s.callCompletion(ctx, prompt, maxTokens, temperature)
	if err != nil && isRetriable(err) {
		sleepWithContext(ctx, 2*time.Second)
		text, err = s.callCompletion(ctx, prompt, maxTokens, temperature)
	}
	if err != nil {
		log.Printf("[llama] completion failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *LlamaService) callCompletion(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	reqBody := map[string]any{
		"prompt":      prompt,
		"n_predict":   maxTokens,
		"temperature": temperature,
		"stream":      false,
	}
	bodyBytes, _ := json.Marshal(reqBody)

	url := s.baseURL + "/completion"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var parsed struct {
		Content string `json:"content"`
		Choices []struct {
			Text string `json:"text"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("decode error: %w", err)
	}
	if strings.TrimSpace(parsed.Content) != "" {
		return parsed.Content, nil
	}
	// servers running in OpenAI-compatible mode answer with a choices array
	if len(parsed.Choices) > 0 && strings.TrimSpace(parsed.Choices[0].Text) != "" {
		return parsed.Choices[0].Text, nil
	}
	return "", fmt.Errorf("empty completion")
}
