package services

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"KaziAI/pkg/config"
)

// OpenAIService is the hosted-API alternative to the local llama.cpp server,
// selected with MODEL_PROVIDER=openai.
type OpenAIService struct {
	client *openai.Client
	model  string
}

func NewOpenAIService() *OpenAIService {
	return &OpenAIService{
		client: openai.NewClient(config.OpenAIAPIKey),
		model:  config.OpenAIModel,
	}
}

func (s *OpenAIService) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
