package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/example/soup/internal/ports/secondary"
)

const (
	judgeTemperature    float32 = 0.7
	generateTemperature float32 = 1.0
	maxTokens                   = 4096
)

// ChatCompleter is the subset of *openai.Client the gateway uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewClient builds an OpenAI-compatible client. An empty baseURL keeps the
// OpenAI default endpoint.
func NewClient(baseURL, apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func chatRequest(model string, messages []secondary.OracleMessage, temperature float32) openai.ChatCompletionRequest {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    out,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}

// complete sends one request and returns the raw message content.
func complete(ctx context.Context, client ChatCompleter, req openai.ChatCompletionRequest) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("oracle API error %d: %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("oracle request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("oracle returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
