package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"
)

const (
	openaiRetries    = 3
	openaiRetryDelay = time.Second
)

// OpenAIClient calls the OpenAI chat completions API with retries.
type OpenAIClient struct {
	api   *openai.Client
	model string
	Stats *Stats
}

// NewOpenAIClient creates a client. baseURL may be empty for the public API.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		api:   openai.NewClientWithConfig(config),
		model: model,
		Stats: NewStats(time.Hour),
	}
}

func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete performs a single-turn chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	start := time.Now()
	var resp openai.ChatCompletionResponse
	err := retry.Do(func() error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     c.model,
			MaxTokens: maxTokens,
			Messages:  messages,
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusBadRequest {
					return retry.Unrecoverable(err)
				}
			}
			return err
		}
		return nil
	},
		retry.Attempts(openaiRetries),
		retry.Delay(openaiRetryDelay),
		retry.Context(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	c.Stats.Record(time.Since(start).Milliseconds())

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
