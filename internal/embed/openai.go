package embed

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
	embedRetries    = 3
	embedRetryDelay = time.Second
)

// OpenAIEmbedder calls the OpenAI embeddings API in batches.
type OpenAIEmbedder struct {
	api       *openai.Client
	model     openai.EmbeddingModel
	dimension int
	batchSize int
}

// NewOpenAIEmbedder creates an embedder. baseURL may be empty for the public
// API. batchSize caps texts per request (the API allows large batches; 256
// keeps request bodies reasonable).
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimension, batchSize int) *OpenAIEmbedder {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if batchSize <= 0 {
		batchSize = 256
	}
	return &OpenAIEmbedder{
		api:       openai.NewClientWithConfig(config),
		model:     openai.EmbeddingModel(model),
		dimension: dimension,
		batchSize: batchSize,
	}
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Embed returns one vector per input text, preserving order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", i, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	err := retry.Do(func() error {
		var err error
		resp, err = e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: e.model,
			Input: texts,
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
				return retry.Unrecoverable(err)
			}
			return err
		}
		return nil
	},
		retry.Attempts(embedRetries),
		retry.Delay(embedRetryDelay),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
