package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"
)

// DefaultEmbeddingModel is the OpenAI embedding model used unless the
// configuration overrides it.
const DefaultEmbeddingModel = "text-embedding-3-small"

// OpenAIProvider generates embeddings through the OpenAI embeddings
// API. A missing API key is a fatal configuration error: the provider
// refuses to construct rather than operate partially.
type OpenAIProvider struct {
	embedder embedding.Embedder
	model    string
	logger   *slog.Logger
}

// NewOpenAIProvider builds a provider from the OPENAI_API_KEY
// environment variable. baseURL is optional and routes requests to an
// API-compatible endpoint.
func NewOpenAIProvider(ctx context.Context, model, baseURL string, logger *slog.Logger) (*OpenAIProvider, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY environment variable")
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}

	cfg := &openaiembed.EmbeddingConfig{
		APIKey: apiKey,
		Model:  model,
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	embedder, err := openaiembed.NewEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}

	logger.Info("Created OpenAI embedding provider", "model", model)
	return &OpenAIProvider{embedder: embedder, model: model, logger: logger}, nil
}

// Embed converts the texts into one vector each. Quota and auth errors
// surface unchanged; retries belong to the caller, not this provider.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	raw, err := p.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embedding request: %w", err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d texts", len(raw), len(texts))
	}

	vectors := make([][]float32, len(raw))
	for i, vector := range raw {
		converted := make([]float32, len(vector))
		for j, value := range vector {
			converted[j] = float32(value)
		}
		vectors[i] = converted
	}
	return vectors, nil
}
