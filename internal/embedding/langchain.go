package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// langchainClient adapts a langchaingo embedder to the Client contract for
// providers without the {texts, input_type} API. These models have a
// symmetric embedding space, so the input-type discriminator is moot and
// the texts are echoed verbatim.
type langchainClient struct {
	embedder *embeddings.EmbedderImpl
}

// NewOpenAIClient embeds through an OpenAI-compatible endpoint.
func NewOpenAIClient(cfg *config.EmbeddingConfig) (Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &langchainClient{embedder: embedder}, nil
}

// NewOllamaClient embeds through a local ollama server.
func NewOllamaClient(cfg *config.EmbeddingConfig) (Client, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &langchainClient{embedder: embedder}, nil
}

func (c *langchainClient) EmbedDocuments(ctx context.Context, texts []string) (*DocumentEmbeddings, error) {
	if len(texts) == 0 {
		return &DocumentEmbeddings{}, nil
	}
	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		log.Warn().Err(err).Int("texts", len(texts)).Msg("Document embedding failed, skipping batch")
		return &DocumentEmbeddings{}, nil
	}
	return &DocumentEmbeddings{Embeddings: vectors, Texts: texts}, nil
}

func (c *langchainClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingFailed, err)
	}
	return vector, nil
}

// NewClient picks the provider configured under embedding.provider.
func NewClient(cfg *config.EmbeddingConfig) (Client, error) {
	switch cfg.Provider {
	case "cohere":
		return NewCohereClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg)
	case "ollama":
		return NewOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
