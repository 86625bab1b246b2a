package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// CohereClient speaks the {texts, input_type} embed contract.
type CohereClient struct {
	baseURL   string
	apiKey    string
	model     string
	dimension int
	http      *http.Client
}

func NewCohereClient(cfg *config.EmbeddingConfig) *CohereClient {
	return &CohereClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
	Model     string   `json:"model,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Texts      []string    `json:"texts"`
}

func (c *CohereClient) EmbedDocuments(ctx context.Context, texts []string) (*DocumentEmbeddings, error) {
	if len(texts) == 0 {
		return &DocumentEmbeddings{}, nil
	}
	resp, err := c.embed(ctx, texts, models.InputTypeDocument)
	if err != nil {
		log.Warn().Err(err).Int("texts", len(texts)).Msg("Document embedding failed, skipping batch")
		return &DocumentEmbeddings{}, nil
	}
	return &DocumentEmbeddings{Embeddings: resp.Embeddings, Texts: resp.Texts}, nil
}

func (c *CohereClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.embed(ctx, []string{text}, models.InputTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingFailed, err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty response", models.ErrEmbeddingFailed)
	}
	return resp.Embeddings[0], nil
}

func (c *CohereClient) embed(ctx context.Context, texts []string, inputType string) (*embedResponse, error) {
	body, err := json.Marshal(embedRequest{Texts: texts, InputType: inputType, Model: c.model})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("embed request failed: %d, %s", resp.StatusCode, string(msg))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	for i, e := range parsed.Embeddings {
		if c.dimension > 0 && len(e) != c.dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(e), c.dimension)
		}
	}
	return &parsed, nil
}
