// Package retriever embeds a question and looks up the closest chunks.
package retriever

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/avsthiago/e2e-serverless-rag/internal/embedding"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
	"github.com/avsthiago/e2e-serverless-rag/internal/store"
)

type Retriever struct {
	embedder embedding.Client
	stores   *store.Provider
	topK     int
}

func New(embedder embedding.Client, stores *store.Provider, topK int) *Retriever {
	return &Retriever{embedder: embedder, stores: stores, topK: topK}
}

// Retrieve returns the top-k chunks for the question in relevance order.
// An embedding failure is fatal to the request; zero matches is a valid
// result. Vectors never leave the store.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]models.RetrievedChunk, error) {
	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	st, err := r.stores.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	chunks, err := st.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("chunks", len(chunks)).Msg("Retrieved context chunks")
	return chunks, nil
}
