// Package store defines the vector store access contract and its two
// adapters. The store is append-only: chunks are written once with their
// vectors and read back through nearest-neighbor search, projected without
// the vector.
package store

import (
	"context"

	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// Store is the nearest-neighbor vector store collaborator.
//
// Upsert fails with models.ErrStoreUnavailable on transport failure so
// ingestion never silently drops data it believes it wrote. Search returns
// results in descending relevance order; zero matches is a valid outcome,
// not an error.
type Store interface {
	Upsert(ctx context.Context, chunks []models.Chunk) error
	Search(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error)
	Close() error
}
