package store

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// ChromemStore is the embedded vector store adapter, used for local runs
// and tests where a Postgres instance is not available.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

func NewChromemStore(path, collectionName string, inMemory bool) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
		}
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s-%d-%d", c.FileName, c.PageNumber, i),
			Content: c.Text,
			Metadata: map[string]string{
				"file_name":   c.FileName,
				"page_number": strconv.Itoa(c.PageNumber),
			},
			Embedding: c.Vector,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error) {
	// chromem rejects queries asking for more results than stored
	// documents.
	if count := s.collection.Count(); count < k {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}
	hits, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	results := make([]models.RetrievedChunk, len(hits))
	for i, h := range hits {
		page, _ := strconv.Atoi(h.Metadata["page_number"])
		results[i] = models.RetrievedChunk{
			FileName:   h.Metadata["file_name"],
			PageNumber: page,
			Text:       h.Content,
			Rank:       i,
		}
	}
	return results, nil
}

func (s *ChromemStore) Close() error {
	return nil
}
