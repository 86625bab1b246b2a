// Package embedding converts text into fixed-dimension vectors through a
// remote model. Documents are embedded in one batched call, queries one at
// a time, with distinct input-type discriminators so asymmetric embedding
// models can tell the two apart.
package embedding

import "context"

// DocumentEmbeddings pairs returned vectors with the texts the server
// actually embedded. Texts are echoed back so vectors can be matched up
// again after any server-side filtering.
type DocumentEmbeddings struct {
	Embeddings [][]float32
	Texts      []string
}

// Client is the remote embedding model.
//
// EmbedDocuments degrades to an empty result on remote failure; the
// failure is logged, not returned, so one bad page never aborts a
// document. EmbedQuery failure is fatal to the calling request and is
// returned wrapped in models.ErrEmbeddingFailed.
type Client interface {
	EmbedDocuments(ctx context.Context, texts []string) (*DocumentEmbeddings, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
