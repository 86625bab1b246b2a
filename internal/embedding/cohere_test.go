package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*CohereClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewCohereClient(&config.EmbeddingConfig{
		BaseURL:   srv.URL,
		APIKey:    "test-key",
		Model:     "embed-multilingual-v3",
		Dimension: 3,
	})
	return client, srv
}

func TestEmbedDocuments(t *testing.T) {
	var gotReq embedRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embed" {
			t.Fatalf("path: want /v1/embed got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 2, 3}, {4, 5, 6}},
			Texts:      []string{"one", "two"},
		})
	})

	res, err := client.EmbedDocuments(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("EmbedDocuments: %v", err)
	}
	if gotReq.InputType != models.InputTypeDocument {
		t.Fatalf("input_type: want %q got %q", models.InputTypeDocument, gotReq.InputType)
	}
	if len(res.Embeddings) != 2 || len(res.Texts) != 2 {
		t.Fatalf("result: want 2 embeddings and 2 texts, got %d/%d", len(res.Embeddings), len(res.Texts))
	}
}

func TestEmbedDocumentsFailureDegradesToEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	res, err := client.EmbedDocuments(context.Background(), []string{"one"})
	if err != nil {
		t.Fatalf("EmbedDocuments must not return an error on remote failure, got %v", err)
	}
	if len(res.Embeddings) != 0 || len(res.Texts) != 0 {
		t.Fatalf("result: want empty, got %d/%d", len(res.Embeddings), len(res.Texts))
	}
}

func TestEmbedDocumentsEmptyInput(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no remote call expected for empty input")
	})
	res, err := client.EmbedDocuments(context.Background(), nil)
	if err != nil || len(res.Embeddings) != 0 {
		t.Fatalf("want empty result without error, got %v / %d", err, len(res.Embeddings))
	}
}

func TestEmbedQuery(t *testing.T) {
	var gotReq embedRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{7, 8, 9}},
			Texts:      []string{"question"},
		})
	})

	vec, err := client.EmbedQuery(context.Background(), "question")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if gotReq.InputType != models.InputTypeQuery {
		t.Fatalf("input_type: want %q got %q", models.InputTypeQuery, gotReq.InputType)
	}
	if len(vec) != 3 || vec[0] != 7 {
		t.Fatalf("vector: want [7 8 9] got %v", vec)
	}
}

func TestEmbedQueryFailureIsFatal(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := client.EmbedQuery(context.Background(), "question")
	if !errors.Is(err, models.ErrEmbeddingFailed) {
		t.Fatalf("want ErrEmbeddingFailed, got %v", err)
	}
}

func TestEmbedDimensionMismatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 2}},
			Texts:      []string{"q"},
		})
	})

	if _, err := client.EmbedQuery(context.Background(), "q"); !errors.Is(err, models.ErrEmbeddingFailed) {
		t.Fatalf("dimension mismatch: want ErrEmbeddingFailed, got %v", err)
	}
}
