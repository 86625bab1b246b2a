// Package rag ties the read path together: retrieve, window the
// conversation, build the grounded prompt and stream the answer.
package rag

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/avsthiago/e2e-serverless-rag/internal/generation"
	"github.com/avsthiago/e2e-serverless-rag/internal/history"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
	"github.com/avsthiago/e2e-serverless-rag/internal/prompt"
)

// Retriever yields the chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]models.RetrievedChunk, error)
}

// Streamer drives the generative model and emits ordered events.
type Streamer interface {
	Stream(ctx context.Context, system, prompt string) <-chan generation.Event
}

type RAG struct {
	retriever     Retriever
	streamer      Streamer
	messagesLimit int
}

func New(retriever Retriever, streamer Streamer, messagesLimit int) *RAG {
	return &RAG{retriever: retriever, streamer: streamer, messagesLimit: messagesLimit}
}

// Query answers a question against the indexed corpus. priorMessages is
// the flat conversation history (user/assistant alternating, user first);
// it is windowed per request and never retained here. Retrieval failures
// return before any generation call; generation failures arrive as a
// trailing error event on the stream.
func (r *RAG) Query(ctx context.Context, question string, priorMessages []string) (<-chan generation.Event, error) {
	chunks, err := r.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	window := history.Window(priorMessages, r.messagesLimit)
	p := prompt.Build(question, chunks, window)
	log.Debug().Int("chunks", len(chunks)).Int("history", len(window)).Msg("Submitting grounded prompt")

	return r.streamer.Stream(ctx, models.SystemInstruction, p), nil
}

// Answer runs Query to completion and returns the full answer text.
func (r *RAG) Answer(ctx context.Context, question string, priorMessages []string) (string, error) {
	events, err := r.Query(ctx, question, priorMessages)
	if err != nil {
		return "", err
	}
	return generation.Collect(events)
}
