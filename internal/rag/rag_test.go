package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/avsthiago/e2e-serverless-rag/internal/generation"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

type stubRetriever struct {
	chunks []models.RetrievedChunk
	err    error
}

func (s *stubRetriever) Retrieve(ctx context.Context, question string) ([]models.RetrievedChunk, error) {
	return s.chunks, s.err
}

type stubStreamer struct {
	events    []generation.Event
	gotSystem string
	gotPrompt string
	calls     int
}

func (s *stubStreamer) Stream(ctx context.Context, system, prompt string) <-chan generation.Event {
	s.calls++
	s.gotSystem = system
	s.gotPrompt = prompt
	out := make(chan generation.Event, len(s.events))
	for _, ev := range s.events {
		out <- ev
	}
	close(out)
	return out
}

func TestAnswerCollectsDeltas(t *testing.T) {
	streamer := &stubStreamer{events: []generation.Event{
		{Type: generation.EventDelta, Text: "Hi"},
		{Type: generation.EventDelta, Text: " there"},
		{Type: generation.EventStop},
	}}
	r := New(&stubRetriever{chunks: []models.RetrievedChunk{{Text: "ctx chunk"}}}, streamer, 10)

	answer, err := r.Answer(context.Background(), "hello?", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "Hi there" {
		t.Fatalf("answer: want %q got %q", "Hi there", answer)
	}
	if streamer.gotSystem != models.SystemInstruction {
		t.Fatal("system instruction not forwarded")
	}
	if !strings.Contains(streamer.gotPrompt, "ctx chunk") {
		t.Fatalf("retrieved chunk missing from prompt:\n%s", streamer.gotPrompt)
	}
	if !strings.Contains(streamer.gotPrompt, "User: hello?") {
		t.Fatalf("question missing from prompt:\n%s", streamer.gotPrompt)
	}
}

func TestQueryFailsBeforeGenerationOnRetrievalError(t *testing.T) {
	streamer := &stubStreamer{}
	r := New(&stubRetriever{err: fmt.Errorf("%w: down", models.ErrEmbeddingFailed)}, streamer, 10)

	_, err := r.Query(context.Background(), "hello?", nil)
	if !errors.Is(err, models.ErrEmbeddingFailed) {
		t.Fatalf("want ErrEmbeddingFailed, got %v", err)
	}
	if streamer.calls != 0 {
		t.Fatalf("generation called after retrieval failure: %d", streamer.calls)
	}
}

func TestQueryWindowsHistory(t *testing.T) {
	streamer := &stubStreamer{events: []generation.Event{{Type: generation.EventStop}}}
	r := New(&stubRetriever{}, streamer, 2)

	msgs := []string{"old question", "old answer", "recent question", "recent answer"}
	if _, err := r.Answer(context.Background(), "now?", msgs); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if strings.Contains(streamer.gotPrompt, "old question") {
		t.Fatalf("evicted history leaked into prompt:\n%s", streamer.gotPrompt)
	}
	if !strings.Contains(streamer.gotPrompt, "user: recent question\nassistant: recent answer") {
		t.Fatalf("kept history missing or mislabeled:\n%s", streamer.gotPrompt)
	}
}

func TestAnswerSurfacesTrailingStreamError(t *testing.T) {
	streamer := &stubStreamer{events: []generation.Event{
		{Type: generation.EventDelta, Text: "partial"},
		{Type: generation.EventError, Err: fmt.Errorf("%w: overloaded", models.ErrGenerationFailed)},
	}}
	r := New(&stubRetriever{}, streamer, 10)

	answer, err := r.Answer(context.Background(), "hello?", nil)
	if !errors.Is(err, models.ErrGenerationFailed) {
		t.Fatalf("want ErrGenerationFailed, got %v", err)
	}
	if answer != "partial" {
		t.Fatalf("partial answer: want %q got %q", "partial", answer)
	}
}
