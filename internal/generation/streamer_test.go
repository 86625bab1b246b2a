package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

func newTestStreamer(t *testing.T, handler http.HandlerFunc) *Streamer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStreamer(&config.GenerationConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Model:       "claude-3-haiku",
		MaxTokens:   1024,
		Temperature: 0.7,
	})
}

func sseHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		f := w.(http.Flusher)
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n", l)
			f.Flush()
		}
	}
}

func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	return got
}

func TestStreamDeltasThenStop(t *testing.T) {
	s := newTestStreamer(t, sseHandler(
		`event: content_block_delta`,
		`data: {"type":"content_block_delta","delta":{"text":"Hi"}}`,
		``,
		`data: {"type":"content_block_delta","delta":{"text":" there"}}`,
		``,
		`data: {"type":"message_stop"}`,
	))

	got := drain(t, s.Stream(context.Background(), "system", "prompt"))
	want := []Event{
		{Type: EventDelta, Text: "Hi"},
		{Type: EventDelta, Text: " there"},
		{Type: EventStop},
	}
	if len(got) != len(want) {
		t.Fatalf("events: want %d got %d (%+v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Type != want[i].Type || got[i].Text != want[i].Text {
			t.Fatalf("event %d: want %+v got %+v", i, want[i], got[i])
		}
	}
}

func TestCollectConcatenatesInOrder(t *testing.T) {
	s := newTestStreamer(t, sseHandler(
		`data: {"type":"content_block_delta","delta":{"text":"Hi"}}`,
		`data: {"type":"content_block_delta","delta":{"text":" there"}}`,
		`data: {"type":"message_stop"}`,
	))

	answer, err := Collect(s.Stream(context.Background(), "system", "prompt"))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if answer != "Hi there" {
		t.Fatalf("answer: want %q got %q", "Hi there", answer)
	}
}

func TestStreamIgnoresUnknownFrames(t *testing.T) {
	s := newTestStreamer(t, sseHandler(
		`data: {"type":"message_start"}`,
		`data: {"type":"content_block_start"}`,
		`data: {"type":"content_block_delta","delta":{"text":"ok"}}`,
		`data: {"type":"ping"}`,
		`data: {"type":"message_stop"}`,
	))

	got := drain(t, s.Stream(context.Background(), "system", "prompt"))
	if len(got) != 2 {
		t.Fatalf("events: want 2 got %d (%+v)", len(got), got)
	}
	if got[0].Type != EventDelta || got[0].Text != "ok" || got[1].Type != EventStop {
		t.Fatalf("events: %+v", got)
	}
}

func TestStreamErrorFrameTerminates(t *testing.T) {
	s := newTestStreamer(t, sseHandler(
		`data: {"type":"content_block_delta","delta":{"text":"partial"}}`,
		`data: {"type":"error","error":{"message":"overloaded"}}`,
		`data: {"type":"content_block_delta","delta":{"text":"never delivered"}}`,
	))

	got := drain(t, s.Stream(context.Background(), "system", "prompt"))
	last := got[len(got)-1]
	if last.Type != EventError || !errors.Is(last.Err, models.ErrGenerationFailed) {
		t.Fatalf("terminal event: %+v", last)
	}
	for _, ev := range got[:len(got)-1] {
		if ev.Type != EventDelta {
			t.Fatalf("non-delta before terminal event: %+v", ev)
		}
	}
	if got[0].Text != "partial" {
		t.Fatalf("delivered delta before failure lost: %+v", got[0])
	}
}

func TestStreamMalformedFrameFails(t *testing.T) {
	s := newTestStreamer(t, sseHandler(
		`data: {"type":"content_block_delta"`,
	))

	answer, err := Collect(s.Stream(context.Background(), "system", "prompt"))
	if !errors.Is(err, models.ErrGenerationFailed) {
		t.Fatalf("want ErrGenerationFailed, got %v (answer %q)", err, answer)
	}
}

func TestStreamEOFWithoutStopFails(t *testing.T) {
	s := newTestStreamer(t, sseHandler(
		`data: {"type":"content_block_delta","delta":{"text":"cut"}}`,
	))

	answer, err := Collect(s.Stream(context.Background(), "system", "prompt"))
	if !errors.Is(err, models.ErrGenerationFailed) {
		t.Fatalf("want ErrGenerationFailed, got %v", err)
	}
	if answer != "cut" {
		t.Fatalf("partial answer: want %q got %q", "cut", answer)
	}
}

func TestStreamHTTPErrorFails(t *testing.T) {
	s := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	got := drain(t, s.Stream(context.Background(), "system", "prompt"))
	if len(got) != 1 || got[0].Type != EventError {
		t.Fatalf("events: %+v", got)
	}
}

func TestStreamExactlyOneTerminalEvent(t *testing.T) {
	s := newTestStreamer(t, sseHandler(
		`data: {"type":"content_block_delta","delta":{"text":"a"}}`,
		`data: {"type":"message_stop"}`,
		`data: {"type":"message_stop"}`,
	))

	got := drain(t, s.Stream(context.Background(), "system", "prompt"))
	terminals := 0
	for i, ev := range got {
		if ev.Type == EventStop || ev.Type == EventError {
			terminals++
			if i != len(got)-1 {
				t.Fatalf("event after terminal: %+v", got)
			}
		}
	}
	if terminals != 1 {
		t.Fatalf("terminal events: want 1 got %d (%+v)", terminals, got)
	}
}

func TestStreamCancellationStopsProducer(t *testing.T) {
	release := make(chan struct{})
	s := newTestStreamer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		f := w.(http.Flusher)
		fmt.Fprintf(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"x\"}}\n")
		f.Flush()
		// Hold the stream open until the client goes away.
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	events := s.Stream(ctx, "system", "prompt")

	first := <-events
	if first.Type != EventDelta || first.Text != "x" {
		t.Fatalf("first event: %+v", first)
	}
	cancel()

	select {
	case _, open := <-events:
		if open {
			// One in-flight event may slip out; the channel must still
			// close right after.
			select {
			case _, open = <-events:
				if open {
					t.Fatal("events still flowing after cancellation")
				}
			case <-time.After(2 * time.Second):
				t.Fatal("channel not closed after cancellation")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}
