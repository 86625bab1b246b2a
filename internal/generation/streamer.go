// Package generation drives the remote generative model in streaming mode
// and exposes the response as an ordered sequence of events.
package generation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

type EventType int

const (
	// EventDelta carries one increment of generated text.
	EventDelta EventType = iota
	// EventStop terminates a successful stream. The concatenation of all
	// deltas in emission order is the full answer.
	EventStop
	// EventError terminates a failed stream. Deltas already emitted are
	// not retracted; the answer may be incomplete.
	EventError
)

type Event struct {
	Type EventType
	Text string
	Err  error
}

// Streamer submits (system, prompt) to the generative model with streaming
// enabled and decodes the frame protocol: content_block_delta frames become
// deltas, message_stop ends the stream, error frames and malformed input
// fail it, anything else is ignored for forward compatibility.
type Streamer struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	http        *http.Client
}

func NewStreamer(cfg *config.GenerationConfig) *Streamer {
	return &Streamer{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		http:        &http.Client{Timeout: 5 * time.Minute},
	}
}

type generateRequest struct {
	Model       string            `json:"model"`
	System      string            `json:"system"`
	Messages    []generateMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature"`
	Stream      bool              `json:"stream"`
}

type generateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type frame struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Stream starts the generation request and returns the event channel. The
// channel carries zero or more deltas followed by exactly one terminal
// event (stop or error), then closes. Cancelling ctx stops the underlying
// reads promptly and releases the connection.
func (s *Streamer) Stream(ctx context.Context, system, prompt string) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		s.run(ctx, system, prompt, out)
	}()
	return out
}

// emit delivers ev unless the consumer is gone. A false return means the
// producer must stop immediately.
func emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func fail(ctx context.Context, out chan<- Event, format string, args ...any) {
	err := fmt.Errorf(format, args...)
	emit(ctx, out, Event{Type: EventError, Err: fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)})
}

func (s *Streamer) run(ctx context.Context, system, prompt string, out chan<- Event) {
	body, err := json.Marshal(generateRequest{
		Model:       s.model,
		System:      system,
		Messages:    []generateMessage{{Role: "user", Content: prompt}},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Stream:      true,
	})
	if err != nil {
		fail(ctx, out, "encoding request: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		fail(ctx, out, "building request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		fail(ctx, out, "request: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		fail(ctx, out, "request failed: %d, %s", resp.StatusCode, string(msg))
		return
	}

	reader := bufio.NewReader(resp.Body)
	for {
		if ctx.Err() != nil {
			return
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fail(ctx, out, "stream ended before message_stop")
			} else {
				fail(ctx, out, "reading stream: %v", err)
			}
			return
		}

		line = strings.TrimSpace(line)
		// SSE chrome around the frames: blank separators, comments and
		// event-name lines carry no payload.
		if line == "" || strings.HasPrefix(line, ":") || strings.HasPrefix(line, "event:") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var f frame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &f); err != nil {
			fail(ctx, out, "malformed frame: %v", err)
			return
		}

		switch f.Type {
		case "content_block_delta":
			if !emit(ctx, out, Event{Type: EventDelta, Text: f.Delta.Text}) {
				return
			}
		case "message_stop":
			emit(ctx, out, Event{Type: EventStop})
			return
		case "error":
			fail(ctx, out, "model error: %s", f.Error.Message)
			return
		default:
			// Unknown frame kinds are ignored so new protocol frames do
			// not break older consumers.
		}
	}
}

// Collect drains events into the full answer. On a trailing error event it
// returns the deltas received so far together with the error.
func Collect(events <-chan Event) (string, error) {
	var b strings.Builder
	for ev := range events {
		switch ev.Type {
		case EventDelta:
			b.WriteString(ev.Text)
		case EventStop:
			return b.String(), nil
		case EventError:
			return b.String(), ev.Err
		}
	}
	return b.String(), fmt.Errorf("%w: stream closed without terminal event", models.ErrGenerationFailed)
}
