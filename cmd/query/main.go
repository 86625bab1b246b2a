package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/embedding"
	"github.com/avsthiago/e2e-serverless-rag/internal/generation"
	"github.com/avsthiago/e2e-serverless-rag/internal/rag"
	"github.com/avsthiago/e2e-serverless-rag/internal/retriever"
	"github.com/avsthiago/e2e-serverless-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	question := flag.String("question", "", "Single question to answer; omit for interactive chat")
	var messages []string
	flag.Func("m", "Prior conversation message, repeatable, user/assistant alternating", func(s string) error {
		messages = append(messages, s)
		return nil
	})
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	embedder, err := embedding.NewClient(&cfg.Embedding)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	ctx := context.Background()
	stores := store.NewProvider(func() (store.Store, error) {
		return store.NewFromConfig(ctx, &cfg.Store)
	})
	defer stores.Close()

	r := rag.New(
		retriever.New(embedder, stores, cfg.RAG.TopK),
		generation.NewStreamer(&cfg.Generation),
		cfg.RAG.MessagesLimit,
	)

	if *question != "" {
		if _, err := ask(ctx, r, *question, messages); err != nil {
			log.Fatal().Err(err).Msg("Error answering question")
		}
		return
	}

	chat(ctx, r, messages)
}

// ask streams one answer to stdout and returns the full text.
func ask(ctx context.Context, r *rag.RAG, question string, messages []string) (string, error) {
	events, err := r.Query(ctx, question, messages)
	if err != nil {
		return "", err
	}

	var answer strings.Builder
	for ev := range events {
		switch ev.Type {
		case generation.EventDelta:
			fmt.Print(ev.Text)
			answer.WriteString(ev.Text)
		case generation.EventStop:
			fmt.Println()
			return answer.String(), nil
		case generation.EventError:
			fmt.Println()
			// Deltas already printed stand; the answer is incomplete.
			return answer.String(), ev.Err
		}
	}
	return answer.String(), nil
}

// chat runs a REPL. Each turn appends the question and the full answer to
// the history, which is windowed per request by the query path.
func chat(ctx context.Context, r *rag.RAG, messages []string) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			fmt.Print("> ")
			continue
		}
		if question == "exit" || question == "quit" {
			return
		}

		messages = append(messages, question)
		answer, err := ask(ctx, r, question, messages)
		if err != nil {
			log.Error().Err(err).Msg("Query failed")
		}
		messages = append(messages, answer)
		fmt.Print("> ")
	}
}
