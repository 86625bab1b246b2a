package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avsthiago/e2e-serverless-rag/internal/chunker"
	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/embedding"
	"github.com/avsthiago/e2e-serverless-rag/internal/extract"
	"github.com/avsthiago/e2e-serverless-rag/internal/helper"
	"github.com/avsthiago/e2e-serverless-rag/internal/ingest"
	"github.com/avsthiago/e2e-serverless-rag/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	bucket := flag.String("bucket", "", "Bucket holding the document")
	key := flag.String("key", "", "Document key (may be percent-encoded)")
	dryRun := flag.Bool("dry-run", false, "Extract and chunk only, do not embed or store")
	flag.Parse()

	if *bucket == "" || *key == "" {
		log.Fatal().Msg("Please provide both -bucket and -key")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg.RAG).Msg("Loaded config")

	splitter, err := chunker.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating splitter")
	}

	if *dryRun {
		dryRunChunks(*bucket, *key, cfg, splitter)
		return
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

	pipeline := ingest.NewPipeline(splitter, embedder, stores, &ingest.LocalFetcher{Root: cfg.Storage.Root})
	if err := pipeline.Run(ctx, ingest.Trigger{Bucket: *bucket, Key: *key}); err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	log.Info().Str("bucket", *bucket).Str("key", *key).Msg("Document ingested")
}

// dryRunChunks extracts and chunks without touching the embedder or the
// store, printing what would be ingested.
func dryRunChunks(bucket, key string, cfg *config.Config, splitter *chunker.Splitter) {
	path := cfg.Storage.Root + "/" + bucket + "/" + key
	pages, err := extract.ExtractPages(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Error extracting document")
	}
	type pageChunks struct {
		Page   int      `json:"page"`
		Chunks []string `json:"chunks"`
	}
	var out []pageChunks
	for _, page := range pages {
		out = append(out, pageChunks{Page: page.Number, Chunks: splitter.Split(page.Text)})
	}
	helper.PrettyPrint(out)
}
