// Package ingest orchestrates the write path: trigger → download →
// per-page extraction → chunking → embedding → vector store write.
package ingest

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avsthiago/e2e-serverless-rag/internal/chunker"
	"github.com/avsthiago/e2e-serverless-rag/internal/embedding"
	"github.com/avsthiago/e2e-serverless-rag/internal/extract"
	"github.com/avsthiago/e2e-serverless-rag/internal/helper"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
	"github.com/avsthiago/e2e-serverless-rag/internal/store"
)

// Trigger identifies a document in the storage collaborator. Keys arrive
// percent-encoded from the notification payload.
type Trigger struct {
	Bucket string
	Key    string
}

// ExtractFunc produces per-page text for a downloaded document.
type ExtractFunc func(path string) ([]extract.Page, error)

// Pipeline ingests one document at a time. Pages are independent: a page
// that fails to extract or embed is logged and skipped, never aborting its
// siblings. Only setup failures (bad trigger, unsupported format, download,
// store unreachable) fail the job.
type Pipeline struct {
	splitter *chunker.Splitter
	embedder embedding.Client
	stores   *store.Provider
	fetcher  Fetcher
	extract  ExtractFunc
	workers  int
}

func NewPipeline(splitter *chunker.Splitter, embedder embedding.Client, stores *store.Provider, fetcher Fetcher) *Pipeline {
	return &Pipeline{
		splitter: splitter,
		embedder: embedder,
		stores:   stores,
		fetcher:  fetcher,
		extract:  extract.ExtractPages,
		workers:  4,
	}
}

// WithExtractor swaps the page extractor, mainly for tests.
func (p *Pipeline) WithExtractor(fn ExtractFunc) *Pipeline {
	p.extract = fn
	return p
}

// Run processes a single trigger end to end.
func (p *Pipeline) Run(ctx context.Context, trig Trigger) error {
	jobID, _ := helper.GenerateUUID()
	logger := log.With().Str("job_id", jobID).Str("bucket", trig.Bucket).Str("key", trig.Key).Logger()

	key, err := url.QueryUnescape(trig.Key)
	if err != nil {
		return fmt.Errorf("decoding key %q: %w", trig.Key, err)
	}

	ext := filepath.Ext(key)
	if !extract.Recognized(ext) {
		return fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, ext)
	}

	st, err := p.stores.Get()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	tempDir, err := os.MkdirTemp("", "ingest-")
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Warn().Err(err).Str("dir", tempDir).Msg("Error cleaning up temporary folder")
		}
	}()

	path, err := p.fetcher.Fetch(ctx, trig.Bucket, key, tempDir)
	if err != nil {
		return err
	}
	logger.Info().Str("path", path).Msg("Downloaded document")

	pages, err := p.extract(path)
	if err != nil {
		return err
	}
	logger.Info().Int("pages", len(pages)).Msg("Extracted document pages")

	fileName := filepath.Base(key)
	p.ingestPages(ctx, st, fileName, pages, logger)
	return nil
}

// ingestPages runs pages through chunk → embed → upsert with a bounded
// worker pool. Page failures are logged, not returned: sibling pages must
// not be aborted by one bad page.
func (p *Pipeline) ingestPages(ctx context.Context, st store.Store, fileName string, pages []extract.Page, logger zerolog.Logger) {
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup
	for _, page := range pages {
		wg.Add(1)
		sem <- struct{}{}
		go func(page extract.Page) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := p.ingestPage(ctx, st, fileName, page); err != nil {
				logger.Warn().Err(err).Int("page", page.Number).Msg("Page ingestion failed")
			}
		}(page)
	}
	wg.Wait()
}

func (p *Pipeline) ingestPage(ctx context.Context, st store.Store, fileName string, page extract.Page) error {
	text := strings.TrimSpace(page.Text)
	if text == "" {
		// Deliberate short-circuit: nothing to embed, nothing to store.
		log.Debug().Str("file", fileName).Int("page", page.Number).Msg("No text found on page, skipping")
		return nil
	}

	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return nil
	}

	res, err := p.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return err
	}
	if len(res.Embeddings) == 0 {
		log.Warn().Str("file", fileName).Int("page", page.Number).Msg("No embeddings for page, skipping")
		return nil
	}

	// Pair by the echoed texts; the server may have filtered some out.
	n := len(res.Embeddings)
	if len(res.Texts) < n {
		n = len(res.Texts)
	}
	records := make([]models.Chunk, n)
	for i := 0; i < n; i++ {
		records[i] = models.Chunk{
			FileName:   fileName,
			PageNumber: page.Number,
			Text:       res.Texts[i],
			Vector:     res.Embeddings[i],
		}
	}

	if err := st.Upsert(ctx, records); err != nil {
		return err
	}
	log.Info().Str("file", fileName).Int("page", page.Number).Int("chunks", len(records)).Msg("Stored page chunks")
	return nil
}
