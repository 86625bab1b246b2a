package models

import "errors"

// Error kinds shared across the ingestion and query paths. Wrapped with
// fmt.Errorf("...: %w", ...) at the failure site and discriminated with
// errors.Is by callers.
var (
	// ErrUnsupportedFormat means the trigger key does not end in a
	// recognized document extension. Aborts the ingestion job.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrDownloadFailed means the document could not be fetched from the
	// storage collaborator. Aborts the ingestion job.
	ErrDownloadFailed = errors.New("document download failed")

	// ErrOcrFailed means text extraction failed. Per-page occurrences are
	// logged and skipped; a whole-document failure aborts the job.
	ErrOcrFailed = errors.New("text extraction failed")

	// ErrEmbeddingFailed is fatal for queries. Document-side embedding
	// failures degrade to an empty result instead.
	ErrEmbeddingFailed = errors.New("embedding request failed")

	// ErrStoreUnavailable means the vector store could not be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrGenerationFailed terminates a generation stream. Deltas already
	// delivered are not retracted; the answer may be incomplete.
	ErrGenerationFailed = errors.New("generation request failed")
)
