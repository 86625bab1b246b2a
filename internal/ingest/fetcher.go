package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// Fetcher is the document storage collaborator: it materializes the object
// at bucket/key inside dir and returns the local path.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key, dir string) (string, error)
}

// LocalFetcher serves buckets from subdirectories of Root. It stands in
// for the remote object store during local runs and tests.
type LocalFetcher struct {
	Root string
}

func (f *LocalFetcher) Fetch(ctx context.Context, bucket, key, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	src, err := os.Open(filepath.Join(f.Root, bucket, key))
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, filepath.Base(key))
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrDownloadFailed, err)
	}
	return dstPath, nil
}
