package store

import (
	"context"
	"fmt"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
)

// NewFromConfig opens the adapter selected under store.provider.
func NewFromConfig(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch cfg.Provider {
	case "postgres":
		return NewPostgresStore(ctx, &cfg.Database)
	case "chromem":
		return NewChromemStore(cfg.Chromem.Path, cfg.Chromem.Collection, cfg.Chromem.InMemory)
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Provider)
	}
}
