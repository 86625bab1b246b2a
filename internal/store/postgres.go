package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/avsthiago/e2e-serverless-rag/internal/config"
	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// VectorDim is baked into the chunks table schema. Changing it requires a
// new table; there is no migration path.
const VectorDim = 1024

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement"`
	FileName      string    `bun:"file_name,notnull"`
	PageNumber    int       `bun:"page_number,notnull"`
	Text          string    `bun:"text,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(1024)"`
}

// PostgresStore keeps chunks in a pgvector table and searches them with
// the <-> distance operator.
type PostgresStore struct {
	db *bun.DB
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	)), nil
}

func NewPostgresStore(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	s := &PostgresStore{db: db}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = chunkRow{
			FileName:   c.FileName,
			PageNumber: c.PageNumber,
			Text:       c.Text,
			Embedding:  c.Vector,
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error) {
	var rows []chunkRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("file_name", "page_number", "text").
		OrderExpr("embedding <-> ?", vector).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}
	results := make([]models.RetrievedChunk, len(rows))
	for i, r := range rows {
		results[i] = models.RetrievedChunk{
			FileName:   r.FileName,
			PageNumber: r.PageNumber,
			Text:       r.Text,
			Rank:       i,
		}
	}
	return results, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
