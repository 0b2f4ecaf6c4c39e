package index

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-assistant/internal/models"
)

// vectorSize matches the multilingual embedding model's output dimension.
const vectorSize = 768

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Content     string    `bun:"content,notnull"`
	Embedding   []float32 `bun:"embedding,notnull,type:vector(768)"`
	Source      string    `bun:"source,notnull"`
	Page        string    `bun:"page,notnull"`
	IsTable     bool      `bun:"is_table,notnull"`
	TableNumber string    `bun:"table_number,notnull"`
	Catalog     string    `bun:"catalog"`
	Section     string    `bun:"section"`

	Distance float64 `bun:"distance,scanonly"`
}

// PgStore is the pgvector-backed index variant, for deployments that already
// run Postgres. Same contract as ChromemStore.
type PgStore struct {
	db       *bun.DB
	embedder *embeddings.EmbedderImpl
}

// NewPgStore connects, optionally enables query logging, and ensures the
// chunks table exists.
func NewPgStore(ctx context.Context, dsn string, debug bool, embedder *embeddings.EmbedderImpl) (*PgStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("init chunks table: %w", err)
	}
	return &PgStore{db: db, embedder: embedder}, nil
}

// Add embeds and inserts chunks in bounded batches.
func (s *PgStore) Add(ctx context.Context, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += addBatchSize {
		end := start + addBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		if len(vectors) > 0 && len(vectors[0]) != vectorSize {
			return fmt.Errorf("embedding dimension %d does not match column vector(%d)", len(vectors[0]), vectorSize)
		}

		rows := make([]chunkRow, len(batch))
		for i, c := range batch {
			rows[i] = chunkRow{
				Content:     c.Content,
				Embedding:   vectors[i],
				Source:      c.Metadata.Source,
				Page:        c.Metadata.Page,
				IsTable:     c.Metadata.IsTable,
				TableNumber: c.Metadata.TableNumber,
				Catalog:     c.Metadata.Catalog,
				Section:     c.Metadata.Section,
			}
		}
		if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
	}
	return nil
}

// Query embeds the text with the same shared embedder and ranks rows by
// cosine distance.
func (s *PgStore) Query(ctx context.Context, text string, n int) ([]models.ScoredChunk, error) {
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if n <= 0 {
		n = 1
	}

	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var rows []chunkRow
	err = s.db.NewSelect().
		Model(&rows).
		ColumnExpr("c.*").
		ColumnExpr("embedding <=> ? AS distance", vector).
		OrderExpr("embedding <=> ?", vector).
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	out := make([]models.ScoredChunk, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ScoredChunk{
			Chunk: models.Chunk{
				Content: r.Content,
				Metadata: models.ChunkMetadata{
					Source:      r.Source,
					Page:        r.Page,
					IsTable:     r.IsTable,
					TableNumber: r.TableNumber,
					Catalog:     r.Catalog,
					Section:     r.Section,
				},
			},
			Score: 1 - r.Distance,
		})
	}
	return out, nil
}

// Count reports the number of indexed chunks; errors count as empty.
func (s *PgStore) Count() int {
	count, err := s.db.NewSelect().Model((*chunkRow)(nil)).Count(context.Background())
	if err != nil {
		return 0
	}
	return count
}

// Reset drops and recreates the chunks table.
func (s *PgStore) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*chunkRow)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("drop chunks table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*chunkRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("recreate chunks table: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *PgStore) Close() error {
	return s.db.Close()
}
