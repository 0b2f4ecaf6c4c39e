package index

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-assistant/internal/models"
)

const compress = false

// ChromemStore is the default disk-backed index, built on chromem-go's
// persistent DB with cosine similarity. A persisted collection survives
// restarts and is reused as-is unless Reset is called.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	embed      chromem.EmbeddingFunc
}

// NewChromemStore opens (or creates) the persistent database and collection.
func NewChromemStore(path, collection string, inMemory bool, embed chromem.EmbeddingFunc) (*ChromemStore, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("open vector database: %w", err)
		}
	}

	col, err := db.GetOrCreateCollection(collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open collection: %w", err)
	}

	return &ChromemStore{db: db, collection: col, name: collection, embed: embed}, nil
}

// Add inserts chunks in batches of 500 with fresh unique IDs. The embedding
// of each chunk is computed here, once, and never again.
func (s *ChromemStore) Add(ctx context.Context, chunks []models.Chunk) error {
	for start := 0; start < len(chunks); start += addBatchSize {
		end := start + addBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		docs := make([]chromem.Document, 0, end-start)
		for _, c := range chunks[start:end] {
			id, err := uuid.NewRandom()
			if err != nil {
				return fmt.Errorf("generate chunk id: %w", err)
			}
			docs = append(docs, chromem.Document{
				ID:       "chunk-" + id.String(),
				Content:  c.Content,
				Metadata: c.Metadata.ToMap(),
			})
		}
		if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("add documents: %w", err)
		}
		log.Debug().Int("batch", len(docs)).Int("total", s.collection.Count()).Msg("Indexed chunk batch")
	}
	return nil
}

// Query runs a cosine similarity search. n is clamped to the collection
// size; an empty collection yields no results rather than an error.
func (s *ChromemStore) Query(ctx context.Context, text string, n int) ([]models.ScoredChunk, error) {
	if text == "" {
		return nil, ErrEmptyQuery
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if n > count {
		n = count
	}
	if n <= 0 {
		n = 1
	}

	results, err := s.collection.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	out := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		out = append(out, models.ScoredChunk{
			Chunk: models.Chunk{
				Content:  r.Content,
				Metadata: models.MetadataFromMap(r.Metadata),
			},
			Score: float64(r.Similarity),
		})
	}
	return out, nil
}

// Count reports the number of indexed chunks.
func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Reset drops and recreates the collection.
func (s *ChromemStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, s.embed)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = col
	return nil
}
