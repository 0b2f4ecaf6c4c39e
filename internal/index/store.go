// Package index persists chunk embeddings and serves similarity queries.
// Embeddings are computed once at insertion by a single shared multilingual
// embedding function; corpus and query text go through the same function so
// the similarity space stays symmetric.
package index

import (
	"context"
	"errors"

	"document-assistant/internal/models"
)

// ErrEmptyQuery reports a similarity query with no text.
var ErrEmptyQuery = errors.New("query text is empty")

// addBatchSize bounds the memory held by one insertion batch.
const addBatchSize = 500

// Store is a persistent vector index over chunks.
type Store interface {
	// Add inserts chunks in bounded batches, embedding each one exactly once.
	Add(ctx context.Context, chunks []models.Chunk) error
	// Query returns up to n chunks ranked by similarity to the text.
	Query(ctx context.Context, text string, n int) ([]models.ScoredChunk, error)
	// Count reports the number of indexed chunks.
	Count() int
	// Reset drops all indexed chunks (explicit invalidation only).
	Reset(ctx context.Context) error
}
