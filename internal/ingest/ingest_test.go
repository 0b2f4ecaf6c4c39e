package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-assistant/internal/cache"
	"document-assistant/internal/extractor"
	"document-assistant/internal/models"
)

type memStore struct {
	mu     sync.Mutex
	chunks []models.Chunk
	resets int
}

func (m *memStore) Add(_ context.Context, chunks []models.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *memStore) Query(context.Context, string, int) ([]models.ScoredChunk, error) {
	return nil, nil
}

func (m *memStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

func (m *memStore) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = nil
	m.resets++
	return nil
}

func writeDocs(t *testing.T, dir string) {
	t.Helper()
	docs := map[string]string{
		"regulations.txt": "EXAMINATION RULES\nEvery exam must be registered two weeks in advance.",
		"overview.md":     "# Overview\n\nThe program spans seven semesters in total.",
		"notes.bak":       "ignored file",
	}
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func newIngestor(t *testing.T, docs string, store *memStore) *Ingestor {
	t.Helper()
	cacheStore, err := cache.New(t.TempDir(), false)
	require.NoError(t, err)
	return New(docs, extractor.New(extractor.Config{}), cacheStore, store)
}

func TestRunIngestsSupportedFiles(t *testing.T) {
	docs := t.TempDir()
	writeDocs(t, docs)
	store := &memStore{}

	stats, err := newIngestor(t, docs, store).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Zero(t, stats.Failures)
	assert.Equal(t, len(store.chunks), stats.Chunks)
	assert.NotEmpty(t, store.chunks)
}

func TestRunReusesPopulatedIndex(t *testing.T) {
	docs := t.TempDir()
	writeDocs(t, docs)
	store := &memStore{chunks: []models.Chunk{{Content: "existing"}}}

	stats, err := newIngestor(t, docs, store).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, stats.Files)
	assert.Equal(t, 1, stats.Chunks)
	assert.Zero(t, store.resets)
}

func TestRunRebuildClearsFirst(t *testing.T) {
	docs := t.TempDir()
	writeDocs(t, docs)
	store := &memStore{chunks: []models.Chunk{{Content: "stale"}}}

	stats, err := newIngestor(t, docs, store).Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, store.resets)
	assert.Equal(t, 2, stats.Files)
	for _, c := range store.chunks {
		assert.NotEqual(t, "stale", c.Content)
	}
}

func TestRunSkipsBrokenFiles(t *testing.T) {
	docs := t.TempDir()
	writeDocs(t, docs)
	// Not a real zip container, so extraction fails for this file only.
	require.NoError(t, os.WriteFile(filepath.Join(docs, "broken.docx"), []byte("not a docx"), 0o644))
	store := &memStore{}

	stats, err := newIngestor(t, docs, store).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Failures)
}

func TestRunEmptyFolder(t *testing.T) {
	store := &memStore{}
	stats, err := newIngestor(t, t.TempDir(), store).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, stats.Files)
	assert.Zero(t, stats.Chunks)
}

func TestRunConcurrentGuard(t *testing.T) {
	docs := t.TempDir()
	writeDocs(t, docs)
	ing := newIngestor(t, docs, &memStore{})

	ing.mu.Lock()
	_, err := ing.Run(context.Background(), false)
	ing.mu.Unlock()
	assert.ErrorIs(t, err, ErrIngestInProgress)
}

func TestRunUsesCacheOnSecondPass(t *testing.T) {
	docs := t.TempDir()
	writeDocs(t, docs)

	cacheStore, err := cache.New(t.TempDir(), false)
	require.NoError(t, err)
	ext := extractor.New(extractor.Config{})

	store := &memStore{}
	ing := New(docs, ext, cacheStore, store)
	first, err := ing.Run(context.Background(), false)
	require.NoError(t, err)

	// A fresh empty store forces a re-run; results come from the cache and
	// match the first pass exactly.
	store2 := &memStore{}
	ing2 := New(docs, ext, cacheStore, store2)
	second, err := ing2.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, store.chunks, store2.chunks)
}
