package index

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-assistant/internal/models"
)

// fakeEmbedding maps text onto a unit vector from three keyword counts, so
// queries about a topic rank chunks about that topic first.
func fakeEmbedding(_ context.Context, text string) ([]float32, error) {
	t := strings.ToLower(text)
	v := []float32{
		float32(strings.Count(t, "thesis") + 1),
		float32(strings.Count(t, "exam") + 1),
		float32(strings.Count(t, "credit") + 1),
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v, nil
}

func chunk(content, source string) models.Chunk {
	return models.Chunk{
		Content: content,
		Metadata: models.ChunkMetadata{
			Source: source, Page: "1", TableNumber: models.NoTableNumber,
		},
	}
}

func newTestStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore("", "docs", true, chromem.EmbeddingFunc(fakeEmbedding))
	require.NoError(t, err)
	return store
}

func TestChromemAddQueryCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Add(ctx, []models.Chunk{
		chunk("The thesis thesis thesis must be registered.", "spo.pdf"),
		chunk("Each exam exam exam awards a grade.", "spo.pdf"),
	}))
	assert.Equal(t, 2, store.Count())

	results, err := store.Query(ctx, "when is the thesis thesis due", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Chunk.Content, "thesis")
	assert.Equal(t, "spo.pdf", results[0].Chunk.Metadata.Source)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestChromemQueryClampsN(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Add(ctx, []models.Chunk{chunk("Credit credit requirements.", "spo.pdf")}))
	results, err := store.Query(ctx, "credits", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestChromemQueryEmptyCollection(t *testing.T) {
	store := newTestStore(t)
	results, err := store.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestChromemQueryEmptyText(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Query(context.Background(), "", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestChromemReset(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Add(ctx, []models.Chunk{chunk("Exam rules apply.", "spo.pdf")}))
	require.NoError(t, store.Reset(ctx))
	assert.Equal(t, 0, store.Count())

	// The store stays usable after a reset.
	require.NoError(t, store.Add(ctx, []models.Chunk{chunk("Exam rules apply.", "spo.pdf")}))
	assert.Equal(t, 1, store.Count())
}

func TestChromemMetadataRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	table := models.Chunk{
		Content: "Table 1 lists exam exam credit values.",
		Metadata: models.ChunkMetadata{
			Source: "modules.pdf", Page: "7", IsTable: true, TableNumber: "1",
			Catalog: "annex_b", Section: "elective_modules",
		},
	}
	require.NoError(t, store.Add(ctx, []models.Chunk{table}))

	results, err := store.Query(ctx, "exam credit table", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, table.Metadata, results[0].Chunk.Metadata)
}
