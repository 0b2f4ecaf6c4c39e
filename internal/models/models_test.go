package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkValidation(t *testing.T) {
	_, err := NewChunk("   ", ChunkMetadata{Source: "spo.pdf"})
	assert.Error(t, err)

	_, err = NewChunk("content", ChunkMetadata{})
	assert.Error(t, err)

	_, err = NewChunk("content", ChunkMetadata{Source: "spo.pdf", IsTable: true})
	assert.Error(t, err)

	c, err := NewChunk("content", ChunkMetadata{Source: "spo.pdf"})
	require.NoError(t, err)
	assert.Equal(t, NoTableNumber, c.Metadata.Page)
	assert.Equal(t, NoTableNumber, c.Metadata.TableNumber)
}

func TestMetadataMapRoundtrip(t *testing.T) {
	meta := ChunkMetadata{
		Source: "modules.pdf", Page: "7", IsTable: true, TableNumber: "2",
		Catalog: "annex_b", Section: "elective_modules",
	}
	assert.Equal(t, meta, MetadataFromMap(meta.ToMap()))

	plain := ChunkMetadata{Source: "spo.pdf", Page: "1", TableNumber: NoTableNumber}
	m := plain.ToMap()
	assert.Equal(t, "false", m["is_table"])
	assert.NotContains(t, m, "catalog")
	assert.Equal(t, plain, MetadataFromMap(m))
}
