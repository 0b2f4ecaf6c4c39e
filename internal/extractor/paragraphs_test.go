package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-assistant/internal/models"
)

func TestCleanText(t *testing.T) {
	in := "  Admission   requirements \n\n\n  apply\tto  all \n"
	assert.Equal(t, "Admission requirements\napply to all", CleanText(in))
	assert.Equal(t, "", CleanText("   \n \t \n"))
}

func TestStructurePiecesHeadings(t *testing.T) {
	pieces := structurePieces("EXAMINATION REGULATIONS\nThe exam must be registered online.")
	require.Len(t, pieces, 2)
	assert.Equal(t, models.BlockHeading, pieces[0].Type)
	assert.Equal(t, "EXAMINATION REGULATIONS", pieces[0].Text)
	assert.Equal(t, models.BlockParagraph, pieces[1].Type)

	pieces = structurePieces("Module Overview:\nEach module awards five credits.")
	require.Len(t, pieces, 2)
	assert.Equal(t, models.BlockHeading, pieces[0].Type)
	assert.Equal(t, "Module Overview:", pieces[0].Text)
}

func TestStructurePiecesListItems(t *testing.T) {
	pieces := structurePieces("1. Register for the exam\n2) Submit the form\n- Bring your student card")
	require.Len(t, pieces, 3)
	for _, p := range pieces {
		assert.Equal(t, models.BlockListItem, p.Type)
	}
}

func TestStructurePiecesNoiseDropped(t *testing.T) {
	// Short lowercase fragments are noise; short numbered lines are kept.
	pieces := structurePieces("page 4\nThe thesis must be submitted in duplicate.")
	require.Len(t, pieces, 1)
	assert.Equal(t, models.BlockParagraph, pieces[0].Type)
	assert.Contains(t, pieces[0].Text, "thesis")
}

func TestStructurePiecesParagraphAccumulation(t *testing.T) {
	in := "The internship lasts twenty weeks and\nmust be completed before the thesis ."
	pieces := structurePieces(in)
	require.Len(t, pieces, 1)
	// Lines join with a space and stray space before punctuation is removed.
	assert.Equal(t, "The internship lasts twenty weeks and must be completed before the thesis.", pieces[0].Text)
}

func TestStructureTextFallback(t *testing.T) {
	// Nothing survives classification, so the cleaned raw text comes back.
	in := "x1\ny2\nz3"
	assert.Equal(t, CleanText(in), StructureText(in))
}

func TestStructureTextRendering(t *testing.T) {
	out := StructureText("GENERAL RULES\n1. First rule applies here\n2. Second rule applies here")
	assert.True(t, strings.HasPrefix(out, "### GENERAL RULES"))
	assert.Contains(t, out, "1. First rule applies here\n2. Second rule applies here")
}

func TestStructureBlocksStampsPosition(t *testing.T) {
	blocks := structureBlocks("SCHEDULE\nLectures start in October every year.", 3, 42.5)
	require.NotEmpty(t, blocks)
	for _, b := range blocks {
		assert.Equal(t, 3, b.Page)
		assert.Equal(t, 42.5, b.YPosition)
	}
}
