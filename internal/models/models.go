package models

import (
	"fmt"
	"strconv"
	"strings"
)

// BlockType classifies a content block emitted by the extractor.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockListItem  BlockType = "list_item"
	BlockTable     BlockType = "table"
)

// ContentBlock is one extracted unit of a document, ordered by reading
// position (page, then vertical position on the page). Blocks are ephemeral;
// they are consumed by the chunker and never persisted.
type ContentBlock struct {
	Type       BlockType `json:"type"`
	Text       string    `json:"text"`
	Page       int       `json:"page"`
	YPosition  float64   `json:"y_position"`
	TableIndex int       `json:"table_index,omitempty"`
}

// NoTableNumber is the sentinel for chunks that do not come from a table.
const NoTableNumber = "N/A"

// ChunkMetadata carries the citation data attached to every chunk.
type ChunkMetadata struct {
	Source      string `json:"source"`
	Page        string `json:"page"`
	IsTable     bool   `json:"is_table"`
	TableNumber string `json:"table_number"`
	Catalog     string `json:"catalog,omitempty"`
	Section     string `json:"section,omitempty"`
}

// Chunk is the atomic unit of retrieval: a bounded piece of document text
// with citation metadata. Chunks are immutable once created.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// NewChunk validates and builds a chunk. Content must be non-blank and the
// metadata must be traceable to a source file and page.
func NewChunk(content string, meta ChunkMetadata) (Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return Chunk{}, fmt.Errorf("chunk content is empty")
	}
	if meta.Source == "" {
		return Chunk{}, fmt.Errorf("chunk has no source file")
	}
	if meta.Page == "" {
		meta.Page = NoTableNumber
	}
	if meta.TableNumber == "" {
		meta.TableNumber = NoTableNumber
	}
	if meta.IsTable && meta.TableNumber == NoTableNumber {
		return Chunk{}, fmt.Errorf("table chunk has no table number")
	}
	return Chunk{Content: content, Metadata: meta}, nil
}

// ToMap flattens the metadata for index backends that store string pairs.
func (m ChunkMetadata) ToMap() map[string]string {
	out := map[string]string{
		"source":       m.Source,
		"page":         m.Page,
		"is_table":     strconv.FormatBool(m.IsTable),
		"table_number": m.TableNumber,
	}
	if m.Catalog != "" {
		out["catalog"] = m.Catalog
	}
	if m.Section != "" {
		out["section"] = m.Section
	}
	return out
}

// MetadataFromMap rebuilds chunk metadata from its flattened form.
func MetadataFromMap(m map[string]string) ChunkMetadata {
	isTable, _ := strconv.ParseBool(m["is_table"])
	meta := ChunkMetadata{
		Source:      m["source"],
		Page:        m["page"],
		IsTable:     isTable,
		TableNumber: m["table_number"],
		Catalog:     m["catalog"],
		Section:     m["section"],
	}
	if meta.TableNumber == "" {
		meta.TableNumber = NoTableNumber
	}
	return meta
}

// ScoredChunk is a chunk paired with a retrieval or re-ranking score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// DocumentInfo is the full per-file extraction result, the unit stored in
// the extraction cache.
type DocumentInfo struct {
	Chunks          []Chunk `json:"chunks"`
	TotalPages      int     `json:"total_pages"`
	TotalTables     int     `json:"total_tables"`
	PagesWithTables []int   `json:"pages_with_tables"`
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationTurn is one message of a chat session. The core reads turns,
// it never mutates them.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
