// Package chunker converts extracted text into bounded, overlapping chunks
// with citation metadata attached.
package chunker

import (
	"strconv"
	"strings"

	"document-assistant/internal/models"
)

// Default chunk geometry, in words.
const (
	DefaultChunkSize      = 1500
	DefaultOverlap        = 250
	DefaultTableChunkSize = 2000
	DefaultMinWords       = 30
)

// Options control one chunking pass.
type Options struct {
	Size int // window size in words
	// Overlap is the word count shared between consecutive windows.
	// Zero disables overlap; a negative value selects the default.
	Overlap  int
	MinWords int // windows below this are dropped
	Catalog  string
	Section  string
}

func (o Options) withDefaults(isTable bool) Options {
	if o.Size <= 0 {
		if isTable {
			o.Size = DefaultTableChunkSize
		} else {
			o.Size = DefaultChunkSize
		}
	}
	if o.Overlap < 0 {
		if isTable {
			o.Overlap = 0
		} else {
			o.Overlap = DefaultOverlap
		}
	}
	if o.Overlap >= o.Size {
		o.Overlap = o.Size / 2
	}
	if o.MinWords <= 0 {
		o.MinWords = DefaultMinWords
	}
	return o
}

// Split slices text into chunks of at most Size words, advancing by
// Size-Overlap words per window. Text at or under the window size becomes a
// single chunk with no truncation. Trailing windows below the minimum word
// floor are dropped; the single-chunk case is exempt, which is how short
// table renderings survive.
func Split(text string, page int, source string, isTable bool, tableNum int, opts Options) []models.Chunk {
	opts = opts.withDefaults(isTable)

	meta := models.ChunkMetadata{
		Source:      source,
		Page:        pageLabel(page),
		IsTable:     isTable,
		TableNumber: models.NoTableNumber,
		Catalog:     opts.Catalog,
		Section:     opts.Section,
	}
	if isTable && tableNum > 0 {
		meta.TableNumber = strconv.Itoa(tableNum)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	if len(words) <= opts.Size {
		c, err := models.NewChunk(text, meta)
		if err != nil {
			return nil
		}
		return []models.Chunk{c}
	}

	stride := opts.Size - opts.Overlap
	var chunks []models.Chunk
	for i := 0; i < len(words); i += stride {
		end := i + opts.Size
		if end > len(words) {
			end = len(words)
		}
		window := words[i:end]
		if len(window) < opts.MinWords {
			continue
		}
		c, err := models.NewChunk(strings.Join(window, " "), meta)
		if err != nil {
			continue
		}
		chunks = append(chunks, c)
		if end == len(words) {
			break
		}
	}
	return chunks
}

func pageLabel(page int) string {
	if page <= 0 {
		return models.NoTableNumber
	}
	return strconv.Itoa(page)
}
