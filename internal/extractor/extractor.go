// Package extractor parses PDF, DOCX, TXT, Markdown and XLSX documents into
// ordered content blocks and chunk sets with citation metadata.
package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"document-assistant/internal/chunker"
	"document-assistant/internal/models"
)

var (
	// ErrUnsupportedFormat reports a file extension no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidCredentials reports an encrypted PDF the configured
	// password did not open. Per-file; batch processing continues.
	ErrInvalidCredentials = errors.New("invalid PDF password")
)

// Config carries the extraction and chunking settings. Overlap zero means
// no overlap; negative selects the chunker default.
type Config struct {
	PDFPassword    string
	ChunkSize      int
	Overlap        int
	TableChunkSize int
	MinChunkWords  int
}

// Extractor parses single documents into DocumentInfo results.
type Extractor struct {
	cfg Config
}

// New builds an extractor; zero size fields fall back to the chunker
// defaults.
func New(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract parses one document, dispatching on the (lowercased) extension.
func (e *Extractor) Extract(path string) (*models.DocumentInfo, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(path)
	case ".docx":
		return e.extractDOCX(path)
	case ".txt":
		return e.extractTXT(path)
	case ".md":
		return e.extractMarkdown(path)
	case ".xlsx":
		return e.extractXLSX(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

var (
	catalogRe = regexp.MustCompile(`(?i)\b(annex|anlage|appendix)\s+([A-Za-z0-9]+)`)
	sectionRe = regexp.MustCompile(`(?i)elective\s+module`)
)

// assemble turns the ordered block sequence into the per-file result:
// page-level text chunks plus separate table chunks, with document-global
// table numbering and table statistics.
func (e *Extractor) assemble(filename string, blocks []models.ContentBlock, totalPages int) *models.DocumentInfo {
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Page != blocks[j].Page {
			return blocks[i].Page < blocks[j].Page
		}
		return blocks[i].YPosition < blocks[j].YPosition
	})

	info := &models.DocumentInfo{TotalPages: totalPages}

	byPage := map[int][]models.ContentBlock{}
	var pages []int
	for _, b := range blocks {
		if _, ok := byPage[b.Page]; !ok {
			pages = append(pages, b.Page)
		}
		byPage[b.Page] = append(byPage[b.Page], b)
	}
	sort.Ints(pages)

	textOpts := chunker.Options{Size: e.cfg.ChunkSize, Overlap: e.cfg.Overlap, MinWords: e.cfg.MinChunkWords}
	tableOpts := chunker.Options{Size: e.cfg.TableChunkSize, Overlap: 0, MinWords: e.cfg.MinChunkWords}

	for _, page := range pages {
		pageBlocks := byPage[page]

		catalog, section := structureTags(pageBlocks)
		pOpts, tOpts := textOpts, tableOpts
		pOpts.Catalog, pOpts.Section = catalog, section
		tOpts.Catalog, tOpts.Section = catalog, section

		var b strings.Builder
		b.WriteString(fmt.Sprintf("# Document: %s\n\n## Page %d\n\n", filename, page))
		for _, blk := range pageBlocks {
			b.WriteString(blk.Text)
			b.WriteString("\n\n")
		}
		info.Chunks = append(info.Chunks, chunker.Split(b.String(), page, filename, false, 0, pOpts)...)

		pageHasTable := false
		for _, blk := range pageBlocks {
			if blk.Type != models.BlockTable {
				continue
			}
			info.TotalTables++
			pageHasTable = true
			info.Chunks = append(info.Chunks, chunker.Split(blk.Text, page, filename, true, blk.TableIndex, tOpts)...)
		}
		if pageHasTable {
			info.PagesWithTables = append(info.PagesWithTables, page)
		}
	}
	return info
}

// structureTags derives optional catalog/section markers from the page's
// headings so structure-aware filtering can target annexes and elective
// module lists.
func structureTags(blocks []models.ContentBlock) (catalog, section string) {
	for _, b := range blocks {
		if b.Type != models.BlockHeading {
			continue
		}
		if catalog == "" {
			if m := catalogRe.FindStringSubmatch(b.Text); m != nil {
				catalog = strings.ToLower(m[1]) + "_" + strings.ToLower(m[2])
			}
		}
		if section == "" && sectionRe.MatchString(b.Text) {
			section = "elective_modules"
		}
	}
	return catalog, section
}
