package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"document-assistant/internal/models"
)

const defaultPageHeight = 792 // US Letter in points, used when MediaBox is absent

func (e *Extractor) extractPDF(path string) (*models.DocumentInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	r, err := pdf.NewReaderEncrypted(f, stat.Size(), passwordOnce(e.cfg.PDFPassword))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	filename := filepath.Base(path)
	numPages := r.NumPage()
	var blocks []models.ContentBlock
	tableCount := 0

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		height := pageHeight(page)

		var runs []textRun
		for _, t := range page.Content().Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			// flip to top-origin so ascending y is reading order
			runs = append(runs, textRun{x: t.X, y: height - t.Y, w: t.W, s: t.S})
		}
		if len(runs) == 0 {
			continue
		}

		lines := buildLines(runs)
		tables, rest := detectTables(lines)

		for _, tb := range tables {
			text := FormatTable(tb.rows, tableCount+1)
			if text == "" {
				continue
			}
			tableCount++
			blocks = append(blocks, models.ContentBlock{
				Type:       models.BlockTable,
				Text:       text,
				Page:       pageNum,
				YPosition:  tb.yTop,
				TableIndex: tableCount,
			})
		}

		for _, grp := range groupLines(rest) {
			pieces := structureBlocks(grp.text(), pageNum, grp.yTop)
			for i := range pieces {
				pieces[i].YPosition = grp.yTop + float64(i)*0.001
			}
			blocks = append(blocks, pieces...)
		}
	}

	return e.assemble(filename, blocks, numPages), nil
}

// passwordOnce yields the configured password on the first attempt and
// gives up afterwards, so a wrong password fails instead of looping.
func passwordOnce(password string) func() string {
	attempted := false
	return func() string {
		if attempted {
			return ""
		}
		attempted = true
		return password
	}
}

// pageHeight resolves the page MediaBox height, walking up the page tree
// for inherited boxes.
func pageHeight(page pdf.Page) float64 {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		mb := v.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			if h := mb.Index(3).Float64() - mb.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}
