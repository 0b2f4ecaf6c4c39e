package extractor

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"document-assistant/internal/models"
)

// extractXLSX treats every sheet as one table block; sheets map to pages.
func (e *Extractor) extractXLSX(path string) (*models.DocumentInfo, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var blocks []models.ContentBlock
	tableCount := 0

	for i, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			log.Warn().Err(err).Str("sheet", name).Msg("Skipping unreadable sheet")
			continue
		}
		if len(rows) == 0 {
			continue
		}
		text := FormatTable(rows, tableCount+1)
		if text == "" {
			continue
		}
		tableCount++
		blocks = append(blocks, models.ContentBlock{
			Type:       models.BlockTable,
			Text:       "Sheet: " + name + "\n" + text,
			Page:       i + 1,
			YPosition:  0,
			TableIndex: tableCount,
		})
	}
	return e.assemble(filepath.Base(path), blocks, len(sheets)), nil
}
