package extractor

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"document-assistant/internal/models"
)

func (e *Extractor) extractDOCX(path string) (*models.DocumentInfo, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	blocks, err := docxBlocks(r.Editable().GetContent())
	if err != nil {
		return nil, fmt.Errorf("parse docx body: %w", err)
	}
	// DOCX carries no pagination; everything reports page 1.
	return e.assemble(filepath.Base(path), blocks, 1), nil
}

// docxBlocks walks the document body XML in order, so paragraph and table
// interleaving is preserved exactly as authored. The flattened content
// string the docx library exposes loses that ordering, which is why the
// body is re-walked here.
func docxBlocks(content string) ([]models.ContentBlock, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = false

	var blocks []models.ContentBlock
	order := 0
	tableCount := 0

	var para strings.Builder
	inPara := false
	inText := false

	tableDepth := 0
	var rows [][]string
	var row []string
	var cell strings.Builder

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					rows = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "p":
				if tableDepth == 0 {
					inPara = true
					para.Reset()
				} else if cell.Len() > 0 {
					cell.WriteString(" ")
				}
			case "t":
				inText = true
			case "br", "cr":
				if tableDepth == 0 && inPara {
					para.WriteString("\n")
				}
			case "tab":
				if tableDepth > 0 {
					cell.WriteString(" ")
				} else if inPara {
					para.WriteString(" ")
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
			case "tr":
				if tableDepth == 1 && len(row) > 0 {
					rows = append(rows, row)
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(rows) > 0 {
					tableCount++
					text := FormatTable(rows, tableCount)
					if text != "" {
						blocks = append(blocks, models.ContentBlock{
							Type:       models.BlockTable,
							Text:       text,
							Page:       1,
							YPosition:  float64(order),
							TableIndex: tableCount,
						})
						order++
					}
				}
			case "p":
				if tableDepth == 0 && inPara {
					inPara = false
					text := strings.TrimSpace(para.String())
					if text == "" {
						continue
					}
					pieces := structureBlocks(text, 1, float64(order))
					for i := range pieces {
						pieces[i].YPosition = float64(order)
						order++
					}
					blocks = append(blocks, pieces...)
				}
			}

		case xml.CharData:
			if !inText {
				continue
			}
			if tableDepth > 0 {
				cell.Write(t)
			} else if inPara {
				para.Write(t)
			}
		}
	}
	return blocks, nil
}
