package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"

	"document-assistant/internal/models"
)

func (e *Extractor) extractTXT(path string) (*models.DocumentInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	blocks := structureBlocks(string(data), 1, 0)
	return e.assemble(filepath.Base(path), blocks, 1), nil
}

func (e *Extractor) extractMarkdown(path string) (*models.DocumentInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	blocks, err := markdownBlocks(data)
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}
	return e.assemble(filepath.Base(path), blocks, 1), nil
}

// markdownBlocks maps the goldmark AST onto content blocks: headings, list
// items, paragraphs and GFM tables, in document order.
func markdownBlocks(source []byte) ([]models.ContentBlock, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gtext.NewReader(source))

	var blocks []models.ContentBlock
	order := 0
	tableCount := 0

	add := func(kind models.BlockType, text string, tableIndex int) {
		if text == "" {
			return
		}
		blocks = append(blocks, models.ContentBlock{
			Type:       kind,
			Text:       text,
			Page:       1,
			YPosition:  float64(order),
			TableIndex: tableIndex,
		})
		order++
	}

	var walk func(n gast.Node)
	walk = func(n gast.Node) {
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			switch node := child.(type) {
			case *gast.Heading:
				add(models.BlockHeading, nodeText(node, source), 0)
			case *gast.Paragraph, *gast.TextBlock:
				add(models.BlockParagraph, nodeText(child, source), 0)
			case *gast.List:
				for item := node.FirstChild(); item != nil; item = item.NextSibling() {
					add(models.BlockListItem, "- "+nodeText(item, source), 0)
				}
			case *gast.CodeBlock:
				add(models.BlockParagraph, codeText(node, source), 0)
			case *gast.FencedCodeBlock:
				add(models.BlockParagraph, codeText(node, source), 0)
			case *east.Table:
				rows := tableRows(node, source)
				if len(rows) == 0 {
					continue
				}
				text := FormatTable(rows, tableCount+1)
				if text == "" {
					continue
				}
				tableCount++
				add(models.BlockTable, text, tableCount)
			default:
				walk(child)
			}
		}
	}
	walk(doc)
	return blocks, nil
}

// tableRows flattens a GFM table node into a header-first row grid.
func tableRows(table *east.Table, source []byte) [][]string {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, nodeText(cell, source))
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

func nodeText(n gast.Node, source []byte) string {
	var b strings.Builder
	_ = gast.Walk(n, func(c gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString(" ")
			}
		case *gast.String:
			b.Write(t.Value)
		}
		return gast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func codeText(n interface {
	Lines() *gtext.Segments
}, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimSpace(b.String())
}
