package extractor

import (
	"regexp"
	"strings"
	"unicode"

	"document-assistant/internal/models"
)

var (
	leadingNumberRe = regexp.MustCompile(`^\d+[.):]`)
	numberedItemRe  = regexp.MustCompile(`^\d+[.)]\s`)
	bulletItemRe    = regexp.MustCompile(`^[•\-*]\s`)
	punctSpaceRe    = regexp.MustCompile(`\s+([.,!?;:])`)
)

// sentence-terminal runes across the supported languages
var terminalSuffixes = []string{".", "!", "?", "؟", "。"}

// CleanText collapses runs of whitespace within each line and drops blank
// lines, preserving line boundaries.
func CleanText(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}

// structurePieces classifies the lines of a raw text block into headings,
// list items and accumulated paragraphs.
//
// A line is a heading when it is ALL-CAPS and short, or short, capitalized
// and colon-terminated. A line is a list item when it carries a numbered or
// bulleted prefix. Anything else accumulates into the current paragraph,
// which is flushed on sentence-terminal punctuation, before a new section,
// or at end of input. Lines under three words that are neither capitalized
// nor numbered are dropped as noise.
func structurePieces(text string) []models.ContentBlock {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}
	lines := strings.Split(cleaned, "\n")

	var pieces []models.ContentBlock
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.Join(current, " ")
		p = punctSpaceRe.ReplaceAllString(p, "$1")
		pieces = append(pieces, models.ContentBlock{Type: models.BlockParagraph, Text: strings.TrimSpace(p)})
		current = nil
	}

	for i, line := range lines {
		words := strings.Fields(line)
		if len(words) < 3 && !startsCapitalized(line) && !leadingNumberRe.MatchString(line) {
			continue
		}

		isHeading := (isAllUpper(line) && len(words) <= 10) ||
			(len(words) <= 6 && startsCapitalized(line) && strings.HasSuffix(line, ":"))
		if isHeading {
			flush()
			pieces = append(pieces, models.ContentBlock{Type: models.BlockHeading, Text: line})
			continue
		}

		if numberedItemRe.MatchString(line) || bulletItemRe.MatchString(line) {
			flush()
			pieces = append(pieces, models.ContentBlock{Type: models.BlockListItem, Text: line})
			continue
		}

		current = append(current, line)

		if endsSentence(line) || nextStartsSection(lines, i) || i == len(lines)-1 {
			flush()
		}
	}
	flush()
	return pieces
}

// StructureText renders the structured form of a raw text block. For
// non-empty input it never returns empty output: when no lines survive
// classification it falls back to the cleaned raw text.
func StructureText(text string) string {
	pieces := structurePieces(text)
	if len(pieces) == 0 {
		return CleanText(text)
	}
	var b strings.Builder
	for i, p := range pieces {
		if i > 0 {
			if p.Type == models.BlockListItem {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		if p.Type == models.BlockHeading {
			b.WriteString("### ")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// structureBlocks is StructureText's block-typed counterpart, stamping page
// and y-position onto every piece. The raw-text fallback yields a single
// paragraph block.
func structureBlocks(text string, page int, y float64) []models.ContentBlock {
	pieces := structurePieces(text)
	if len(pieces) == 0 {
		cleaned := CleanText(text)
		if cleaned == "" {
			return nil
		}
		pieces = []models.ContentBlock{{Type: models.BlockParagraph, Text: cleaned}}
	}
	for i := range pieces {
		pieces[i].Page = page
		pieces[i].YPosition = y
	}
	return pieces
}

func startsCapitalized(line string) bool {
	for _, r := range line {
		return unicode.IsUpper(r)
	}
	return false
}

func isAllUpper(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func endsSentence(line string) bool {
	for _, s := range terminalSuffixes {
		if strings.HasSuffix(line, s) {
			return true
		}
	}
	return false
}

// nextStartsSection looks ahead one line for a list marker, a short
// capitalized line or an ALL-CAPS line, any of which closes the current
// paragraph.
func nextStartsSection(lines []string, i int) bool {
	if i >= len(lines)-1 {
		return false
	}
	next := lines[i+1]
	nextWords := strings.Fields(next)
	return numberedItemRe.MatchString(next) ||
		bulletItemRe.MatchString(next) ||
		(len(nextWords) <= 6 && startsCapitalized(next)) ||
		isAllUpper(next)
}
