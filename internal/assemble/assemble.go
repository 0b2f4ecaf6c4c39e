// Package assemble renders ranked chunks and conversation history into the
// text blocks the synthesis prompt is built from.
package assemble

import (
	"fmt"
	"strings"

	"document-assistant/internal/models"
)

// EmptyHistory is rendered when no prior turns exist.
const EmptyHistory = "No previous conversation"

// EstimateTokens approximates the token count of text as ceil(words * 4/3).
// Cheap and model-independent; accurate enough for budget enforcement.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return (words*4 + 2) / 3
}

// Context formats chunks in the given priority order, each prefixed by a
// citation header, joined by a separator line. Assembly stops before the
// first chunk that would push the estimate past tokenBudget; chunks are
// never split. The returned slice holds exactly the included chunks, so the
// estimate of the rendered text never exceeds the budget. When not even the
// first chunk fits, the context is empty.
func Context(chunks []models.ScoredChunk, tokenBudget int) (string, []models.Chunk) {
	var blocks []string
	var included []models.Chunk
	words := 0

	for _, sc := range chunks {
		block := formatBlock(sc.Chunk)
		next := words + len(strings.Fields(block))
		if len(included) > 0 {
			next++ // separator line
		}
		if (next*4+2)/3 > tokenBudget {
			break
		}
		blocks = append(blocks, block)
		included = append(included, sc.Chunk)
		words = next
	}

	return strings.Join(blocks, "\n\n---\n\n"), included
}

func formatBlock(c models.Chunk) string {
	var header string
	if c.Metadata.IsTable {
		header = fmt.Sprintf("[Source: %s | Page: %s | Table: %s]",
			c.Metadata.Source, c.Metadata.Page, c.Metadata.TableNumber)
	} else {
		header = fmt.Sprintf("[Source: %s | Page: %s]", c.Metadata.Source, c.Metadata.Page)
	}
	return header + "\n" + c.Content
}

// ConversationSummary renders the last maxTurns turns as labeled lines with
// each turn's content capped at charCap runes.
func ConversationSummary(turns []models.ConversationTurn, maxTurns, charCap int) string {
	if len(turns) == 0 {
		return EmptyHistory
	}
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		content := t.Content
		if charCap > 0 {
			if runes := []rune(content); len(runes) > charCap {
				content = string(runes[:charCap]) + "..."
			}
		}
		label := "User"
		if t.Role == models.RoleAssistant {
			label = "Assistant"
		}
		lines = append(lines, label+": "+content)
	}
	return strings.Join(lines, "\n")
}
