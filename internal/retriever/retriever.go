// Package retriever turns a user question into a ranked candidate set from
// the vector index. It adapts the result budget to the query shape, expands
// the query into alternate phrasings, widens once when recall looks thin and
// retries across corpus languages for multilingual corpora.
package retriever

import (
	"context"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog/log"

	"document-assistant/internal/config"
	"document-assistant/internal/index"
	"document-assistant/internal/models"
)

// Expander produces alternate phrasings of a query.
type Expander interface {
	ExpandQuery(ctx context.Context, query string) ([]string, error)
}

// Translator renders a query into another language.
type Translator interface {
	Translate(ctx context.Context, text, language string) (string, error)
}

// Retriever queries the index with budgets and expansions derived from the
// query text. Expander and Translator are optional; nil disables the step.
type Retriever struct {
	store      index.Store
	expander   Expander
	translator Translator
	cfg        config.RetrievalConfig
}

func New(store index.Store, expander Expander, translator Translator, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{store: store, expander: expander, translator: translator, cfg: cfg}
}

// Retrieve runs the full pipeline for one question. Results from the
// original query come first; expansion and translation results are appended
// after deduplication by content.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, index.ErrEmptyQuery
	}
	n := r.resultBudget(query)

	primary, err := r.store.Query(ctx, query, n)
	if err != nil {
		return nil, err
	}

	merged := dedupe(primary, nil)

	// One widening pass when recall looks thin.
	if len(merged) < r.cfg.MinHits || totalWords(merged) < r.cfg.WidenWordFloor {
		wider, err := r.store.Query(ctx, query, 2*n)
		if err != nil {
			log.Warn().Err(err).Msg("Widened query failed")
		} else {
			merged = dedupe(merged, wider)
		}
	}

	for _, variant := range r.variants(ctx, query) {
		extra, err := r.store.Query(ctx, variant, n)
		if err != nil {
			log.Warn().Err(err).Str("variant", variant).Msg("Expanded query failed")
			continue
		}
		merged = dedupe(merged, extra)
	}

	return merged, nil
}

// resultBudget classifies the query shape into one of three budgets.
// Comparison and enumeration cues win over simple-lookup cues.
func (r *Retriever) resultBudget(query string) int {
	q := strings.ToLower(query)
	for _, cue := range models.ComparisonCues {
		if strings.Contains(q, cue) {
			return r.cfg.MaxResults
		}
	}
	for _, cue := range models.SimpleLookupCues {
		if strings.Contains(q, cue) {
			return r.cfg.SimpleResults
		}
	}
	return r.cfg.DefaultResults
}

// variants collects alternate query phrasings: rule-table expansions first,
// then LLM expansions, then translations into the other corpus languages.
func (r *Retriever) variants(ctx context.Context, query string) []string {
	seen := map[string]struct{}{strings.ToLower(query): {}}
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	if r.cfg.ExpandQueries {
		ruled := ruleExpansions(query)
		for _, v := range ruled {
			add(v)
		}
		if len(ruled) == 0 && r.expander != nil {
			alts, err := r.expander.ExpandQuery(ctx, query)
			if err != nil {
				log.Warn().Err(err).Msg("Query expansion failed")
			}
			for i, v := range alts {
				if i == maxLLMVariants {
					break
				}
				add(v)
			}
		}
	}

	if r.translator != nil && len(r.cfg.Languages) > 0 {
		info := whatlanggo.Detect(query)
		detected := strings.ToLower(whatlanggo.LangToString(info.Lang))
		for _, lang := range r.cfg.Languages {
			if strings.EqualFold(lang, detected) {
				continue
			}
			translated, err := r.translator.Translate(ctx, query, lang)
			if err != nil {
				log.Warn().Err(err).Str("language", lang).Msg("Query translation failed")
				continue
			}
			add(translated)
		}
	}

	return out
}

// dedupe appends extra onto base, dropping chunks whose content is already
// present. Order within each slice is preserved.
func dedupe(base, extra []models.ScoredChunk) []models.ScoredChunk {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]models.ScoredChunk, 0, len(base)+len(extra))
	for _, sc := range base {
		if _, ok := seen[sc.Chunk.Content]; ok {
			continue
		}
		seen[sc.Chunk.Content] = struct{}{}
		out = append(out, sc)
	}
	for _, sc := range extra {
		if _, ok := seen[sc.Chunk.Content]; ok {
			continue
		}
		seen[sc.Chunk.Content] = struct{}{}
		out = append(out, sc)
	}
	return out
}

func totalWords(chunks []models.ScoredChunk) int {
	total := 0
	for _, sc := range chunks {
		total += len(strings.Fields(sc.Chunk.Content))
	}
	return total
}
