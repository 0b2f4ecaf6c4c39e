// Package rerank reorders retrieval candidates before context assembly.
// Cheap keyword heuristics run first in configured precedence order; only
// queries no heuristic covers pay for per-candidate model scoring.
package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"document-assistant/internal/config"
	"document-assistant/internal/models"
)

// Scorer rates passage relevance on a 0 to 10 scale.
type Scorer interface {
	Score(ctx context.Context, query, passage string) (float64, error)
}

// defaultScoreThreshold drops weakly relevant candidates when the config
// leaves the threshold unset.
const defaultScoreThreshold = 3

// Reranker applies heuristic or model-backed ordering. A nil Scorer limits
// it to the heuristic pass.
type Reranker struct {
	scorer    Scorer
	cfg       config.RerankConfig
	threshold float64
}

func New(scorer Scorer, cfg config.RerankConfig) *Reranker {
	threshold := float64(defaultScoreThreshold)
	if cfg.ScoreThreshold != nil {
		threshold = *cfg.ScoreThreshold
	}
	return &Reranker{scorer: scorer, cfg: cfg, threshold: threshold}
}

// Rerank returns at most target candidates. The same query and candidate
// list always yield the same order: partitions are stable and score ties
// keep original order.
func (r *Reranker) Rerank(ctx context.Context, query string, cands []models.ScoredChunk, target int) []models.ScoredChunk {
	if target <= 0 {
		target = r.cfg.Target
	}
	if len(cands) == 0 {
		return nil
	}

	q := strings.ToLower(query)
	for _, heuristic := range r.cfg.Priority {
		switch heuristic {
		case "table":
			if containsAny(q, models.ListingIntentKeywords) {
				return truncate(partition(cands, func(sc models.ScoredChunk) bool {
					return sc.Chunk.Metadata.IsTable
				}), target)
			}
		case "source":
			if containsAny(q, models.RegulationIntentKeywords) {
				return truncate(partition(cands, r.isAuthoritative), target)
			}
		default:
			log.Warn().Str("heuristic", heuristic).Msg("Unknown rerank heuristic")
		}
	}

	if len(cands) <= target {
		return cands
	}
	if r.scorer == nil {
		return truncate(cands, target)
	}
	return r.scoreRank(ctx, q, cands, target)
}

// scoreRank asks the model for a relevance score per candidate, keeps those
// at or above the threshold and returns the top target by score. Any scoring
// failure abandons the pass and falls back to the original order.
func (r *Reranker) scoreRank(ctx context.Context, query string, cands []models.ScoredChunk, target int) []models.ScoredChunk {
	type scored struct {
		sc    models.ScoredChunk
		score float64
	}
	kept := make([]scored, 0, len(cands))
	for _, sc := range cands {
		score, err := r.scorer.Score(ctx, query, sc.Chunk.Content)
		if err != nil {
			log.Warn().Err(err).Msg("Relevance scoring failed, keeping retrieval order")
			return truncate(cands, target)
		}
		if score >= r.threshold {
			kept = append(kept, scored{sc: sc, score: score})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	out := make([]models.ScoredChunk, 0, target)
	for _, s := range kept {
		if len(out) == target {
			break
		}
		out = append(out, s.sc)
	}
	return out
}

func (r *Reranker) isAuthoritative(sc models.ScoredChunk) bool {
	source := strings.ToLower(sc.Chunk.Metadata.Source)
	for _, name := range r.cfg.AuthoritativeSources {
		if strings.Contains(source, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// partition stably moves matching candidates to the front.
func partition(cands []models.ScoredChunk, match func(models.ScoredChunk) bool) []models.ScoredChunk {
	out := make([]models.ScoredChunk, 0, len(cands))
	for _, sc := range cands {
		if match(sc) {
			out = append(out, sc)
		}
	}
	for _, sc := range cands {
		if !match(sc) {
			out = append(out, sc)
		}
	}
	return out
}

func truncate(cands []models.ScoredChunk, target int) []models.ScoredChunk {
	if len(cands) > target {
		return cands[:target]
	}
	return cands
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
