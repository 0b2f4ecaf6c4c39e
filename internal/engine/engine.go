// Package engine answers questions over the indexed corpus. It owns the
// answer cache, the rate-limit cooldown and the synthesis retry policy, and
// guarantees a non-empty answer on every path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"document-assistant/internal/assemble"
	"document-assistant/internal/config"
	"document-assistant/internal/llmservice"
	"document-assistant/internal/models"
	"document-assistant/internal/retry"
)

// Retriever fetches ranked candidates for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error)
}

// Reranker reorders candidates before assembly.
type Reranker interface {
	Rerank(ctx context.Context, query string, cands []models.ScoredChunk, target int) []models.ScoredChunk
}

// Synthesizer produces the final answer text.
type Synthesizer interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

type cachedAnswer struct {
	answer string
	chunks []models.Chunk
}

// Engine wires retrieval, re-ranking, assembly and synthesis into one
// Answer call. Safe for concurrent use.
type Engine struct {
	retriever Retriever
	reranker  Reranker
	synth     Synthesizer
	ctxCfg    config.ContextConfig
	rerankCfg config.RerankConfig
	policy    retry.Policy
	cooldown  time.Duration

	mu               sync.RWMutex
	answers          map[string]cachedAnswer
	rateLimitedUntil time.Time
}

func New(retriever Retriever, reranker Reranker, synth Synthesizer, ctxCfg config.ContextConfig, rerankCfg config.RerankConfig, engCfg config.EngineConfig) *Engine {
	return &Engine{
		retriever: retriever,
		reranker:  reranker,
		synth:     synth,
		ctxCfg:    ctxCfg,
		rerankCfg: rerankCfg,
		policy: retry.Policy{
			MaxAttempts: engCfg.MaxAttempts,
			Base:        time.Second,
			// Transient synthesis failures get another attempt; auth and
			// other permanent errors fail straight through.
			Retryable: func(err error) bool {
				return errors.Is(err, llmservice.ErrRateLimited) ||
					errors.Is(err, llmservice.ErrTimeout) ||
					errors.Is(err, llmservice.ErrMalformed)
			},
		},
		cooldown: time.Duration(engCfg.CooldownSecs) * time.Second,
		answers:  make(map[string]cachedAnswer),
	}
}

// Answer resolves one question against the corpus and history. The returned
// answer string is never empty: failures map to fixed fallback sentences and
// the chunk list names exactly the sources the answer was built from.
func (e *Engine) Answer(ctx context.Context, query string, history []models.ConversationTurn) (string, []models.Chunk, error) {
	key := normalize(query)
	if key == "" {
		return models.NoInformationAnswer, nil, nil
	}

	if wait := e.cooldownRemaining(); wait > 0 {
		secs := int(wait.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		return fmt.Sprintf(models.WaitAnswerFormat, secs), nil, nil
	}

	followUp := isFollowUp(key)
	if !followUp {
		if cached, ok := e.lookup(key); ok {
			log.Debug().Str("query", key).Msg("Answer cache hit")
			return cached.answer, cached.chunks, nil
		}
	}

	cands, err := e.retriever.Retrieve(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg("Retrieval failed")
		return models.NoInformationAnswer, nil, nil
	}
	if len(cands) == 0 {
		return models.NoInformationAnswer, nil, nil
	}

	ranked := e.reranker.Rerank(ctx, query, cands, e.rerankCfg.Target)
	contextText, used := assemble.Context(ranked, e.ctxCfg.TokenBudget)
	summary := assemble.ConversationSummary(history, e.ctxCfg.HistoryTurns, e.ctxCfg.HistoryCharCap)
	prompt := fmt.Sprintf(models.UserPromptFormat, summary, contextText, query)

	var answer string
	err = e.policy.Do(ctx, func(ctx context.Context) error {
		var genErr error
		answer, genErr = e.synth.Generate(ctx, models.SystemPrompt, prompt)
		return genErr
	})
	if err != nil {
		if errors.Is(err, llmservice.ErrRateLimited) {
			e.startCooldown()
			secs := int(e.cooldown / time.Second)
			log.Warn().Int("cooldown_secs", secs).Msg("Rate limited, backing off")
			return fmt.Sprintf(models.WaitAnswerFormat, secs), nil, nil
		}
		log.Error().Err(err).Msg("Answer synthesis failed")
		return models.DegradedAnswer, nil, nil
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = models.NoInformationAnswer
		used = nil
	}

	if !followUp {
		e.remember(key, answer, used)
	}
	return answer, used, nil
}

func isFollowUp(query string) bool {
	for _, cue := range models.FollowUpCues {
		if strings.Contains(query, cue) {
			return true
		}
	}
	return false
}

// ClearCache drops all cached answers; called after re-ingestion.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.answers = make(map[string]cachedAnswer)
	e.mu.Unlock()
}

func (e *Engine) cooldownRemaining() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return time.Until(e.rateLimitedUntil)
}

func (e *Engine) startCooldown() {
	e.mu.Lock()
	e.rateLimitedUntil = time.Now().Add(e.cooldown)
	e.mu.Unlock()
}

func (e *Engine) lookup(key string) (cachedAnswer, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cached, ok := e.answers[key]
	return cached, ok
}

func (e *Engine) remember(key, answer string, chunks []models.Chunk) {
	e.mu.Lock()
	e.answers[key] = cachedAnswer{answer: answer, chunks: chunks}
	e.mu.Unlock()
}

func normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
