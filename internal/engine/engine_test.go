package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-assistant/internal/config"
	"document-assistant/internal/llmservice"
	"document-assistant/internal/models"
)

type fakeRetriever struct {
	chunks []models.ScoredChunk
	err    error
	calls  int
}

func (f *fakeRetriever) Retrieve(context.Context, string) ([]models.ScoredChunk, error) {
	f.calls++
	return f.chunks, f.err
}

type passthroughReranker struct{}

func (passthroughReranker) Rerank(_ context.Context, _ string, cands []models.ScoredChunk, target int) []models.ScoredChunk {
	if len(cands) > target {
		return cands[:target]
	}
	return cands
}

type fakeSynth struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (f *fakeSynth) Generate(_ context.Context, _, user string) (string, error) {
	f.calls++
	f.prompt = user
	return f.answer, f.err
}

func hits() []models.ScoredChunk {
	return []models.ScoredChunk{{Chunk: models.Chunk{
		Content: "The thesis deadline is week ten.",
		Metadata: models.ChunkMetadata{
			Source: "spo.pdf", Page: "4", TableNumber: models.NoTableNumber,
		},
	}, Score: 0.9}}
}

func newEngine(ret *fakeRetriever, synth *fakeSynth) *Engine {
	return New(ret, passthroughReranker{}, synth,
		config.ContextConfig{TokenBudget: 6000, HistoryTurns: 6, HistoryCharCap: 300},
		config.RerankConfig{Target: 10},
		config.EngineConfig{MaxAttempts: 1, CooldownSecs: 30},
	)
}

func TestAnswerHappyPath(t *testing.T) {
	synth := &fakeSynth{answer: "Week ten. [Source: spo.pdf | Page: 4]"}
	eng := newEngine(&fakeRetriever{chunks: hits()}, synth)

	answer, sources, err := eng.Answer(context.Background(), "When is the thesis due?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Week ten. [Source: spo.pdf | Page: 4]", answer)
	require.Len(t, sources, 1)
	assert.Equal(t, "spo.pdf", sources[0].Metadata.Source)

	// The prompt carries the context block and the question.
	assert.Contains(t, synth.prompt, "[Source: spo.pdf | Page: 4]")
	assert.Contains(t, synth.prompt, "When is the thesis due?")
	assert.Contains(t, synth.prompt, "No previous conversation")
}

func TestAnswerEmptyRetrieval(t *testing.T) {
	synth := &fakeSynth{answer: "unused"}
	eng := newEngine(&fakeRetriever{}, synth)

	answer, sources, err := eng.Answer(context.Background(), "Unknown topic?", nil)
	require.NoError(t, err)
	assert.Equal(t, "No sufficient information in the available documents.", answer)
	assert.Empty(t, sources)
	assert.Zero(t, synth.calls)
}

func TestAnswerRetrievalFailure(t *testing.T) {
	eng := newEngine(&fakeRetriever{err: errors.New("index down")}, &fakeSynth{})

	answer, _, err := eng.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, models.NoInformationAnswer, answer)
}

func TestAnswerCaching(t *testing.T) {
	ret := &fakeRetriever{chunks: hits()}
	synth := &fakeSynth{answer: "Cached answer."}
	eng := newEngine(ret, synth)

	first, firstSources, err := eng.Answer(context.Background(), "When is the thesis due?", nil)
	require.NoError(t, err)

	// Case and spacing variations hit the same entry.
	second, secondSources, err := eng.Answer(context.Background(), "  when IS the thesis due?  ", nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstSources, secondSources)
	assert.Equal(t, 1, ret.calls)
	assert.Equal(t, 1, synth.calls)
}

func TestAnswerRateLimitCooldown(t *testing.T) {
	ret := &fakeRetriever{chunks: hits()}
	synth := &fakeSynth{err: fmt.Errorf("%w: 429", llmservice.ErrRateLimited)}
	eng := newEngine(ret, synth)

	answer, _, err := eng.Answer(context.Background(), "Question one?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Please wait 30 seconds before asking again.", answer)

	// The cooldown short-circuits the next question entirely.
	answer, _, err = eng.Answer(context.Background(), "Question two?", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(answer, "Please wait"))
	assert.Equal(t, 1, ret.calls)
}

// flakySynth fails the first n calls and then answers.
type flakySynth struct {
	failures int
	err      error
	answer   string
	calls    int
}

func (f *flakySynth) Generate(context.Context, string, string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return f.answer, nil
}

func TestAnswerRetriesTimeout(t *testing.T) {
	synth := &flakySynth{
		failures: 1,
		err:      fmt.Errorf("%w: deadline", llmservice.ErrTimeout),
		answer:   "Recovered answer.",
	}
	eng := New(&fakeRetriever{chunks: hits()}, passthroughReranker{}, synth,
		config.ContextConfig{TokenBudget: 6000, HistoryTurns: 6, HistoryCharCap: 300},
		config.RerankConfig{Target: 10},
		config.EngineConfig{MaxAttempts: 2, CooldownSecs: 30},
	)

	answer, _, err := eng.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Recovered answer.", answer)
	assert.Equal(t, 2, synth.calls)
}

func TestAnswerDoesNotRetryAuthFailure(t *testing.T) {
	synth := &flakySynth{
		failures: 5,
		err:      fmt.Errorf("%w: 401", llmservice.ErrAuth),
	}
	eng := New(&fakeRetriever{chunks: hits()}, passthroughReranker{}, synth,
		config.ContextConfig{TokenBudget: 6000, HistoryTurns: 6, HistoryCharCap: 300},
		config.RerankConfig{Target: 10},
		config.EngineConfig{MaxAttempts: 3, CooldownSecs: 30},
	)

	answer, _, err := eng.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DegradedAnswer, answer)
	assert.Equal(t, 1, synth.calls)
}

func TestAnswerDegradedOnSynthesisFailure(t *testing.T) {
	synth := &fakeSynth{err: errors.New("boom")}
	eng := newEngine(&fakeRetriever{chunks: hits()}, synth)

	answer, _, err := eng.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DegradedAnswer, answer)
}

func TestAnswerNeverEmpty(t *testing.T) {
	synth := &fakeSynth{answer: "   "}
	eng := newEngine(&fakeRetriever{chunks: hits()}, synth)

	answer, sources, err := eng.Answer(context.Background(), "Anything?", nil)
	require.NoError(t, err)
	assert.Equal(t, models.NoInformationAnswer, answer)
	assert.Empty(t, sources)
}

func TestAnswerBlankQuery(t *testing.T) {
	eng := newEngine(&fakeRetriever{}, &fakeSynth{})
	answer, _, err := eng.Answer(context.Background(), "   ", nil)
	require.NoError(t, err)
	assert.Equal(t, models.NoInformationAnswer, answer)
}

func TestAnswerHistoryInPrompt(t *testing.T) {
	synth := &fakeSynth{answer: "Expanded answer."}
	eng := newEngine(&fakeRetriever{chunks: hits()}, synth)

	history := []models.ConversationTurn{
		{Role: models.RoleUser, Content: "When is the thesis due?"},
		{Role: models.RoleAssistant, Content: "Week ten."},
	}
	_, _, err := eng.Answer(context.Background(), "Tell me more about the topic.", history)
	require.NoError(t, err)
	assert.Contains(t, synth.prompt, "User: When is the thesis due?")
	assert.Contains(t, synth.prompt, "Assistant: Week ten.")
}

func TestAnswerFollowUpBypassesCache(t *testing.T) {
	ret := &fakeRetriever{chunks: hits()}
	synth := &fakeSynth{answer: "Some more detail."}
	eng := newEngine(ret, synth)

	_, _, err := eng.Answer(context.Background(), "Tell me more about that.", nil)
	require.NoError(t, err)
	_, _, err = eng.Answer(context.Background(), "Tell me more about that.", nil)
	require.NoError(t, err)
	// Identical wording still re-runs the pipeline: the answer depends on
	// the conversation, not just the query text.
	assert.Equal(t, 2, synth.calls)
}

func TestClearCache(t *testing.T) {
	ret := &fakeRetriever{chunks: hits()}
	synth := &fakeSynth{answer: "Answer."}
	eng := newEngine(ret, synth)

	_, _, err := eng.Answer(context.Background(), "Question?", nil)
	require.NoError(t, err)
	eng.ClearCache()
	_, _, err = eng.Answer(context.Background(), "Question?", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, ret.calls)
}
