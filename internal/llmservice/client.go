// Package llmservice wraps every external model call the core makes:
// answer synthesis, relevance scoring, query expansion and translation.
// All calls enforce a timeout and map transport failures onto a small
// error taxonomy the callers can branch on.
package llmservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"document-assistant/internal/config"
	"document-assistant/internal/models"
)

// Synthesis failure taxonomy.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrTimeout     = errors.New("request timed out")
	ErrAuth        = errors.New("authentication failed")
	ErrMalformed   = errors.New("malformed model response")
)

const (
	defaultGenTimeout   = 60 * time.Second
	defaultShortTimeout = 15 * time.Second

	genTemperature = 0.1
	genMaxTokens   = 2000
)

// Client talks to one chat model endpoint.
type Client struct {
	llm          llms.Model
	genTimeout   time.Duration
	shortTimeout time.Duration
}

// New builds a client from config. OpenAI-compatible endpoints (OpenRouter,
// Groq, ...) and ollama are both supported.
func New(cfg *config.LLMConfig) (*Client, error) {
	var llm llms.Model
	var err error
	switch cfg.Provider {
	case "", "openai":
		llm, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	case "ollama":
		llm, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init llm: %w", err)
	}

	genTimeout := defaultGenTimeout
	if cfg.TimeoutSecs > 0 {
		genTimeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	return &Client{llm: llm, genTimeout: genTimeout, shortTimeout: defaultShortTimeout}, nil
}

// Generate runs one answer-synthesis call.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	msgs := []llms.MessageContent{
		{Role: llms.ChatMessageTypeSystem, Parts: []llms.ContentPart{llms.TextContent{Text: system}}},
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: user}}},
	}
	return c.call(ctx, c.genTimeout, msgs,
		llms.WithTemperature(genTemperature),
		llms.WithMaxTokens(genMaxTokens),
	)
}

var numberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// Score asks the model to rate passage relevance 0-10 and parses the first
// number out of the reply. Short timeout; scoring is an optimization.
func (c *Client) Score(ctx context.Context, query, passage string) (float64, error) {
	prompt := fmt.Sprintf(models.ScorePromptFormat, query, passage)
	msgs := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: prompt}}},
	}
	reply, err := c.call(ctx, c.shortTimeout, msgs, llms.WithMaxTokens(8))
	if err != nil {
		return 0, err
	}
	m := numberRe.FindString(reply)
	if m == "" {
		return 0, fmt.Errorf("%w: no score in %q", ErrMalformed, reply)
	}
	score, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, nil
}

// ExpandQuery asks for up to three alternative phrasings, one per line.
func (c *Client) ExpandQuery(ctx context.Context, query string) ([]string, error) {
	prompt := fmt.Sprintf(models.ExpandPromptFormat, query)
	msgs := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: prompt}}},
	}
	reply, err := c.call(ctx, c.shortTimeout, msgs, llms.WithMaxTokens(200))
	if err != nil {
		return nil, err
	}

	var alternates []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line == "" || strings.EqualFold(line, query) {
			continue
		}
		alternates = append(alternates, line)
		if len(alternates) == 3 {
			break
		}
	}
	return alternates, nil
}

// Translate renders text into the named language.
func (c *Client) Translate(ctx context.Context, text, language string) (string, error) {
	prompt := fmt.Sprintf(models.TranslatePromptFormat, language, text)
	msgs := []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextContent{Text: prompt}}},
	}
	return c.call(ctx, c.shortTimeout, msgs, llms.WithMaxTokens(200))
}

func (c *Client) call(ctx context.Context, timeout time.Duration, msgs []llms.MessageContent, opts ...llms.CallOption) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.llm.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", classify(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrMalformed)
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// classify maps HTTP-style failures onto the taxonomy. langchaingo surfaces
// provider errors as strings, so the status has to be sniffed.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "invalid api key"):
		return fmt.Errorf("%w: %v", ErrAuth, err)
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		log.Debug().Err(err).Msg("Unclassified llm error")
		return err
	}
}
