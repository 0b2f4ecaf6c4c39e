package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures one model endpoint (embedding or chat).
type LLMConfig struct {
	Provider    string `yaml:"provider"` // "openai" (OpenAI-compatible) or "ollama"
	BaseURL     string `yaml:"base_url"`
	Key         string `yaml:"key"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig selects and configures the vector index backend.
type IndexConfig struct {
	Provider    string `yaml:"provider"` // "chromem" or "pgvector"
	Path        string `yaml:"path"`
	Collection  string `yaml:"collection"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Debug       bool   `yaml:"debug"`
}

// CacheConfig configures the extraction cache.
type CacheConfig struct {
	Folder     string `yaml:"folder"`
	UseModTime bool   `yaml:"use_mod_time"`
}

// ChunkingConfig sets the chunk geometry. Overlap is a pointer so an
// explicit zero survives loading; unset falls back to the default.
type ChunkingConfig struct {
	ChunkSize      int  `yaml:"chunk_size"`       // words
	Overlap        *int `yaml:"overlap"`          // words
	TableChunkSize int  `yaml:"table_chunk_size"` // words, zero overlap
	MinChunkWords  int  `yaml:"min_chunk_words"`
}

// RetrievalConfig tunes the retriever.
type RetrievalConfig struct {
	DefaultResults int      `yaml:"default_results"`
	MaxResults     int      `yaml:"max_results"`
	SimpleResults  int      `yaml:"simple_results"`
	MinHits        int      `yaml:"min_hits"`
	WidenWordFloor int      `yaml:"widen_word_floor"`
	ExpandQueries  bool     `yaml:"expand_queries"`
	Languages      []string `yaml:"languages"` // ISO 639-3 codes present in the corpus
}

// RerankConfig tunes the re-ranker. Priority lists the heuristics in the
// order they are tried; the first match wins. ScoreThreshold is a pointer
// so an explicit zero (keep every scored candidate) survives loading.
type RerankConfig struct {
	Priority             []string `yaml:"priority"` // "table", "source"
	AuthoritativeSources []string `yaml:"authoritative_sources"`
	ScoreThreshold       *float64 `yaml:"score_threshold"`
	Target               int      `yaml:"target"`
}

// ContextConfig bounds the assembled prompt.
type ContextConfig struct {
	TokenBudget    int `yaml:"token_budget"`
	HistoryTurns   int `yaml:"history_turns"`
	HistoryCharCap int `yaml:"history_char_cap"`
}

// EngineConfig tunes the answer engine.
type EngineConfig struct {
	MaxAttempts  int `yaml:"max_attempts"`
	CooldownSecs int `yaml:"cooldown_secs"`
}

// Config is the root configuration.
type Config struct {
	DocsFolder  string          `yaml:"docs_folder"`
	PDFPassword string          `yaml:"pdf_password"`
	Cache       CacheConfig     `yaml:"cache"`
	Index       IndexConfig     `yaml:"index"`
	EmbedLLM    LLMConfig       `yaml:"embedding"`
	LLM         LLMConfig       `yaml:"llm"`
	Chunking    ChunkingConfig  `yaml:"chunking"`
	Retrieval   RetrievalConfig `yaml:"retrieval"`
	Rerank      RerankConfig    `yaml:"rerank"`
	Context     ContextConfig   `yaml:"context"`
	Engine      EngineConfig    `yaml:"engine"`
}

// LoadConfig reads a YAML config file and applies defaults for anything
// left unset.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values with the documented defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.DocsFolder == "" {
		cfg.DocsFolder = "./documents"
	}
	if cfg.Cache.Folder == "" {
		cfg.Cache.Folder = "./cache"
	}
	if cfg.Index.Provider == "" {
		cfg.Index.Provider = "chromem"
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = "./indexdb"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "documents"
	}
	if cfg.EmbedLLM.Provider == "" {
		cfg.EmbedLLM.Provider = "ollama"
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "http://localhost:11434"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "nomic-embed-text"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 1500
	}
	if cfg.Chunking.Overlap == nil {
		overlap := 250
		cfg.Chunking.Overlap = &overlap
	}
	if cfg.Chunking.TableChunkSize == 0 {
		cfg.Chunking.TableChunkSize = 2000
	}
	if cfg.Chunking.MinChunkWords == 0 {
		cfg.Chunking.MinChunkWords = 30
	}
	if cfg.Retrieval.DefaultResults == 0 {
		cfg.Retrieval.DefaultResults = 10
	}
	if cfg.Retrieval.MaxResults == 0 {
		cfg.Retrieval.MaxResults = 15
	}
	if cfg.Retrieval.SimpleResults == 0 {
		cfg.Retrieval.SimpleResults = 5
	}
	if cfg.Retrieval.MinHits == 0 {
		cfg.Retrieval.MinHits = 3
	}
	if cfg.Retrieval.WidenWordFloor == 0 {
		cfg.Retrieval.WidenWordFloor = 150
	}
	if len(cfg.Rerank.Priority) == 0 {
		cfg.Rerank.Priority = []string{"table", "source"}
	}
	if cfg.Rerank.ScoreThreshold == nil {
		threshold := 3.0
		cfg.Rerank.ScoreThreshold = &threshold
	}
	if cfg.Rerank.Target == 0 {
		cfg.Rerank.Target = 10
	}
	if cfg.Context.TokenBudget == 0 {
		cfg.Context.TokenBudget = 6000
	}
	if cfg.Context.HistoryTurns == 0 {
		cfg.Context.HistoryTurns = 6
	}
	if cfg.Context.HistoryCharCap == 0 {
		cfg.Context.HistoryCharCap = 300
	}
	if cfg.Engine.MaxAttempts == 0 {
		cfg.Engine.MaxAttempts = 3
	}
	if cfg.Engine.CooldownSecs == 0 {
		cfg.Engine.CooldownSecs = 30
	}
}
