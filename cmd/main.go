package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-assistant/internal/cache"
	"document-assistant/internal/config"
	"document-assistant/internal/engine"
	"document-assistant/internal/extractor"
	"document-assistant/internal/index"
	"document-assistant/internal/ingest"
	"document-assistant/internal/llmservice"
	"document-assistant/internal/models"
	"document-assistant/internal/rerank"
	"document-assistant/internal/retriever"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	doIngest := flag.Bool("ingest", false, "Ingest the documents folder into the index")
	rebuild := flag.Bool("rebuild", false, "Clear the cache and index before ingesting")
	query := flag.String("query", "", "Question to answer from the indexed documents")
	flag.Parse()

	if !*doIngest && *query == "" {
		log.Fatal().Msg("Please provide -ingest or -query")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector index")
	}
	defer closeStore()

	if *doIngest || *rebuild {
		runIngest(ctx, cfg, store, *rebuild)
	}

	if *query != "" {
		runQuery(ctx, cfg, store, *query)
	}
}

// newStore builds the configured index backend over the shared embedder.
func newStore(ctx context.Context, cfg *config.Config) (index.Store, func(), error) {
	embedder, err := index.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Index.Provider {
	case "chromem":
		store, err := index.NewChromemStore(cfg.Index.Path, cfg.Index.Collection, false, index.EmbeddingFunc(embedder))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "pgvector":
		store, err := index.NewPgStore(ctx, cfg.Index.PostgresDSN, cfg.Index.Debug, embedder)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown index provider %q", cfg.Index.Provider)
	}
}

func runIngest(ctx context.Context, cfg *config.Config, store index.Store, rebuild bool) {
	cacheStore, err := cache.New(cfg.Cache.Folder, cfg.Cache.UseModTime)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening extraction cache")
	}

	ext := extractor.New(extractor.Config{
		PDFPassword:    cfg.PDFPassword,
		ChunkSize:      cfg.Chunking.ChunkSize,
		Overlap:        *cfg.Chunking.Overlap,
		TableChunkSize: cfg.Chunking.TableChunkSize,
		MinChunkWords:  cfg.Chunking.MinChunkWords,
	})

	ingestor := ingest.New(cfg.DocsFolder, ext, cacheStore, store)
	stats, err := ingestor.Run(ctx, rebuild)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting documents")
	}
	printJSON(stats)
}

func printJSON(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Could not render stats")
		return
	}
	fmt.Println(string(b))
}

func runQuery(ctx context.Context, cfg *config.Config, store index.Store, query string) {
	client, err := llmservice.New(&cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing llm client")
	}

	ret := retriever.New(store, client, client, cfg.Retrieval)
	rer := rerank.New(client, cfg.Rerank)
	eng := engine.New(ret, rer, client, cfg.Context, cfg.Rerank, cfg.Engine)

	answer, sources, err := eng.Answer(ctx, query, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering query")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, c := range sources {
		fmt.Printf("%s\n", citation(c))
	}
	fmt.Println()

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer)
}

func citation(c models.Chunk) string {
	if c.Metadata.IsTable {
		return fmt.Sprintf("[Source: %s | Page: %s | Table: %s]", c.Metadata.Source, c.Metadata.Page, c.Metadata.TableNumber)
	}
	return fmt.Sprintf("[Source: %s | Page: %s]", c.Metadata.Source, c.Metadata.Page)
}
