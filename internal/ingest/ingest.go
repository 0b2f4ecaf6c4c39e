// Package ingest walks the document folder and feeds extraction results
// into the vector index, reusing cached extractions for unchanged files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"document-assistant/internal/cache"
	"document-assistant/internal/extractor"
	"document-assistant/internal/index"
	"document-assistant/internal/models"
)

// ErrIngestInProgress reports a Run call overlapping another.
var ErrIngestInProgress = errors.New("ingestion already in progress")

var supportedExts = map[string]struct{}{
	".pdf": {}, ".docx": {}, ".txt": {}, ".md": {}, ".xlsx": {},
}

// Stats summarizes one ingestion run.
type Stats struct {
	Files    int `json:"files"`
	Chunks   int `json:"chunks"`
	Tables   int `json:"tables"`
	Failures int `json:"failures"`
}

// Ingestor runs the extraction and indexing pipeline over a folder. Safe for
// concurrent use; overlapping runs fail fast instead of queueing.
type Ingestor struct {
	mu        sync.Mutex
	folder    string
	extractor *extractor.Extractor
	cache     *cache.Store
	store     index.Store
}

func New(folder string, ext *extractor.Extractor, cacheStore *cache.Store, store index.Store) *Ingestor {
	return &Ingestor{folder: folder, extractor: ext, cache: cacheStore, store: store}
}

// Run ingests every supported file under the folder. With rebuild set, the
// extraction cache and the index are cleared first; otherwise an already
// populated index is reused untouched. Per-file failures are counted and
// logged, never fatal for the batch.
func (in *Ingestor) Run(ctx context.Context, rebuild bool) (*Stats, error) {
	if !in.mu.TryLock() {
		return nil, ErrIngestInProgress
	}
	defer in.mu.Unlock()

	if rebuild {
		if err := in.cache.Clear(); err != nil {
			return nil, err
		}
		if err := in.store.Reset(ctx); err != nil {
			return nil, err
		}
	} else if count := in.store.Count(); count > 0 {
		log.Info().Int("chunks", count).Msg("Index already populated, reusing")
		return &Stats{Chunks: count}, nil
	}

	paths, err := in.scan()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		log.Warn().Str("folder", in.folder).Msg("No supported documents found")
		return &Stats{}, nil
	}

	stats := &Stats{}
	var all []models.Chunk
	for _, path := range paths {
		info, err := in.processFile(path)
		if err != nil {
			log.Error().Err(err).Str("file", filepath.Base(path)).Msg("Skipping document")
			stats.Failures++
			continue
		}
		stats.Files++
		stats.Tables += info.TotalTables
		all = append(all, info.Chunks...)
	}

	if len(all) > 0 {
		if err := in.store.Add(ctx, all); err != nil {
			return nil, fmt.Errorf("index chunks: %w", err)
		}
	}
	stats.Chunks = len(all)

	log.Info().
		Int("files", stats.Files).
		Int("chunks", stats.Chunks).
		Int("tables", stats.Tables).
		Int("failures", stats.Failures).
		Msg("Ingestion complete")
	return stats, nil
}

// processFile resolves a file through the cache, extracting on miss.
func (in *Ingestor) processFile(path string) (*models.DocumentInfo, error) {
	key, err := in.cache.Key(path)
	if err != nil {
		return nil, fmt.Errorf("hash file: %w", err)
	}
	if info, ok := in.cache.Get(key); ok {
		log.Debug().Str("file", filepath.Base(path)).Msg("Extraction cache hit")
		return info, nil
	}

	info, err := in.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	in.cache.Put(key, info)
	log.Info().
		Str("file", filepath.Base(path)).
		Int("chunks", len(info.Chunks)).
		Int("tables", info.TotalTables).
		Msg("Extracted document")
	return info, nil
}

// scan lists supported files directly under the folder, sorted by name.
func (in *Ingestor) scan() ([]string, error) {
	entries, err := os.ReadDir(in.folder)
	if err != nil {
		return nil, fmt.Errorf("read documents folder: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := supportedExts[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(in.folder, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
