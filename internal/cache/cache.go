// Package cache memoizes per-file extraction results keyed by content hash,
// so unchanged files are never reprocessed. Cache failures always degrade:
// a broken read is a miss, a broken write is a warning.
package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"document-assistant/internal/models"
)

// Store is a disk-backed extraction cache, one JSON blob per key. The blob
// format is an internal detail, not a cross-version contract.
type Store struct {
	dir        string
	useModTime bool
}

// New creates the cache directory if needed. With useModTime set, keys also
// mix in the file's modification time, so touching a file invalidates it
// even when the content hash is unchanged.
func New(dir string, useModTime bool) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache folder: %w", err)
	}
	return &Store{dir: dir, useModTime: useModTime}, nil
}

// Key derives the cache key for a file: MD5 of its bytes plus the extension.
func (s *Store) Key(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	key := fmt.Sprintf("%x_%s", h.Sum(nil), ext)

	if s.useModTime {
		stat, err := f.Stat()
		if err != nil {
			return "", err
		}
		key = fmt.Sprintf("%s_%d", key, stat.ModTime().Unix())
	}
	return key, nil
}

// Get loads a cached result. Any read or decode failure is a miss, never an
// error: the caller falls back to fresh extraction.
func (s *Store) Get(key string) (*models.DocumentInfo, bool) {
	data, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("key", key).Msg("Cache read failed, treating as miss")
		}
		return nil, false
	}
	var info models.DocumentInfo
	if err := json.Unmarshal(data, &info); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Corrupt cache entry, treating as miss")
		return nil, false
	}
	return &info, true
}

// Put saves a result best-effort. A failed write is logged, not returned.
func (s *Store) Put(key string, info *models.DocumentInfo) {
	data, err := json.Marshal(info)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Could not encode cache entry")
		return
	}
	if err := os.WriteFile(s.entryPath(key), data, 0o644); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Could not save cache entry")
	}
}

// Clear drops every entry; used by explicit corpus rebuilds.
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return os.MkdirAll(s.dir, 0o755)
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}
