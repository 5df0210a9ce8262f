package preds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stattip/stattip/internal/logger"
)

// Snapshot kinds, used as the filename prefix
const (
	SnapshotKindMatches = "cache"
	SnapshotKindVIP     = "vip_cache"
)

// snapshotEnvelope wraps the cached records with the write time the TTL
// is measured from. Records stay raw so one cache serves both kinds.
type snapshotEnvelope struct {
	WrittenAt time.Time       `json:"writtenAt"`
	Records   json.RawMessage `json:"records"`
}

// SnapshotCache stores one JSON file per (kind, date). Entries expire a
// fixed TTL after they were written. Any read problem, missing file,
// bad JSON or expired entry, is a miss; the cache never fails a caller.
type SnapshotCache struct {
	dir string
	ttl time.Duration
}

// NewSnapshotCache ensures the cache directory exists and returns the
// cache. An unwritable directory is an error; everything after that
// degrades to misses.
func NewSnapshotCache(dir string, ttl time.Duration) (*SnapshotCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &SnapshotCache{dir: dir, ttl: ttl}, nil
}

func (c *SnapshotCache) path(kind, date string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.json", kind, date))
}

// Get loads the cached records for a kind and date into out. Returns
// false on miss for any reason.
func (c *SnapshotCache) Get(kind, date string, out any) bool {
	raw, err := os.ReadFile(c.path(kind, date))
	if err != nil {
		return false
	}
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Warn("discarding corrupt cache entry", c.path(kind, date), err.Error())
		return false
	}
	if time.Since(env.WrittenAt) > c.ttl {
		logger.Debug("cache entry expired for", kind, date)
		return false
	}
	if err := json.Unmarshal(env.Records, out); err != nil {
		logger.Warn("discarding unreadable cache records", c.path(kind, date), err.Error())
		return false
	}
	logger.Debug("cache hit for", kind, date)
	return true
}

// Put writes the records for a kind and date. The write goes through a
// temp file and a rename so a crash never leaves a half-written entry.
func (c *SnapshotCache) Put(kind, date string, records any) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal cache records: %w", err)
	}
	env := snapshotEnvelope{WrittenAt: time.Now(), Records: raw}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache envelope: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, kind+"_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(kind, date)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return nil
}
