package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache persists solve results as JSON files under a root directory,
// one file per key, fanned out by digest prefix. It backs the CLI, where
// the same content tends to be re-solved across invocations and the cache
// must outlive the process.
type FileCache struct {
	root string
}

// NewFileCache creates the root directory if needed and returns the cache.
func NewFileCache(root string) (Cache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{root: root}, nil
}

// fileEntry is the on-disk envelope around a cached payload. StaleAt is
// zero for entries that never expire.
type fileEntry struct {
	Payload []byte    `json:"payload"`
	StaleAt time.Time `json:"stale_at,omitempty"`
}

func (e fileEntry) stale(now time.Time) bool {
	return !e.StaleAt.IsZero() && now.After(e.StaleAt)
}

// Get reads the entry for key. Stale or undecodable files are removed and
// reported as misses; the caller simply re-solves.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.stale(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Payload, true, nil
}

// Set writes the entry for key, creating its fanout directory on demand.
// A ttl of zero or less stores the entry without an expiry.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entry := fileEntry{Payload: data}
	if ttl > 0 {
		entry.StaleAt = time.Now().Add(ttl)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Delete removes the entry for key. Deleting a missing key is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close is a no-op; the files need no teardown.
func (c *FileCache) Close() error {
	return nil
}

// path maps a key to <root>/<2-char fanout>/<hex>.json so a long-lived
// cache does not pile every result into a single directory.
func (c *FileCache) path(key string) string {
	sum := digest([]byte(key))
	return filepath.Join(c.root, sum[:2], sum[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
