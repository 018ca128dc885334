package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Cache is the process-wide directory for ephemeral audio copies.
type Cache struct {
	dir string
}

func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	return c.dir
}

// PathFor returns the cache location for an episode. Episode ids come from
// feeds and may contain anything, so the file name is derived from a hash.
func (c *Cache) PathFor(episodeID string, ext string) string {
	sum := sha256.Sum256([]byte(episodeID))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:12])+ext)
}

// CleanStale removes cache entries not modified within olderThan. Errors on
// individual files are logged and skipped.
func (c *Cache) CleanStale(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove stale cache file", "path", path, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}

// RemoveFile deletes a local audio file. A missing file is not an error.
func RemoveFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove audio file: %w", err)
	}
	return nil
}
