// Package cache keeps the content hashes of generated files between runs,
// so that unchanged files are not rewritten.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
)

// version of the on-disk format. Files with another version are ignored.
const version = 1

// Cache maps generated file paths to the hash of their content.
// It is safe for concurrent use.
type Cache struct {
	path string

	mu   sync.Mutex
	prev map[string]uint64
	next map[string]uint64
}

type file struct {
	Version int               `msgpack:"version"`
	Entries map[string]uint64 `msgpack:"entries"`
}

// Open loads the cache stored at path. A missing or outdated file yields an
// empty cache.
func Open(path string) (*Cache, error) {
	c := &Cache{path: path, prev: make(map[string]uint64), next: make(map[string]uint64)}
	buf, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}
	var f file
	if err := msgpack.Unmarshal(buf, &f); err != nil {
		return nil, fmt.Errorf("cache: decode %s: %w", path, err)
	}
	if f.Version == version && f.Entries != nil {
		c.prev = f.Entries
	}
	return c, nil
}

// Sum returns the hash of content.
func Sum(content []byte) uint64 {
	return xxh3.Hash(content)
}

// Unchanged reports if name was recorded with the same content by the
// previous run.
func (c *Cache) Unchanged(name string, content []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.prev[name]
	return ok && h == Sum(content)
}

// Record stores the hash of the content written to name by this run.
func (c *Cache) Record(name string, content []byte) {
	sum := Sum(content)
	c.mu.Lock()
	c.next[name] = sum
	c.mu.Unlock()
}

// Len returns the number of entries recorded by this run.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.next)
}

// Save writes the entries recorded by this run. Files not generated by this
// run are dropped from the cache.
func (c *Cache) Save() error {
	c.mu.Lock()
	buf, err := msgpack.Marshal(&file{Version: version, Entries: c.next})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("cache: create directory: %w", err)
	}
	if err := os.WriteFile(c.path, buf, 0o644); err != nil {
		return fmt.Errorf("cache: write %s: %w", c.path, err)
	}
	return nil
}
