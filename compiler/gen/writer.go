package gen

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/syssam/omgen/compiler/cache"
)

// WriterMetrics tracks the outcome of a generation run.
type WriterMetrics struct {
	FilesWritten   int
	FilesUnchanged int
	StubsSkipped   int
	TotalBytes     int64
}

// fileWriter writes generated files under the target directory.
// It is safe for concurrent use.
type fileWriter struct {
	dir   string
	cache *cache.Cache
	log   *slog.Logger

	mu      sync.Mutex
	metrics WriterMetrics
}

func newFileWriter(dir string, c *cache.Cache, log *slog.Logger) *fileWriter {
	return &fileWriter{dir: dir, cache: c, log: log}
}

// exists reports if the file name (relative to the target) exists.
func (w *fileWriter) exists(name string) bool {
	_, err := os.Stat(filepath.Join(w.dir, name))
	return err == nil
}

// skipStub records a stub that was left untouched.
func (w *fileWriter) skipStub(name string) {
	w.log.Info("stub exists, skipping", "file", name)
	w.mu.Lock()
	w.metrics.StubsSkipped++
	w.mu.Unlock()
}

// write writes content to the file name (relative to the target). Files
// whose content did not change since the previous run are left untouched
// when the cache is enabled. It reports if the file was written.
func (w *fileWriter) write(name string, content []byte) (bool, error) {
	fullPath := filepath.Join(w.dir, name)
	if w.cache != nil {
		w.cache.Record(name, content)
		if w.cache.Unchanged(name, content) && w.exists(name) {
			w.log.Debug("file unchanged", "file", name)
			w.mu.Lock()
			w.metrics.FilesUnchanged++
			w.mu.Unlock()
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", name, err)
	}
	w.log.Debug("file written", "file", name, "bytes", len(content))

	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(content))
	w.mu.Unlock()
	return true, nil
}

// flush persists the cache, if any.
func (w *fileWriter) flush() error {
	if w.cache == nil {
		return nil
	}
	return w.cache.Save()
}

func (w *fileWriter) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// openCache opens the build cache of the target directory. An unreadable
// cache is discarded.
func openCache(c *Config) (*cache.Cache, error) {
	path := filepath.Join(c.Target, CacheFile)
	cc, err := cache.Open(path)
	if err == nil {
		return cc, nil
	}
	c.logger().Warn("discarding unreadable build cache", "file", path, "error", err)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return cache.Open(path)
}
