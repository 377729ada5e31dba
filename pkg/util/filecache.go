// FileCache provides source file access through memory-mapped files.
//
// Sources are mapped read-only on first access and copied out by Read, so
// callers own the returned bytes and a file may be rewritten while its old
// mapping is still cached. Invalidate drops a mapping after the file
// changed on disk (the watcher and in-place writes both call it).
//
// Safety Features:
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Optional MaxMemoryMB limit (prevents runaway virtual memory usage)
//   - Graceful fallback to os.ReadFile if mmap fails
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive writes)
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// ErrCacheFull is returned by Get when a configured limit would be exceeded.
var ErrCacheFull = errors.New("file cache limit reached")

// FileCache provides memory-mapped file access.
//
// Thread-safe: Multiple goroutines can call methods concurrently.
type FileCache interface {
	// Get returns the mapped file, loading it on first access.
	Get(filePath string) (*MappedFile, error)

	// Read returns a private copy of the file contents.
	Read(filePath string) ([]byte, error)

	// Invalidate unmaps and forgets a file. Unknown paths are ignored.
	Invalidate(filePath string) error

	// Size returns number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files kept mapped. 0 = unlimited.
	MaxFiles int

	// MaxMemoryMB limits mapped virtual memory (not physical RAM).
	// 0 = unlimited.
	MaxMemoryMB int

	// EnableMetrics determines whether to track cache statistics.
	EnableMetrics bool

	// Logger for warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns limits suitable for front-end repos of up
// to a few thousand components.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      10000,
		MaxMemoryMB:   2048,
		EnableMetrics: true,
	}
}

// MappedFile represents a memory-mapped file.
type MappedFile struct {
	Path string

	// Data is the mapped region; nil for empty files. For fallback entries
	// it wraps a heap copy.
	Data mmap.MMap

	// File is kept open while mapped; nil for fallback entries.
	File *os.File

	Size     int64
	MappedAt time.Time

	fallback bool
}

// FileCacheStats tracks cache performance metrics.
type FileCacheStats struct {
	FilesLoaded   int64
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	Invalidations int64

	// MmapFailures counts files read with os.ReadFile after mmap failed
	MmapFailures int64

	// TotalMappedMB is virtual memory currently mapped
	TotalMappedMB float64
}

// NewFileCache creates a new FileCache with the given config.
// If config is nil, uses DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &fileCacheImpl{
		config: config,
		cache:  make(map[string]*MappedFile),
		logger: logger,
	}
}

// fileCacheImpl is the internal implementation of FileCache.
//
// mu protects cache; statsMu protects stats so metric updates never contend
// with lookups.
type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	cache map[string]*MappedFile
	mu    sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

// Get returns mmap'd file or loads it on first access.
func (fc *fileCacheImpl) Get(filePath string) (*MappedFile, error) {
	fc.mu.RLock()
	if mf, ok := fc.cache[filePath]; ok {
		fc.mu.RUnlock()
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return mf, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Another goroutine may have loaded it while we waited for Lock.
	if mf, ok := fc.cache[filePath]; ok {
		fc.record(func(s *FileCacheStats) { s.CacheHits++ })
		return mf, nil
	}

	fc.record(func(s *FileCacheStats) { s.CacheMisses++ })

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}
	if err := fc.checkLimitsLocked(stat.Size()); err != nil {
		return nil, err
	}

	mf, err := fc.loadFile(filePath)
	if err != nil {
		return nil, err
	}

	fc.cache[filePath] = mf
	fc.record(func(s *FileCacheStats) { s.FilesLoaded++ })

	return mf, nil
}

// Read returns a copy of the file contents.
func (fc *fileCacheImpl) Read(filePath string) ([]byte, error) {
	mf, err := fc.Get(filePath)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(mf.Data))
	copy(out, mf.Data)
	return out, nil
}

// checkLimitsLocked verifies that adding a file of newFileSize bytes stays
// within limits. Must be called while holding mu.Lock.
func (fc *fileCacheImpl) checkLimitsLocked(newFileSize int64) error {
	if fc.config.MaxFiles > 0 && len(fc.cache) >= fc.config.MaxFiles {
		return fmt.Errorf("%w: %d files (limit: %d files)",
			ErrCacheFull, len(fc.cache), fc.config.MaxFiles)
	}

	if fc.config.MaxMemoryMB > 0 && newFileSize > 0 {
		currentMB := fc.totalMappedMBLocked()
		newFileMB := float64(newFileSize) / (1024 * 1024)
		if currentMB+newFileMB >= float64(fc.config.MaxMemoryMB) {
			return fmt.Errorf("%w: %.2f MB + %.2f MB (limit: %d MB)",
				ErrCacheFull, currentMB, newFileMB, fc.config.MaxMemoryMB)
		}
	}

	return nil
}

// loadFile opens and mmaps a file, with fallback to os.ReadFile if mmap fails.
func (fc *fileCacheImpl) loadFile(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	// Zero bytes cannot be mapped.
	if stat.Size() == 0 {
		file.Close()
		return &MappedFile{Path: filePath, MappedAt: time.Now(), fallback: true}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		file.Close()
		fc.logger.Warn("mmap failed, using fallback",
			"file", filePath,
			"size", stat.Size(),
			"error", err)

		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}
		fc.record(func(s *FileCacheStats) { s.MmapFailures++ })

		return &MappedFile{
			Path:     filePath,
			Data:     mmap.MMap(raw),
			Size:     int64(len(raw)),
			MappedAt: time.Now(),
			fallback: true,
		}, nil
	}

	return &MappedFile{
		Path:     filePath,
		Data:     data,
		File:     file,
		Size:     stat.Size(),
		MappedAt: time.Now(),
	}, nil
}

// Invalidate unmaps a single file.
func (fc *fileCacheImpl) Invalidate(filePath string) error {
	fc.mu.Lock()
	mf, ok := fc.cache[filePath]
	delete(fc.cache, filePath)
	fc.mu.Unlock()

	if !ok {
		return nil
	}

	fc.record(func(s *FileCacheStats) { s.Invalidations++ })
	return releaseMapped(mf)
}

func releaseMapped(mf *MappedFile) error {
	var errs []error
	if !mf.fallback && mf.Data != nil {
		if err := mf.Data.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap %q: %w", mf.Path, err))
		}
	}
	if mf.File != nil {
		if err := mf.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", mf.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Size returns number of currently cached files.
func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return len(fc.cache)
}

// Stats returns current cache metrics.
func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.mu.RLock()
	cachedFiles := len(fc.cache)
	totalMappedMB := fc.totalMappedMBLocked()
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()

	stats := fc.stats
	stats.FilesCached = cachedFiles
	stats.TotalMappedMB = totalMappedMB

	return stats
}

// totalMappedMBLocked must be called while holding mu.
func (fc *fileCacheImpl) totalMappedMBLocked() float64 {
	total := int64(0)
	for _, mf := range fc.cache {
		total += mf.Size
	}
	return float64(total) / (1024 * 1024)
}

// Close unmaps all files and releases resources.
func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for path, mf := range fc.cache {
		if err := releaseMapped(mf); err != nil {
			fc.logger.Warn("failed to release file", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	fc.cache = make(map[string]*MappedFile)

	fc.statsMu.Lock()
	fc.logger.Debug("FileCache closed",
		"files_loaded", fc.stats.FilesLoaded,
		"cache_hits", fc.stats.CacheHits,
		"cache_misses", fc.stats.CacheMisses,
		"mmap_failures", fc.stats.MmapFailures)
	fc.statsMu.Unlock()

	return errors.Join(errs...)
}

func (fc *fileCacheImpl) record(update func(*FileCacheStats)) {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}
