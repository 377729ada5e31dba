// Tests for FileCache with mmap-based file access.
package util

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestFiles creates temporary source files for testing.
func setupTestFiles(t *testing.T) map[string]string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"App.jsx":   `export const App = () => <div className={[a, b]} />;`,
		"Menu.tsx":  "const Menu = (p: P) => <ul className={p.cls} />;\n// 👋 unicode",
		"empty.js":  "",
		"large.jsx": strings.Repeat("// comment line\n", 2000),
	}

	paths := make(map[string]string, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		paths[name] = path
	}
	return paths
}

func TestFileCache_Read(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	assert.Equal(t, 0, cache.Size())

	data, err := cache.Read(files["App.jsx"])
	require.NoError(t, err)
	assert.Equal(t, `export const App = () => <div className={[a, b]} />;`, string(data))
	assert.Equal(t, 1, cache.Size())

	// Second read is a hit.
	_, err = cache.Read(files["App.jsx"])
	require.NoError(t, err)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.FilesLoaded)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Equal(t, 1, stats.FilesCached)
	assert.Greater(t, stats.TotalMappedMB, 0.0)
}

func TestFileCache_ReadReturnsPrivateCopy(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	data, err := cache.Read(files["App.jsx"])
	require.NoError(t, err)
	data[0] = 'X'

	again, err := cache.Read(files["App.jsx"])
	require.NoError(t, err)
	assert.Equal(t, byte('e'), again[0])
}

func TestFileCache_EmptyFile(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	data, err := cache.Read(files["empty.js"])
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFileCache_Unicode(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	data, err := cache.Read(files["Menu.tsx"])
	require.NoError(t, err)
	assert.Contains(t, string(data), "👋")
}

func TestFileCache_MissingFile(t *testing.T) {
	cache := NewFileCache(nil)
	defer cache.Close()

	_, err := cache.Read(filepath.Join(t.TempDir(), "missing.jsx"))
	assert.Error(t, err)
}

func TestFileCache_InvalidateSeesNewContent(t *testing.T) {
	files := setupTestFiles(t)
	path := files["App.jsx"]

	cache := NewFileCache(nil)
	defer cache.Close()

	_, err := cache.Read(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`<b className={x} />`), 0644))
	require.NoError(t, cache.Invalidate(path))
	assert.Equal(t, 0, cache.Size())

	data, err := cache.Read(path)
	require.NoError(t, err)
	assert.Equal(t, `<b className={x} />`, string(data))
	assert.Equal(t, int64(1), cache.Stats().Invalidations)

	// Unknown paths are ignored.
	assert.NoError(t, cache.Invalidate("/does/not/exist"))
}

func TestFileCache_MaxFilesLimit(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(&FileCacheConfig{MaxFiles: 1, EnableMetrics: true})
	defer cache.Close()

	_, err := cache.Read(files["App.jsx"])
	require.NoError(t, err)

	_, err = cache.Read(files["Menu.tsx"])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheFull)

	// Releasing a slot makes room again.
	require.NoError(t, cache.Invalidate(files["App.jsx"]))
	_, err = cache.Read(files["Menu.tsx"])
	assert.NoError(t, err)
}

func TestFileCache_ConcurrentReads(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := cache.Read(files["large.jsx"])
			assert.NoError(t, err)
			assert.Len(t, data, 2000*len("// comment line\n"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), cache.Stats().FilesLoaded)
}

func TestFileCache_MetricsDisabled(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(&FileCacheConfig{})
	defer cache.Close()

	_, err := cache.Read(files["App.jsx"])
	require.NoError(t, err)

	stats := cache.Stats()
	assert.Zero(t, stats.FilesLoaded)
	assert.Equal(t, 1, stats.FilesCached)
}
