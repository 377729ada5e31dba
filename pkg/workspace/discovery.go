package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// matcher applies validated include/exclude patterns to root-relative,
// slash-separated paths.
type matcher struct {
	include []string
	exclude []string
}

func newMatcher(opts ScanOptions) (*matcher, error) {
	m := &matcher{include: opts.Include, exclude: opts.Exclude}
	if len(m.include) == 0 {
		m.include = DefaultInclude
	}

	for _, pattern := range m.exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range m.include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return m, nil
}

// excluded reports whether rel matches an exclude pattern. Directories are
// also tested with a trailing "/x" so "dist/**" prunes "dist" itself.
func (m *matcher) excluded(rel string, dir bool) bool {
	for _, pattern := range m.exclude {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
		if dir {
			if matched, _ := doublestar.Match(pattern, rel+"/x"); matched {
				return true
			}
		}
	}
	return false
}

func (m *matcher) included(rel string) bool {
	for _, pattern := range m.include {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

// wants reports whether the file at rel is transformed.
func (m *matcher) wants(rel string) bool {
	return !m.excluded(rel, false) && m.included(rel)
}

// relSlash returns path relative to root with forward slashes.
func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// Discover walks root and returns the files selected by opts, sorted. If
// root is a file it is returned as is.
func Discover(root string, opts ScanOptions, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m, err := newMatcher(opts)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("Walk error", "path", path, "error", err)
			return nil
		}

		if path == root {
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		}

		rel := relSlash(root, path)
		if m.excluded(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if m.included(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
