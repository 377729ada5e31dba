package workspace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Watcher re-transforms files as they change.
//
// **Features:**
//   - Debouncing - rapid changes to one file trigger a single transform
//   - Selective - only the changed file is processed
//   - Loop-free - in write mode the watcher's own writes fire events too;
//     content hashes of recent writes are kept in an LRU cache and matching
//     events are skipped, since the rewrite would otherwise apply again to
//     its own output
//
// **Usage:**
//
//	w, err := NewWatcher(runner, root, RunOptions{Mode: ModeWrite}, DefaultWatchOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	watcher *fsnotify.Watcher
	runner  *Runner
	root    string
	base    string
	run     RunOptions
	matcher *matcher
	logger  *slog.Logger
	options WatchOptions

	// recent holds path+hash keys of content this watcher wrote
	recent *lru.Cache[string, struct{}]

	// Debouncing
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// processing serializes transforms so a file is never written twice
	// concurrently
	processing sync.Mutex

	// Lifecycle
	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex

	stats struct {
		sync.Mutex
		processed int64
		skipped   int64
		failed    int64
	}
}

// NewWatcher creates a watcher for root. Files are selected by
// run.Scan and emitted according to run.Mode.
func NewWatcher(runner *Runner, root string, run RunOptions, options WatchOptions, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validateRunOptions(run); err != nil {
		return nil, err
	}

	defaults := DefaultWatchOptions()
	if options.DebounceMs <= 0 {
		options.DebounceMs = defaults.DebounceMs
	}
	if options.RecentWrites <= 0 {
		options.RecentWrites = defaults.RecentWrites
	}
	for _, pattern := range options.IgnorePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid ignore pattern: %s", pattern)
		}
	}

	base, err := baseDir(root)
	if err != nil {
		return nil, err
	}
	if base != root {
		return nil, fmt.Errorf("watch root must be a directory: %s", root)
	}

	scan := run.Scan
	if run.Mode == ModeOutDir {
		scan.Exclude = append(append([]string(nil), scan.Exclude...), outDirExcludes(base, run.OutDir)...)
	}
	m, err := newMatcher(scan)
	if err != nil {
		return nil, err
	}

	recent, err := lru.New[string, struct{}](options.RecentWrites)
	if err != nil {
		return nil, fmt.Errorf("create write cache: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		watcher:        fw,
		runner:         runner,
		root:           root,
		base:           base,
		run:            run,
		matcher:        m,
		logger:         logger,
		options:        options,
		recent:         recent,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start adds watches for the root and its non-excluded subdirectories and
// processes events in the background until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	if err := w.addTree(w.root); err != nil {
		return err
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.started = true
	w.logger.Info("File watcher started", "root", w.root, "mode", w.run.Mode.String())

	go w.eventLoop()
	return nil
}

// addTree watches dir and every subdirectory that is not excluded.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.matcher.excluded(relSlash(w.base, path), true) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)
	if w.cancel != nil {
		w.cancel()
	}

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("File watcher stopped")
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case <-w.ctx.Done():
			w.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.shouldIgnore(path) {
		return
	}

	rel := relSlash(w.base, path)

	if event.Has(fsnotify.Create) && isDir(path) {
		if !w.matcher.excluded(rel, true) {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
			}
		}
		return
	}

	if !w.matcher.wants(rel) {
		return
	}

	w.logger.Debug("File event", "op", event.Op.String(), "file", path)

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.debounce(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if err := w.runner.cache.Invalidate(path); err != nil {
			w.logger.Warn("Failed to invalidate cached file", "file", path, "error", err)
		}
	}
}

// debounce schedules processing after the debounce delay, replacing any
// pending schedule for the same file.
func (w *Watcher) debounce(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debounceTimers[path]; exists {
		timer.Stop()
	}

	w.debounceTimers[path] = time.AfterFunc(
		time.Duration(w.options.DebounceMs)*time.Millisecond,
		func() {
			w.debounceMu.Lock()
			delete(w.debounceTimers, path)
			w.debounceMu.Unlock()

			w.process(path)
		},
	)
}

// process transforms one changed file unless its content is the watcher's
// own output.
func (w *Watcher) process(path string) {
	w.processing.Lock()
	defer w.processing.Unlock()

	if w.ctx.Err() != nil {
		return
	}

	if err := w.runner.cache.Invalidate(path); err != nil {
		w.logger.Warn("Failed to invalidate cached file", "file", path, "error", err)
	}
	content, err := w.runner.cache.Read(path)
	if err != nil {
		w.finish(FileOutcome{Path: path}, fmt.Errorf("failed to read file: %w", err))
		return
	}

	if w.recent.Contains(writeKey(path, content)) {
		w.stats.Lock()
		w.stats.skipped++
		w.stats.Unlock()
		w.logger.Debug("Skipping own write", "file", path)
		return
	}

	res, err := w.runner.host.Transform(w.ctx, path, content)
	if err != nil {
		w.finish(FileOutcome{Path: path}, fmt.Errorf("transform failed: %w", err))
		return
	}

	outcome, err := w.runner.emit(w.base, w.run, res)
	if err != nil {
		w.finish(FileOutcome{Path: path}, err)
		return
	}
	if outcome.Written && outcome.Output == path {
		w.recent.Add(writeKey(path, res.Code), struct{}{})
	}

	w.finish(*outcome, nil)
}

func (w *Watcher) finish(outcome FileOutcome, err error) {
	w.stats.Lock()
	if err != nil {
		w.stats.failed++
	} else {
		w.stats.processed++
	}
	w.stats.Unlock()

	if err != nil {
		w.logger.Warn("Watch transform failed", "file", outcome.Path, "error", err)
	} else {
		w.logger.Info("File transformed",
			"file", relSlash(w.base, outcome.Path),
			"changed", outcome.Changed,
			"rewrites", outcome.Rewrites)
	}

	if w.options.OnFile != nil {
		w.options.OnFile(outcome, err)
	}
}

func writeKey(path string, content []byte) string {
	sum := sha256.Sum256(content)
	return path + "\x00" + hex.EncodeToString(sum[:])
}

// shouldIgnore matches the base name against editor temp-file patterns.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.options.IgnorePatterns {
		if matched, _ := doublestar.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// GetStats returns watcher statistics.
func (w *Watcher) GetStats() WatcherStats {
	w.debounceMu.Lock()
	pending := len(w.debounceTimers)
	w.debounceMu.Unlock()

	w.mu.Lock()
	running := w.started && !w.stopped
	w.mu.Unlock()

	w.stats.Lock()
	defer w.stats.Unlock()

	return WatcherStats{
		Pending:          pending,
		Processed:        w.stats.processed,
		SkippedOwnWrites: w.stats.skipped,
		Failed:           w.stats.failed,
		IsRunning:        running,
	}
}

// WatcherStats contains watcher statistics.
type WatcherStats struct {
	Pending          int
	Processed        int64
	SkippedOwnWrites int64
	Failed           int64
	IsRunning        bool
}
