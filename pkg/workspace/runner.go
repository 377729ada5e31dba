// Package workspace applies a transform.Host to the files of a directory
// tree: discovery with doublestar patterns, parallel transformation on a
// worker pool, output in place, to a mirror directory or nowhere (check
// mode), and an fsnotify-driven watch mode.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gnana997/classwrap/pkg/transform"
	"github.com/gnana997/classwrap/pkg/util"
)

// Runner transforms workspaces.
//
// **Pipeline:**
//  1. File Discovery - walk the root and select files by pattern
//  2. Parallel Processing - transform each file on the worker pool
//  3. Output - write, mirror or only report results, one file at a time
//
// **Usage:**
//
//	runner := NewRunner(host, cache, logger)
//	stats, err := runner.Run(ctx, "/path/to/app", RunOptions{Mode: ModeCheck}, nil)
type Runner struct {
	host   *transform.Host
	cache  util.FileCache
	logger *slog.Logger
}

// NewRunner creates a runner. cache may be nil, in which case a default
// util.FileCache is created; the caller still owns a cache it passes in.
func NewRunner(host *transform.Host, cache util.FileCache, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cfg := util.DefaultFileCacheConfig()
		cfg.Logger = logger
		cache = util.NewFileCache(cfg)
	}
	return &Runner{host: host, cache: cache, logger: logger}
}

// Cache returns the file cache sources are read through.
func (r *Runner) Cache() util.FileCache {
	return r.cache
}

// Run transforms every file under root selected by opts.Scan. root may also
// be a single file. Per-file failures are collected in the stats and never
// stop the run; an error is returned only for invalid options, discovery
// failure or cancellation (with the stats gathered so far).
func (r *Runner) Run(ctx context.Context, root string, opts RunOptions, progress ProgressCallback) (*RunStats, error) {
	startTime := time.Now()
	stats := &RunStats{
		Mode:      opts.Mode,
		StartTime: startTime,
	}

	if err := validateRunOptions(opts); err != nil {
		return nil, err
	}

	base, err := baseDir(root)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Starting workspace run", "root", root, "mode", opts.Mode.String())

	discoveryStart := time.Now()
	scan := opts.Scan
	if opts.Mode == ModeOutDir {
		scan.Exclude = append(append([]string(nil), scan.Exclude...), outDirExcludes(base, opts.OutDir)...)
	}
	files, err := Discover(root, scan, r.logger)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	r.logger.Info("File discovery complete",
		"files_found", len(files),
		"duration_ms", stats.DiscoveryTimeMs)

	if len(files) > 0 {
		processingStart := time.Now()
		err = r.processFiles(ctx, base, files, opts, stats, progress)
		stats.ProcessingTimeMs = time.Since(processingStart).Milliseconds()
	} else {
		r.logger.Warn("No files found matching criteria")
	}

	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(startTime).Milliseconds()
	stats.FilesUnchanged = stats.FilesProcessed - stats.FilesChanged
	sort.Strings(stats.Changed)
	if stats.ProcessingTimeMs > 0 {
		stats.FilesPerSecond = float64(stats.FilesProcessed) / (float64(stats.ProcessingTimeMs) / 1000.0)
	}

	if err != nil {
		stats.Cancelled = errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		return stats, err
	}

	r.logger.Info("Workspace run complete",
		"files_changed", stats.FilesChanged,
		"files_written", stats.FilesWritten,
		"files_failed", stats.FilesFailed,
		"rewrites", stats.Rewrites,
		"duration_ms", stats.TotalTimeMs)

	cs := r.cache.Stats()
	r.logger.Debug("File cache stats",
		"files_loaded", cs.FilesLoaded,
		"files_cached", cs.FilesCached,
		"cache_hits", cs.CacheHits,
		"cache_misses", cs.CacheMisses,
		"invalidations", cs.Invalidations,
		"mmap_failures", cs.MmapFailures,
		"mapped_mb", cs.TotalMappedMB)

	return stats, nil
}

func (r *Runner) processFiles(
	ctx context.Context,
	base string,
	files []string,
	opts RunOptions,
	stats *RunStats,
	progress ProgressCallback,
) error {
	total := len(files)

	pool := NewWorkerPool(ctx, opts.Workers, r.host, r.cache, r.logger)
	stats.WorkerCount = pool.numWorkers
	pool.Start()
	defer pool.Stop()

	// The collector must run before jobs are submitted: Submit blocks once
	// the jobs channel is full.
	done := make(chan struct{})
	go func() {
		defer close(done)

		finished := 0
		for finished < total {
			select {
			case <-ctx.Done():
				return

			case res := <-pool.Results():
				outcome, err := r.emit(base, opts, res.Result)
				if err != nil {
					r.recordError(stats, FileError{FilePath: res.FilePath, Error: err})
				} else {
					recordOutcome(stats, base, outcome)
				}
				finished++
				if progress != nil {
					progress(finished, total, res.FilePath)
				}

			case fileErr := <-pool.Errors():
				r.recordError(stats, fileErr)
				finished++
				if progress != nil {
					progress(finished, total, fileErr.FilePath)
				}
			}
		}
	}()

	for i, file := range files {
		if err := pool.Submit(FileJob{FilePath: file, JobID: i}); err != nil {
			<-done
			return ctxErrOr(ctx, err)
		}
	}
	pool.FinishSubmitting()

	<-done
	return ctx.Err()
}

func ctxErrOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (r *Runner) recordError(stats *RunStats, fileErr FileError) {
	stats.Errors = append(stats.Errors, fileErr)
	stats.FilesFailed++
	r.logger.Warn("File processing failed",
		"file", fileErr.FilePath,
		"error", fileErr.Error)
}

func recordOutcome(stats *RunStats, base string, o *FileOutcome) {
	stats.FilesProcessed++
	stats.Rewrites += o.Rewrites
	stats.ImportsAdded += o.Imports
	if o.Changed {
		stats.FilesChanged++
		stats.Changed = append(stats.Changed, relSlash(base, o.Path))
	}
	if o.Written {
		stats.FilesWritten++
	}
	if o.ParseErrors {
		stats.FilesWithParseErrors++
	}
}

// ProcessFile transforms and emits a single file.
func (r *Runner) ProcessFile(ctx context.Context, base, path string, opts RunOptions) (*FileOutcome, error) {
	content, err := r.cache.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	res, err := r.host.Transform(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}
	return r.emit(base, opts, res)
}

// emit writes a result according to the mode.
func (r *Runner) emit(base string, opts RunOptions, res *transform.Result) (*FileOutcome, error) {
	outcome := &FileOutcome{
		Path:        res.Path,
		Changed:     res.Changed,
		Rewrites:    len(res.Rewrites),
		Imports:     len(res.Imports),
		ParseErrors: res.ParseErrors,
	}

	switch opts.Mode {
	case ModeCheck:
		return outcome, nil

	case ModeWrite:
		if !res.Changed {
			return outcome, nil
		}
		if err := writeFile(res.Path, res.Code, res.Path); err != nil {
			return nil, err
		}
		if err := r.cache.Invalidate(res.Path); err != nil {
			r.logger.Warn("Failed to invalidate cached file", "file", res.Path, "error", err)
		}
		outcome.Written = true
		outcome.Output = res.Path

	case ModeOutDir:
		dst := filepath.Join(opts.OutDir, filepath.FromSlash(relSlash(base, res.Path)))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		if err := writeFile(dst, res.Code, res.Path); err != nil {
			return nil, err
		}
		outcome.Written = true
		outcome.Output = dst
	}

	if outcome.Written {
		r.logger.Debug("File written", "file", res.Path, "output", outcome.Output, "rewrites", outcome.Rewrites)
	}
	return outcome, nil
}

// writeFile writes data to dst with the permissions of src.
func writeFile(dst string, data []byte, src string) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

func validateRunOptions(opts RunOptions) error {
	switch opts.Mode {
	case ModeWrite, ModeCheck:
		return nil
	case ModeOutDir:
		if opts.OutDir == "" {
			return fmt.Errorf("out-dir mode requires an output directory")
		}
		return nil
	default:
		return fmt.Errorf("unknown run mode %d", opts.Mode)
	}
}

// baseDir returns the directory output paths are relative to: root itself,
// or its parent when root is a file.
func baseDir(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", root, err)
	}
	if info.IsDir() {
		return root, nil
	}
	return filepath.Dir(root), nil
}

// outDirExcludes keeps an output directory inside the workspace from being
// transformed again.
func outDirExcludes(base, outDir string) []string {
	absBase, err1 := filepath.Abs(base)
	absOut, err2 := filepath.Abs(outDir)
	if err1 != nil || err2 != nil {
		return nil
	}
	rel, err := filepath.Rel(absBase, absOut)
	if err != nil || rel == "." || filepath.IsAbs(rel) || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return nil
	}
	rel = filepath.ToSlash(rel)
	return []string{rel, rel + "/**"}
}
