package workspace

import (
	"time"
)

// ScanOptions configures which files of a workspace are transformed.
type ScanOptions struct {
	// Include patterns (doublestar syntax, e.g., "src/**/*.jsx"), matched
	// against slash-separated paths relative to the root.
	// If empty, DefaultInclude is used.
	Include []string

	// Exclude patterns, matched against files and directories. A matching
	// directory is not descended into.
	Exclude []string
}

// DefaultInclude matches every file extension that can hold JSX.
var DefaultInclude = []string{"**/*.{js,jsx,mjs,cjs,tsx}"}

// DefaultExclude skips dependency, VCS and build output directories.
var DefaultExclude = []string{
	"**/node_modules/**",
	".git/**",
	"dist/**",
	"build/**",
	"coverage/**",
	"out/**",
	".next/**",
}

// DefaultScanOptions returns recommended scan options.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Include: append([]string(nil), DefaultInclude...),
		Exclude: append([]string(nil), DefaultExclude...),
	}
}

// Mode selects what a run does with transformed sources.
type Mode int

const (
	// ModeWrite rewrites changed files in place
	ModeWrite Mode = iota
	// ModeCheck writes nothing and reports files that would change
	ModeCheck
	// ModeOutDir mirrors every processed file into RunOptions.OutDir
	ModeOutDir
)

// String returns the string representation of a Mode.
func (m Mode) String() string {
	switch m {
	case ModeWrite:
		return "write"
	case ModeCheck:
		return "check"
	case ModeOutDir:
		return "out-dir"
	default:
		return "unknown"
	}
}

// RunOptions configures a Runner.
type RunOptions struct {
	Scan ScanOptions
	Mode Mode

	// OutDir is the output root for ModeOutDir. Files keep their path
	// relative to the workspace root.
	OutDir string

	// Workers is the number of files transformed concurrently.
	// 0 = util.GetOptimalPoolSize().
	Workers int
}

// RunStats contains statistics about a workspace run.
type RunStats struct {
	Mode Mode

	// FilesDiscovered is the total number of files found
	FilesDiscovered int

	// FilesProcessed is the number of files transformed without error
	FilesProcessed int

	// FilesChanged is the number of files with at least one rewrite
	FilesChanged int

	// FilesUnchanged is FilesProcessed minus FilesChanged
	FilesUnchanged int

	// FilesWritten is the number of files written (in place or to OutDir)
	FilesWritten int

	// FilesFailed is the number of files that could not be read, parsed or
	// written
	FilesFailed int

	// FilesWithParseErrors counts files transformed after syntax error
	// recovery
	FilesWithParseErrors int

	// Rewrites is the total number of rewritten attributes
	Rewrites int

	// ImportsAdded is the total number of import declarations inserted
	ImportsAdded int

	// Changed lists the files with rewrites, relative to the root, sorted
	Changed []string

	// DiscoveryTimeMs is time spent discovering files
	DiscoveryTimeMs int64

	// ProcessingTimeMs is time spent transforming and writing files
	ProcessingTimeMs int64

	// TotalTimeMs is the total run duration in milliseconds
	TotalTimeMs int64

	// FilesPerSecond is the throughput rate
	FilesPerSecond float64

	// WorkerCount is the number of workers used
	WorkerCount int

	// Errors contains per-file errors (if any)
	Errors []FileError

	// Cancelled indicates the run was stopped by its context
	Cancelled bool

	StartTime time.Time
	EndTime   time.Time
}

// FileError represents an error that occurred while processing a file.
type FileError struct {
	FilePath string
	Error    error
}

// FileOutcome is the result of processing one file.
type FileOutcome struct {
	Path        string
	Changed     bool
	Written     bool
	Rewrites    int
	Imports     int
	ParseErrors bool

	// Output is the path written, if any
	Output string
}

// ProgressCallback is called after each file is processed.
//
// Parameters:
//   - done: Number of files processed so far (including failures)
//   - total: Total number of files to process
//   - currentFile: Path of the file just processed
type ProgressCallback func(done, total int, currentFile string)

// WatchOptions configures file watching behavior.
type WatchOptions struct {
	// DebounceMs is the debounce delay in milliseconds.
	// Multiple rapid changes to one file are grouped into a single transform.
	// Default: 200ms
	DebounceMs int

	// IgnorePatterns are base-name patterns of editor temp files.
	IgnorePatterns []string

	// RecentWrites is how many of the watcher's own writes are remembered
	// so the events they cause are not transformed again. Default: 1024
	RecentWrites int

	// OnFile is called after each file the watcher processes.
	OnFile func(FileOutcome, error)
}

// DefaultWatchOptions returns recommended watch options.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs: 200,
		IgnorePatterns: []string{
			"*.swp",
			"*.tmp",
			"*~",
			".#*",
		},
		RecentWrites: 1024,
	}
}
