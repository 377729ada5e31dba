package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/classwrap/pkg/transform"
	"github.com/gnana997/classwrap/pkg/util"
)

// FileJob represents a file to be transformed by the worker pool.
type FileJob struct {
	FilePath string
	JobID    int
}

// FileResult contains the transform result for a file.
type FileResult struct {
	FilePath string
	Result   *transform.Result
	JobID    int
}

// WorkerPool transforms files on a fixed set of goroutines. Each job is
// its own compilation unit, so workers share nothing but the host.
//
// **Usage:**
//
//	pool := NewWorkerPool(ctx, numWorkers, host, cache, logger)
//	pool.Start()
//	defer pool.Stop()
//
//	// Start consuming Results() and Errors() before submitting
//	for _, file := range files {
//	    pool.Submit(FileJob{FilePath: file})
//	}
//	pool.FinishSubmitting()
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup
	host       *transform.Host
	cache      util.FileCache
	logger     *slog.Logger

	// Lifecycle management
	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	// Statistics
	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a new worker pool bound to ctx.
//
// numWorkers of 0 uses util.GetOptimalPoolSize(), which is also the
// parser pool default, so workers never wait for a parser.
func NewWorkerPool(ctx context.Context, numWorkers int, host *transform.Host, cache util.FileCache, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		host:       host,
		cache:      cache,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns all worker goroutines.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("WorkerPool already started")
		return
	}

	wp.logger.Debug("Starting worker pool", "workers", wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("Worker cancelled", "worker_id", id)
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job FileJob) {
	content, err := wp.cache.Read(job.FilePath)
	if err != nil {
		wp.fail(job, fmt.Errorf("failed to read file: %w", err))
		return
	}

	wp.logger.Debug("Transforming", "worker_id", workerID, "file", job.FilePath, "size", len(content))

	result, err := wp.host.Transform(wp.ctx, job.FilePath, content)
	if err != nil {
		wp.fail(job, fmt.Errorf("transform failed: %w", err))
		return
	}

	wp.jobsProcessed.Add(1)
	select {
	case <-wp.ctx.Done():
	case wp.results <- FileResult{FilePath: job.FilePath, Result: result, JobID: job.JobID}:
	}
}

func (wp *WorkerPool) fail(job FileJob, err error) {
	wp.jobsFailed.Add(1)
	select {
	case <-wp.ctx.Done():
	case wp.errors <- FileError{FilePath: job.FilePath, Error: err}:
	}
}

// Submit enqueues a job for processing. It blocks while the queue is full.
func (wp *WorkerPool) Submit(job FileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled: %w", context.Cause(wp.ctx))
	case wp.jobs <- job:
		wp.jobsSubmitted.Add(1)
		return nil
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan FileResult {
	return wp.results
}

// Errors returns the errors channel.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the jobs channel so workers exit once it drains.
// Safe to call multiple times.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
		wp.logger.Debug("Jobs channel closed", "total_submitted", wp.jobsSubmitted.Load())
	}
}

// Stop shuts the pool down: no new jobs are accepted, in-flight jobs are
// finished or abandoned, then the result and error channels are closed.
// Safe to call multiple times.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	wp.FinishSubmitting()
	wp.cancel()
	wp.wg.Wait()

	close(wp.results)
	close(wp.errors)

	wp.logger.Debug("Worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats contains statistics about the worker pool.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int // Current jobs in queue
}
