package util

import "runtime"

// GetOptimalPoolSize returns the pool size for CPU-bound work.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Parsing is CGO-heavy, so 2x cores keeps cores busy while goroutines sit
// in C calls. Used for both the parser pools and the workspace worker pool;
// the two must match or workers block waiting for parsers.
func GetOptimalPoolSize() int {
	poolSize := runtime.NumCPU() * 2

	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns override when positive and
// GetOptimalPoolSize() otherwise.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
