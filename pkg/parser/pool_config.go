package parser

import (
	"github.com/gnana997/classwrap/pkg/util"
)

// getPoolSize returns the parsers-per-dialect limit. An override of 0 uses
// util.GetOptimalPoolSize(), the same value the workspace worker pool uses,
// so workers never wait on a parser.
func getPoolSize(override int) int {
	return util.GetOptimalPoolSizeWithOverride(override)
}
