package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ParserManager hands out pooled tree-sitter parsers per dialect.
//
// Memory Management:
// - Parser pools are created lazily on first use per dialect
// - ParserManager owns the pools and must be closed via Close()
// - Callers own Tree instances and must call tree.Close() after use
//
// Thread Safety:
// - Multiple goroutines can parse the same dialect simultaneously
// - Pool creation is synchronized with write locks
//
// Example:
//
//	manager := NewParserManager(logger)
//	defer manager.Close()
//
//	tree, err := manager.Parse([]byte("<div className={[a]} />"), DialectJSX)
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	// pools stores parser pools per dialect (lazily initialized)
	pools map[Dialect]*parserPool

	// poolSize is the maximum number of parsers per dialect
	poolSize int

	mutex  sync.RWMutex
	logger *slog.Logger

	stats struct {
		parsesCalled int
		parseErrors  int
	}
}

// NewParserManager creates a ParserManager with CPU-aware pool sizes.
//
// The returned manager must be closed via Close() to free resources.
func NewParserManager(logger *slog.Logger) *ParserManager {
	return NewParserManagerWithPoolSize(logger, 0)
}

// NewParserManagerWithPoolSize creates a ParserManager whose pools hold at
// most poolSize parsers each. A poolSize of 0 uses the CPU-aware default.
//
// Callers running a worker pool should pass the worker count so workers
// never block waiting for a parser.
func NewParserManagerWithPoolSize(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &ParserManager{
		pools:    make(map[Dialect]*parserPool),
		poolSize: getPoolSize(poolSize),
		logger:   logger,
	}
}

// Parse parses source using the grammar for the dialect.
//
// Returns a Tree that MUST be closed by the caller via tree.Close().
// Trees containing syntax errors are still returned: tree-sitter recovers
// and the intact parts are usable. Callers check RootNode().HasError().
func (pm *ParserManager) Parse(source []byte, dialect Dialect) (*ts.Tree, error) {
	if dialect == DialectUnknown {
		return nil, fmt.Errorf("cannot parse unknown dialect")
	}

	pm.mutex.Lock()
	pm.stats.parsesCalled++
	pm.mutex.Unlock()

	pool, err := pm.getOrCreatePool(dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool for %s: %w", dialect, err)
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}

	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("parser.Parse returned nil tree")
	}

	if tree.RootNode().HasError() {
		pm.mutex.Lock()
		pm.stats.parseErrors++
		pm.mutex.Unlock()

		pm.logger.Warn("parse tree contains errors",
			"dialect", dialect.String())
	}

	return tree, nil
}

// Close releases all parser pool resources.
// After Close(), the ParserManager cannot be used.
func (pm *ParserManager) Close() error {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.logger.Debug("closing ParserManager",
		"parses_called", pm.stats.parsesCalled,
		"parse_errors", pm.stats.parseErrors)

	for dialect, pool := range pm.pools {
		if pool != nil {
			pool.close()
			pm.logger.Debug("closed parser pool", "dialect", dialect.String())
		}
	}

	pm.pools = make(map[Dialect]*parserPool)

	return nil
}

// getOrCreatePool returns an existing parser pool or creates a new one.
// Thread-safe using double-checked locking pattern.
func (pm *ParserManager) getOrCreatePool(dialect Dialect) (*parserPool, error) {
	pm.mutex.RLock()
	pool, exists := pm.pools[dialect]
	pm.mutex.RUnlock()

	if exists {
		return pool, nil
	}

	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pool, exists = pm.pools[dialect]; exists {
		return pool, nil
	}

	langPtr, err := pm.GetLanguagePointer(dialect)
	if err != nil {
		return nil, err
	}

	pool = newParserPool(dialect, langPtr, pm.poolSize, pm.logger)
	pm.pools[dialect] = pool

	pm.logger.Debug("created new parser pool",
		"dialect", dialect.String(),
		"maxSize", pm.poolSize)

	return pool, nil
}

// GetLanguagePointer returns the tree-sitter grammar for the dialect.
//
// Used by QueryManager to compile queries against the same grammar.
func (pm *ParserManager) GetLanguagePointer(dialect Dialect) (unsafe.Pointer, error) {
	switch dialect {
	case DialectTSX:
		return ts_typescript.LanguageTSX(), nil
	case DialectJSX:
		return ts_javascript.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect.String())
	}
}

// GetStats returns parser usage statistics.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	totalParsers := 0
	for _, pool := range pm.pools {
		totalParsers += pool.getCreatedCount()
	}

	return ParserStats{
		ParsersCreated: totalParsers,
		ParsesCalled:   pm.stats.parsesCalled,
		ParseErrors:    pm.stats.parseErrors,
	}
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	// ParsersCreated is the total number of parser instances created
	ParsersCreated int

	// ParsesCalled is the total number of Parse() calls
	ParsesCalled int

	// ParseErrors counts trees returned with syntax errors
	ParseErrors int
}
