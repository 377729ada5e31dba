// Package queries provides tree-sitter query compilation, caching, and execution.
package queries

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/classwrap/pkg/parser"
	"github.com/gnana997/classwrap/pkg/parser/queries/bindings"
	"github.com/gnana997/classwrap/pkg/parser/queries/imports"
)

// QueryType identifies which query to execute.
type QueryType int

const (
	// QueryTypeBindings collects every name already used in a unit
	QueryTypeBindings QueryType = iota
	// QueryTypeImports collects import declarations
	QueryTypeImports
)

// String returns the string representation of a QueryType.
func (qt QueryType) String() string {
	switch qt {
	case QueryTypeBindings:
		return "bindings"
	case QueryTypeImports:
		return "imports"
	default:
		return "unknown"
	}
}

// queryKey uniquely identifies a compiled query (dialect + type).
type queryKey struct {
	dialect parser.Dialect
	qtype   QueryType
}

// QueryManager manages tree-sitter query compilation and caching.
//
// Compiled queries are immutable and shared by concurrent callers; each
// execution uses its own cursor.
//
// Usage:
//
//	qm := NewQueryManager(parserManager, logger)
//	defer qm.Close()
//
//	matches, err := qm.Run(tree, parser.DialectTSX, QueryTypeImports, source)
type QueryManager struct {
	parserManager *parser.ParserManager
	cache         map[queryKey]*ts.Query
	mutex         sync.RWMutex
	logger        *slog.Logger
}

// NewQueryManager creates a new query manager.
// Logger can be nil (will use default slog logger).
func NewQueryManager(pm *parser.ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryManager{
		parserManager: pm,
		cache:         make(map[queryKey]*ts.Query),
		logger:        logger,
	}
}

// GetQuery returns a compiled query for the dialect and type, compiling it
// on first use.
func (qm *QueryManager) GetQuery(dialect parser.Dialect, qtype QueryType) (*ts.Query, error) {
	key := queryKey{dialect: dialect, qtype: qtype}

	qm.mutex.RLock()
	query, exists := qm.cache[key]
	qm.mutex.RUnlock()

	if exists {
		return query, nil
	}

	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	if query, exists = qm.cache[key]; exists {
		return query, nil
	}

	queryString, err := getQueryString(dialect, qtype)
	if err != nil {
		return nil, err
	}

	langPtr, err := qm.parserManager.GetLanguagePointer(dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to get language pointer for %s: %w", dialect, err)
	}

	query, qerr := ts.NewQuery(ts.NewLanguage(langPtr), queryString)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, dialect, qerr.Message)
	}

	qm.cache[key] = query

	qm.logger.Debug("compiled query",
		"dialect", dialect.String(),
		"type", qtype.String())

	return query, nil
}

func getQueryString(dialect parser.Dialect, qtype QueryType) (string, error) {
	switch {
	case qtype == QueryTypeBindings && dialect == parser.DialectJSX:
		return bindings.JSQueries, nil
	case qtype == QueryTypeBindings && dialect == parser.DialectTSX:
		return bindings.TSXQueries, nil
	case qtype == QueryTypeImports && dialect == parser.DialectJSX:
		return imports.JSQueries, nil
	case qtype == QueryTypeImports && dialect == parser.DialectTSX:
		return imports.TSXQueries, nil
	}
	return "", fmt.Errorf("no %s query for dialect %s", qtype, dialect)
}

// Run compiles (or reuses) the query and executes it on tree.
func (qm *QueryManager) Run(tree *ts.Tree, dialect parser.Dialect, qtype QueryType, source []byte) ([]QueryMatch, error) {
	query, err := qm.GetQuery(dialect, qtype)
	if err != nil {
		return nil, err
	}
	return qm.ExecuteQuery(tree, query, source)
}

// ExecuteQuery runs a compiled query on a parse tree and returns structured
// matches in document order.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree is nil")
	}
	if query == nil {
		return nil, fmt.Errorf("query is nil")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	captureNames := query.CaptureNames()

	var matches []QueryMatch
	for {
		match := iter.Next()
		if match == nil {
			break
		}

		var captures []QueryCapture
		for _, capture := range match.Captures {
			var captureName string
			if int(capture.Index) < len(captureNames) {
				captureName = captureNames[capture.Index]
			}

			category, field := parseCaptureName(captureName)
			node := capture.Node

			captures = append(captures, QueryCapture{
				Name:     captureName,
				Category: category,
				Field:    field,
				Node:     &node,
				Text:     node.Utf8Text(source),
				Location: nodeLocation(&node),
			})
		}

		matches = append(matches, QueryMatch{
			PatternIndex: uint32(match.PatternIndex),
			Captures:     captures,
		})
	}

	return matches, nil
}

// Close releases all compiled queries.
func (qm *QueryManager) Close() error {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	qm.logger.Debug("closing QueryManager",
		"queries_compiled", len(qm.cache))

	for key, query := range qm.cache {
		if query != nil {
			query.Close()
		}
		delete(qm.cache, key)
	}

	return nil
}

// QueryMatch represents a single pattern match from query execution.
type QueryMatch struct {
	PatternIndex uint32
	Captures     []QueryCapture
}

// Capture returns the first capture with the given full name.
func (m QueryMatch) Capture(name string) (QueryCapture, bool) {
	for _, c := range m.Captures {
		if c.Name == name {
			return c, true
		}
	}
	return QueryCapture{}, false
}

// QueryCapture represents a single captured node from a query match.
type QueryCapture struct {
	// Name is the full capture name (e.g., "import.source")
	Name string

	// Category is the part before the dot ("import")
	Category string

	// Field is the part after the dot ("source"), or ""
	Field string

	Node     *ts.Node
	Text     string
	Location Location
}

// Location represents a position in source code.
type Location struct {
	StartLine   uint32 // 1-based line number
	StartColumn uint32 // 1-based column number
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32 // 0-based byte offset
	EndByte     uint32
}

// parseCaptureName splits "import.source" into ("import", "source").
func parseCaptureName(name string) (category, field string) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return name, ""
}

// nodeLocation converts tree-sitter's 0-based coordinates to 1-based
// line/column numbers.
func nodeLocation(node *ts.Node) Location {
	start := node.StartPosition()
	end := node.EndPosition()

	return Location{
		StartLine:   uint32(start.Row + 1),
		StartColumn: uint32(start.Column + 1),
		EndLine:     uint32(end.Row + 1),
		EndColumn:   uint32(end.Column + 1),
		StartByte:   uint32(node.StartByte()),
		EndByte:     uint32(node.EndByte()),
	}
}
