package transform

import (
	"errors"

	"github.com/gnana997/classwrap/pkg/jsx"
	"github.com/gnana997/classwrap/pkg/parser"
)

// ErrUnsupportedFile is returned for paths whose extension maps to no
// dialect.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Result is the outcome of transforming one unit.
type Result struct {
	Path    string
	Dialect parser.Dialect

	// Code is the transformed source. It is the input itself when nothing
	// changed.
	Code    []byte
	Changed bool

	Rewrites []Rewrite

	// Imports are the declarations added, in creation order.
	Imports []jsx.Binding

	// ExistingImports are the declarations found in the input.
	ExistingImports []ImportDecl

	// ParseErrors is set when the parser had to recover from syntax errors.
	ParseErrors bool
}

// Rewrite describes one rewritten attribute.
type Rewrite struct {
	Attribute string `json:"attribute"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Before    string `json:"before"`
	After     string `json:"after"`
}

// ImportDecl is an import declaration present in the input.
type ImportDecl struct {
	Source  string `json:"source"`
	Default string `json:"default,omitempty"`
	Line    int    `json:"line"`
}
