package transform

import (
	"log/slog"
	"strconv"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/classwrap/pkg/jsx"
	"github.com/gnana997/classwrap/pkg/parser"
)

// Unit is one source file being transformed. Rules receive it in Begin and
// use it to introduce imports.
//
// A Unit is confined to the goroutine running its transform.
type Unit struct {
	path    string
	dialect parser.Dialect
	source  []byte
	logger  *slog.Logger

	scope *Scope

	// importAt is where new import declarations go: after the hashbang line
	// and directive prologue, else the start of the file. importNewline is
	// set when that point sits at the end of a statement, so the new line
	// goes before the declaration instead of after it.
	importAt      uint
	importNewline bool

	imports []jsx.Binding
	edits   []edit
}

func newUnit(path string, dialect parser.Dialect, source []byte, root *ts.Node, scope *Scope, logger *slog.Logger) *Unit {
	u := &Unit{
		path:    path,
		dialect: dialect,
		source:  source,
		logger:  logger,
		scope:   scope,
	}
	u.importAt, u.importNewline = importPoint(root, source)
	return u
}

// Path returns the unit's file path ("" for anonymous input).
func (u *Unit) Path() string { return u.path }

// Dialect returns the grammar the unit was parsed with.
func (u *Unit) Dialect() parser.Dialect { return u.dialect }

// Scope returns the names used in the unit.
func (u *Unit) Scope() *Scope { return u.scope }

// Imports returns the imports introduced so far, in creation order.
func (u *Unit) Imports() []jsx.Binding {
	out := make([]jsx.Binding, len(u.imports))
	copy(out, u.imports)
	return out
}

// EnsureDefaultImport adds `import NAME from "source";` to the top of the
// unit and returns the binding. NAME is a fresh identifier derived from
// nameHint that collides with nothing in the unit.
//
// Every call adds a new declaration; imports already present in the source
// are never reused. Declarations added later are placed above earlier ones.
func (u *Unit) EnsureDefaultImport(source, nameHint string) jsx.Binding {
	b := jsx.Binding{
		Name:   u.scope.GenerateUID(nameHint),
		Source: source,
	}
	u.imports = append(u.imports, b)

	decl := "import " + b.Name + " from " + strconv.Quote(source) + ";"
	text := decl + "\n"
	if u.importNewline {
		text = "\n" + decl
	}

	u.edits = append(u.edits, edit{
		span:  jsx.Span{Start: u.importAt, End: u.importAt},
		segs:  []jsx.Segment{{Text: text}},
		order: -len(u.imports),
	})

	u.logger.Debug("import added",
		"path", u.path,
		"name", b.Name,
		"source", source)

	return b
}

func (u *Unit) addEdit(e edit) {
	u.edits = append(u.edits, e)
}

// importPoint finds where imports are inserted: after a leading hashbang
// line and any directive prologue ("use client"; "use strict";).
func importPoint(root *ts.Node, source []byte) (at uint, newline bool) {
	if root == nil {
		return 0, false
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "hash_bang_line":
			at = child.EndByte()
			newline = true
		case "comment":
		case "expression_statement":
			if !isDirective(child) {
				return at, newline
			}
			at = child.EndByte()
			newline = true
		default:
			return at, newline
		}
	}

	return at, newline
}

// isDirective reports whether stmt is a bare string statement.
func isDirective(stmt *ts.Node) bool {
	expr := firstExpression(stmt)
	return expr != nil && expr.Kind() == "string" && stmt.NamedChildCount() == 1
}
