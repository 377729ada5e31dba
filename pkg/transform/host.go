// Package transform runs attribute rewrite rules over JSX/TSX sources.
//
// The Host parses a unit with tree-sitter, hands every JSX attribute to the
// registered rules in source order (outer attributes before attributes
// nested in their values), and prints the result by splicing rewritten
// attribute values and new import declarations into the original text.
// Everything a rule does not touch is preserved byte for byte.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/classwrap/pkg/jsx"
	"github.com/gnana997/classwrap/pkg/parser"
	"github.com/gnana997/classwrap/pkg/parser/queries"
)

// Rule is a rewrite rule. Begin is called once per unit and returns the
// visitor holding that unit's state.
type Rule interface {
	Name() string
	Begin(u *Unit) Visitor
}

// Visitor receives every JSX attribute of a unit. To rewrite an attribute
// it assigns a new node to attr.Value; mutating the existing value node has
// no effect on the output.
type Visitor interface {
	VisitAttribute(attr *jsx.Attribute)
}

// Host owns the parser and query managers shared by all transforms.
//
// Thread Safety: Transform may be called concurrently once all rules are
// registered.
type Host struct {
	parsers *parser.ParserManager
	queries *queries.QueryManager
	rules   []Rule
	logger  *slog.Logger
}

// NewHost creates a Host running rules in the given order.
// Logger can be nil (will use default slog logger).
func NewHost(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger, rules ...Rule) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		parsers: pm,
		queries: qm,
		rules:   rules,
		logger:  logger,
	}
}

// Rules returns the registered rules.
func (h *Host) Rules() []Rule {
	return h.rules
}

// Transform rewrites source, detecting the dialect from path.
func (h *Host) Transform(ctx context.Context, path string, source []byte) (*Result, error) {
	dialect := parser.DetectDialect(path)
	if dialect == parser.DialectUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	return h.TransformDialect(ctx, dialect, path, source)
}

// TransformDialect rewrites source parsed with the given dialect. path is
// only used for reporting and may be empty.
func (h *Host) TransformDialect(ctx context.Context, dialect parser.Dialect, path string, source []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tree, err := h.parsers.Parse(source, dialect)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", displayPath(path), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	result := &Result{
		Path:        path,
		Dialect:     dialect,
		ParseErrors: root.HasError(),
	}

	scope, err := h.collectScope(tree, dialect, source)
	if err != nil {
		return nil, err
	}
	result.ExistingImports, err = h.collectImports(tree, dialect, source)
	if err != nil {
		return nil, err
	}

	unit := newUnit(path, dialect, source, root, scope, h.logger)
	visitors := make([]Visitor, 0, len(h.rules))
	for _, r := range h.rules {
		visitors = append(visitors, r.Begin(unit))
	}

	conv := &converter{source: source}
	walkErr := walkAttributes(ctx, root, func(node *ts.Node) {
		attr, nameEnd := conv.attribute(node)
		original := attr.Value

		for _, v := range visitors {
			v.VisitAttribute(attr)
		}
		if attr.Value == original {
			return
		}

		e := valueEdit(attr, original, nameEnd)
		unit.addEdit(e)
		result.Rewrites = append(result.Rewrites, Rewrite{
			Attribute: attr.QualifiedName(),
			Line:      attr.Line,
			Column:    attr.Column,
			Before:    valueText(original, source),
			After:     strings.TrimPrefix(jsx.Render(e.segs, source), "="),
		})
	})
	if walkErr != nil {
		return nil, walkErr
	}

	code, dropped := apply(source, unit.edits)
	if dropped > 0 {
		h.logger.Warn("overlapping edits dropped",
			"path", path,
			"dropped", dropped)
	}

	result.Code = code
	result.Imports = unit.Imports()
	result.Changed = len(unit.edits) > 0

	h.logger.Debug("unit transformed",
		"path", path,
		"dialect", dialect.String(),
		"rewrites", len(result.Rewrites),
		"imports", len(result.Imports),
		"parse_errors", result.ParseErrors)

	return result, nil
}

// valueEdit turns the replacement of an attribute value into a source edit.
func valueEdit(attr *jsx.Attribute, original jsx.AttrValue, nameEnd uint) edit {
	switch {
	case original == nil:
		// <input disabled /> gaining a value
		segs := append([]jsx.Segment{{Text: "="}}, jsx.Print(attr.Value)...)
		return edit{span: jsx.Span{Start: nameEnd, End: nameEnd}, segs: segs}
	case attr.Value == nil:
		return edit{span: jsx.Span{Start: nameEnd, End: original.Range().End}}
	default:
		return edit{span: original.Range(), segs: jsx.Print(attr.Value)}
	}
}

func valueText(v jsx.AttrValue, source []byte) string {
	if v == nil {
		return ""
	}
	r := v.Range()
	return string(source[r.Start:r.End])
}

// walkAttributes calls fn for every jsx_attribute in pre-order. Attributes
// nested inside an attribute value are visited after it.
func walkAttributes(ctx context.Context, root *ts.Node, fn func(*ts.Node)) error {
	cursor := root.Walk()
	defer cursor.Close()

	for {
		node := cursor.Node()
		if node.Kind() == "jsx_attribute" {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(node)
		}

		if cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return nil
			}
		}
	}
}

func (h *Host) collectScope(tree *ts.Tree, dialect parser.Dialect, source []byte) (*Scope, error) {
	matches, err := h.queries.Run(tree, dialect, queries.QueryTypeBindings, source)
	if err != nil {
		return nil, fmt.Errorf("collect bindings: %w", err)
	}

	scope := NewScope()
	for _, m := range matches {
		for _, c := range m.Captures {
			scope.Add(c.Text)
		}
	}
	return scope, nil
}

func (h *Host) collectImports(tree *ts.Tree, dialect parser.Dialect, source []byte) ([]ImportDecl, error) {
	matches, err := h.queries.Run(tree, dialect, queries.QueryTypeImports, source)
	if err != nil {
		return nil, fmt.Errorf("collect imports: %w", err)
	}

	var decls []ImportDecl
	for _, m := range matches {
		src, ok := m.Capture("import.source")
		if !ok {
			continue
		}
		decl := ImportDecl{
			Source: unquote(src.Text),
			Line:   int(src.Location.StartLine),
		}
		if stmt, ok := m.Capture("import.statement"); ok {
			decl.Default = defaultImportName(stmt.Node, source)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// defaultImportName returns X for `import X from ...` and `import X, {...}`.
func defaultImportName(stmt *ts.Node, source []byte) string {
	if stmt == nil {
		return ""
	}
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		clause := stmt.NamedChild(i)
		if clause == nil || clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			if id := clause.NamedChild(j); id != nil && id.Kind() == "identifier" {
				return id.Utf8Text(source)
			}
		}
	}
	return ""
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

func displayPath(path string) string {
	if path == "" {
		return "<input>"
	}
	return path
}
