package transform

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/classwrap/pkg/jsx"
	"github.com/gnana997/classwrap/pkg/parser"
	"github.com/gnana997/classwrap/pkg/parser/queries"
)

// wrapRule wraps every container value of one attribute name in a call to a
// fresh default import of "lib".
type wrapRule struct {
	attr string
}

func (r wrapRule) Name() string { return "wrap" }

func (r wrapRule) Begin(u *Unit) Visitor {
	return &wrapVisitor{attr: r.attr, unit: u}
}

type wrapVisitor struct {
	attr string
	unit *Unit
}

func (v *wrapVisitor) VisitAttribute(attr *jsx.Attribute) {
	if attr.Name != v.attr {
		return
	}
	c, ok := attr.Value.(*jsx.ExpressionContainer)
	if !ok {
		return
	}
	b := v.unit.EnsureDefaultImport("lib", "w")
	attr.Value = &jsx.ExpressionContainer{
		Expression: &jsx.CallExpr{Callee: b.Ref(), Args: []jsx.Expr{c.Expression}},
	}
}

// recordRule records the attributes it sees without changing anything.
type recordRule struct {
	seen *[]*jsx.Attribute
}

func (r recordRule) Name() string        { return "record" }
func (r recordRule) Begin(*Unit) Visitor { return r }

func (r recordRule) VisitAttribute(a *jsx.Attribute) {
	*r.seen = append(*r.seen, a)
}

func newTestHost(t *testing.T, rules ...Rule) *Host {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(pm, logger)
	t.Cleanup(func() {
		qm.Close()
		pm.Close()
	})
	return NewHost(pm, qm, logger, rules...)
}

func transformString(t *testing.T, h *Host, path, code string) *Result {
	t.Helper()
	res, err := h.Transform(context.Background(), path, []byte(code))
	require.NoError(t, err)
	return res
}

func TestTransform_Unchanged(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	code := "const a = <div id={x} className=\"plain\" />;\n"
	res := transformString(t, h, "a.jsx", code)

	assert.False(t, res.Changed)
	assert.Equal(t, code, string(res.Code))
	assert.Empty(t, res.Rewrites)
	assert.Empty(t, res.Imports)
}

func TestTransform_WrapsAndImports(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	res := transformString(t, h, "a.jsx", "<div className={a} />")

	assert.True(t, res.Changed)
	assert.Equal(t, "import _w from \"lib\";\n<div className={_w(a)} />", string(res.Code))
	require.Len(t, res.Imports, 1)
	assert.Equal(t, jsx.Binding{Name: "_w", Source: "lib"}, res.Imports[0])

	require.Len(t, res.Rewrites, 1)
	rw := res.Rewrites[0]
	assert.Equal(t, "className", rw.Attribute)
	assert.Equal(t, 1, rw.Line)
	assert.Equal(t, 6, rw.Column)
	assert.Equal(t, "{a}", rw.Before)
	assert.Equal(t, "{_w(a)}", rw.After)
}

func TestTransform_LaterImportsGoFirst(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	res := transformString(t, h, "a.jsx", "<><a className={x} /><b className={y} /></>")

	want := "import _w2 from \"lib\";\nimport _w from \"lib\";\n" +
		"<><a className={_w(x)} /><b className={_w2(y)} /></>"
	assert.Equal(t, want, string(res.Code))
}

func TestTransform_NestedRewritesCompose(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	res := transformString(t, h, "a.jsx", "<A className={f(<B className={y} />)} />")

	want := "import _w2 from \"lib\";\nimport _w from \"lib\";\n" +
		"<A className={_w(f(<B className={_w2(y)} />))} />"
	assert.Equal(t, want, string(res.Code))
	assert.Len(t, res.Rewrites, 2)
}

func TestTransform_AfterDirectives(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	code := "\"use client\";\n'use strict';\nexport const A = () => <div className={a} />;\n"
	res := transformString(t, h, "a.jsx", code)

	want := "\"use client\";\n'use strict';\nimport _w from \"lib\";\n" +
		"export const A = () => <div className={_w(a)} />;\n"
	assert.Equal(t, want, string(res.Code))
}

func TestTransform_AfterHashbang(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	code := "#!/usr/bin/env node\nrender(<div className={a} />);\n"
	res := transformString(t, h, "cli.js", code)

	want := "#!/usr/bin/env node\nimport _w from \"lib\";\nrender(<div className={_w(a)} />);\n"
	assert.Equal(t, want, string(res.Code))
}

func TestTransform_AvoidsExistingNames(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	code := "import _w from \"other\";\nconst _w2 = 1;\n<div className={a} />;\n"
	res := transformString(t, h, "a.jsx", code)

	require.Len(t, res.Imports, 1)
	assert.Equal(t, "_w3", res.Imports[0].Name)

	require.Len(t, res.ExistingImports, 1)
	assert.Equal(t, ImportDecl{Source: "other", Default: "_w", Line: 1}, res.ExistingImports[0])
}

func TestTransform_TSX(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	code := "const A = (p: Props) => <div className={p.cls as string} />;\n"
	res := transformString(t, h, "a.tsx", code)

	assert.Equal(t, parser.DialectTSX, res.Dialect)
	assert.Equal(t, "import _w from \"lib\";\nconst A = (p: Props) => <div className={_w(p.cls as string)} />;\n", string(res.Code))
}

func TestTransform_UnsupportedFile(t *testing.T) {
	h := newTestHost(t)

	_, err := h.Transform(context.Background(), "types.ts", []byte("let a = 1;"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestTransform_Canceled(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Transform(ctx, "a.jsx", []byte("<div className={a} />"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransform_ParseErrorsStillTransform(t *testing.T) {
	h := newTestHost(t, wrapRule{attr: "className"})

	res := transformString(t, h, "a.jsx", "<div className={a} />;\nconst broken = ;\n")

	assert.True(t, res.ParseErrors)
	assert.Contains(t, string(res.Code), "{_w(a)}")
}

func TestConvert_AttributeShapes(t *testing.T) {
	var seen []*jsx.Attribute
	h := newTestHost(t, recordRule{seen: &seen})

	code := `<div
  a="s"
  b={x}
  c={x.y}
  d={x[0]}
  e={x?.y}
  f={(x.y)}
  g={}
  h={[x]}
  i={undefined}
  xlink:href={x}
  j=<span />
  k
  l={a, b}
  m={(a, b)}
  n={...x}
/>`
	res := transformString(t, h, "a.jsx", code)
	assert.False(t, res.Changed)

	byName := map[string]*jsx.Attribute{}
	for _, a := range seen {
		byName[a.QualifiedName()] = a
	}
	require.Len(t, byName, 15)

	expr := func(name string) jsx.Expr {
		c, ok := byName[name].Value.(*jsx.ExpressionContainer)
		require.True(t, ok, name)
		return c.Expression
	}

	lit, ok := byName["a"].Value.(*jsx.StringLiteral)
	require.True(t, ok)
	assert.Equal(t, `"s"`, lit.Raw)
	assert.Equal(t, "s", lit.Value)

	assert.IsType(t, &jsx.Identifier{}, expr("b"))
	assert.IsType(t, &jsx.MemberExpr{}, expr("c"))
	assert.True(t, expr("d").(*jsx.MemberExpr).Computed)
	assert.IsType(t, &jsx.OpaqueExpr{}, expr("e"))
	assert.IsType(t, &jsx.MemberExpr{}, expr("f"))
	assert.IsType(t, &jsx.EmptyExpr{}, expr("g"))
	assert.Equal(t, "array", expr("h").(*jsx.OpaqueExpr).Kind)
	assert.Equal(t, "undefined", expr("i").(*jsx.Identifier).Name)
	assert.Equal(t, "sequence_expression", expr("l").(*jsx.OpaqueExpr).Kind)
	assert.Equal(t, "(a, b)", expr("m").(*jsx.OpaqueExpr).Text)
	assert.Equal(t, "...x", expr("n").(*jsx.SpreadElement).Text)

	ns := byName["xlink:href"]
	assert.Equal(t, "xlink", ns.Namespace)
	assert.Equal(t, "href", ns.Name)

	assert.IsType(t, &jsx.ElementValue{}, byName["j"].Value)
	assert.Nil(t, byName["k"].Value)
	assert.Equal(t, 2, byName["a"].Line)
	assert.Equal(t, 3, byName["a"].Column)
}
