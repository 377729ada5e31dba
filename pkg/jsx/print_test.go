package jsx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint_SourceNodeIsCopied(t *testing.T) {
	source := []byte(`<div className={[a, b]} />`)
	expr := &OpaqueExpr{Loc: Span{Start: 16, End: 22}, Kind: "array", Text: "[a, b]"}

	segs := Print(expr)

	require.Len(t, segs, 1)
	assert.True(t, segs[0].IsSource())
	assert.Equal(t, "[a, b]", Render(segs, source))
}

func TestPrint_WrappedCall(t *testing.T) {
	source := []byte(`<div className={styles.wrap} />`)
	orig := &MemberExpr{Loc: Span{Start: 16, End: 27}, Property: "wrap"}
	container := &ExpressionContainer{
		Expression: &CallExpr{
			Callee: Binding{Name: "_cx"}.Ref(),
			Args:   []Expr{orig},
		},
	}

	segs := Print(container)

	require.Len(t, segs, 3)
	assert.Equal(t, "{_cx(", segs[0].Text)
	assert.Equal(t, orig.Loc, segs[1].Src)
	assert.Equal(t, ")}", segs[2].Text)
	assert.Equal(t, "{_cx(styles.wrap)}", Render(segs, source))
}

func TestPrint_SynthesizedNodes(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"identifier", &Identifier{Name: "x"}, "x"},
		{"string raw", &StringLiteral{Raw: `'a'`, Value: "a"}, `'a'`},
		{"string quoted", &StringLiteral{Value: "a b"}, `"a b"`},
		{"member", &MemberExpr{Object: &Identifier{Name: "s"}, Property: "wrap"}, "s.wrap"},
		{"computed member", &MemberExpr{Object: &Identifier{Name: "s"}, Property: "k", Computed: true}, "s[k]"},
		{"call no args", &CallExpr{Callee: &Identifier{Name: "f"}}, "f()"},
		{"call args", &CallExpr{Callee: &Identifier{Name: "f"}, Args: []Expr{&Identifier{Name: "a"}, &OpaqueExpr{Text: "[]"}}}, "f(a, [])"},
		{"comma argument", &CallExpr{Callee: &Identifier{Name: "f"}, Args: []Expr{&OpaqueExpr{Kind: "sequence_expression", Text: "a, b"}}}, "f((a, b))"},
		{"parenthesized comma argument", &CallExpr{Callee: &Identifier{Name: "f"}, Args: []Expr{&OpaqueExpr{Kind: "parenthesized_expression", Text: "(a, b)"}}}, "f((a, b))"},
		{"spread", &SpreadElement{Text: "...x"}, "...x"},
		{"empty container", &ExpressionContainer{Expression: &EmptyExpr{}}, "{}"},
		{"attribute", &Attribute{Name: "className", Value: &StringLiteral{Value: "a"}}, `className="a"`},
		{"namespaced attribute", &Attribute{Namespace: "xlink", Name: "href"}, "xlink:href"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(Print(tt.node), nil))
		})
	}
}

func TestBinding_RefIsFreshNode(t *testing.T) {
	b := Binding{Name: "_cx", Source: "classnames"}

	first, second := b.Ref(), b.Ref()

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Name, second.Name)
	assert.False(t, b.IsZero())
	assert.True(t, Binding{}.IsZero())
}

func TestSpan(t *testing.T) {
	outer := Span{Start: 2, End: 10}

	assert.True(t, outer.Valid())
	assert.False(t, Span{}.Valid())
	assert.True(t, outer.Contains(Span{Start: 2, End: 10}))
	assert.True(t, outer.Contains(Span{Start: 3, End: 4}))
	assert.False(t, outer.Contains(Span{Start: 1, End: 4}))
	assert.Equal(t, uint(8), outer.Len())
}
