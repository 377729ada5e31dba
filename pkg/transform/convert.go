package transform

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/classwrap/pkg/jsx"
)

// converter builds jsx nodes from tree-sitter nodes of one unit.
type converter struct {
	source []byte
}

func spanOf(node *ts.Node) jsx.Span {
	return jsx.Span{Start: node.StartByte(), End: node.EndByte()}
}

// attribute converts a jsx_attribute node. nameEnd is the byte offset where
// the attribute name ends, used when a rule adds a value to a valueless
// attribute or removes one.
func (c *converter) attribute(node *ts.Node) (attr *jsx.Attribute, nameEnd uint) {
	pos := node.StartPosition()
	attr = &jsx.Attribute{
		Loc:    spanOf(node),
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
	nameEnd = node.EndByte()

	named := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}

		switch kind := child.Kind(); {
		case kind == "comment":
			continue
		case !named && (kind == "property_identifier" || kind == "identifier"):
			attr.Name = child.Utf8Text(c.source)
			nameEnd = child.EndByte()
			named = true
		case !named && kind == "jsx_namespace_name":
			attr.Namespace, attr.Name = c.namespacedName(child)
			nameEnd = child.EndByte()
			named = true
		case named && kind == "string":
			attr.Value = c.stringLiteral(child)
		case named && kind == "jsx_expression":
			attr.Value = c.container(child)
		case named:
			attr.Value = &jsx.ElementValue{Loc: spanOf(child), Text: child.Utf8Text(c.source)}
		}
	}

	return attr, nameEnd
}

func (c *converter) namespacedName(node *ts.Node) (ns, local string) {
	count := node.NamedChildCount()
	if count == 0 {
		return "", node.Utf8Text(c.source)
	}
	first := node.NamedChild(0)
	last := node.NamedChild(count - 1)
	return first.Utf8Text(c.source), last.Utf8Text(c.source)
}

func (c *converter) container(node *ts.Node) *jsx.ExpressionContainer {
	out := &jsx.ExpressionContainer{Loc: spanOf(node)}

	inner := firstExpression(node)
	if inner == nil {
		// {} or {/* comment */}
		start := node.StartByte() + 1
		end := node.EndByte()
		if end > start {
			end--
		}
		out.Expression = &jsx.EmptyExpr{Loc: jsx.Span{Start: start, End: end}}
		return out
	}

	out.Expression = c.expr(inner)
	return out
}

// expr converts an expression node. Parentheses are transparent: (a.b) is
// the member expression a.b. A parenthesized comma expression keeps its
// parentheses.
func (c *converter) expr(node *ts.Node) jsx.Expr {
	switch node.Kind() {
	case "parenthesized_expression":
		if inner := firstExpression(node); inner != nil && inner.Kind() != "sequence_expression" {
			return c.expr(inner)
		}
	case "spread_element":
		return &jsx.SpreadElement{Loc: spanOf(node), Text: node.Utf8Text(c.source)}
	case "string":
		return c.stringLiteral(node)
	case "identifier", "undefined":
		return &jsx.Identifier{Loc: spanOf(node), Name: node.Utf8Text(c.source)}
	case "member_expression":
		if inOptionalChain(node) {
			break
		}
		m := &jsx.MemberExpr{Loc: spanOf(node)}
		if obj := node.ChildByFieldName("object"); obj != nil {
			m.Object = c.expr(obj)
		}
		if prop := node.ChildByFieldName("property"); prop != nil {
			m.Property = prop.Utf8Text(c.source)
		}
		return m
	case "subscript_expression":
		if inOptionalChain(node) {
			break
		}
		m := &jsx.MemberExpr{Loc: spanOf(node), Computed: true}
		if obj := node.ChildByFieldName("object"); obj != nil {
			m.Object = c.expr(obj)
		}
		if idx := node.ChildByFieldName("index"); idx != nil {
			m.Property = idx.Utf8Text(c.source)
		}
		return m
	}

	return &jsx.OpaqueExpr{Loc: spanOf(node), Kind: node.Kind(), Text: node.Utf8Text(c.source)}
}

func (c *converter) stringLiteral(node *ts.Node) *jsx.StringLiteral {
	raw := node.Utf8Text(c.source)
	value := raw
	if len(raw) >= 2 {
		value = raw[1 : len(raw)-1]
	}
	return &jsx.StringLiteral{Loc: spanOf(node), Raw: raw, Value: value}
}

// firstExpression returns the first named child that is not a comment.
func firstExpression(node *ts.Node) *ts.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() != "comment" {
			return child
		}
	}
	return nil
}

// inOptionalChain reports whether node is part of an optional chain: a?.b,
// a?.b.c and a?.()[0] all are, (a?.b).c is not.
func inOptionalChain(node *ts.Node) bool {
	for n := node; n != nil; {
		switch n.Kind() {
		case "member_expression", "subscript_expression":
			if hasOptionalChain(n) {
				return true
			}
			n = n.ChildByFieldName("object")
		case "call_expression":
			if hasOptionalChain(n) {
				return true
			}
			n = n.ChildByFieldName("function")
		default:
			return false
		}
	}
	return false
}

func hasOptionalChain(node *ts.Node) bool {
	if node.ChildByFieldName("optional_chain") != nil {
		return true
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == "optional_chain" {
			return true
		}
	}
	return false
}
