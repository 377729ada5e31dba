// Package jsx is the in-memory tree handed to rewrite rules: one node per JSX
// attribute, with the attribute value and the shape of a contained expression.
//
// Nodes parsed from a unit carry the byte range they occupy in the source.
// Nodes created by a rule have a zero Span and are printed from their fields.
// Rules replace nodes; they never edit a parsed node's fields in place, so a
// parsed node can always be emitted verbatim from the source.
package jsx

// Span is a half-open byte range [Start, End) in the unit's source.
type Span struct {
	Start uint
	End   uint
}

// Valid reports whether the span covers source text.
func (s Span) Valid() bool {
	return s.End > s.Start
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() uint {
	if !s.Valid() {
		return 0
	}
	return s.End - s.Start
}

// Node is implemented by every tree node.
type Node interface {
	// Range returns the source span of the node, or a zero Span for
	// synthesized nodes.
	Range() Span
}

// Expr is an expression node.
type Expr interface {
	Node
	isExpr()
}

// AttrValue is the value part of an attribute: a bare string literal, an
// expression container, or an element.
type AttrValue interface {
	Node
	isAttrValue()
}

// StringLiteral is a quoted string. It is both an expression and a bare
// attribute value (className="a").
type StringLiteral struct {
	Loc   Span
	Raw   string // including quotes
	Value string // quotes stripped, escapes left as written
}

// Identifier is a bare identifier reference.
type Identifier struct {
	Loc  Span
	Name string
}

// MemberExpr is a property access: a.b or a[b]. Optional chains (a?.b) are
// not member expressions; they are OpaqueExpr.
type MemberExpr struct {
	Loc      Span
	Object   Expr
	Property string
	Computed bool
}

// CallExpr is a call. Rules create these to wrap an existing expression.
type CallExpr struct {
	Loc    Span
	Callee Expr
	Args   []Expr
}

// EmptyExpr is the content of an expression container holding nothing but
// whitespace or comments.
type EmptyExpr struct {
	Loc Span
}

// OpaqueExpr is any expression shape the tree does not model further
// (arrays, objects, binary and logical expressions, conditionals, templates,
// optional chains, type assertions...). Kind is the parser's node kind.
type OpaqueExpr struct {
	Loc  Span
	Kind string
	Text string
}

// SpreadElement is {...x} inside an attribute container. It is not an
// expression and cannot be passed on as one.
type SpreadElement struct {
	Loc  Span
	Text string
}

// ExpressionContainer is the {...} form of an attribute value.
type ExpressionContainer struct {
	Loc        Span
	Expression Expr
}

// ElementValue is an attribute whose value is itself an element:
// attr=<Icon />.
type ElementValue struct {
	Loc  Span
	Text string
}

// Attribute is one name/value pair of an opening or self-closing element.
type Attribute struct {
	Loc Span

	// Namespace is set for namespaced names (xlink:href); Name is the local
	// part.
	Namespace string
	Name      string

	// Value is nil for valueless attributes (<input disabled />).
	Value AttrValue

	// Line and Column are 1-based.
	Line   int
	Column int
}

// QualifiedName returns "ns:name" for namespaced attributes and Name
// otherwise.
func (a *Attribute) QualifiedName() string {
	if a.Namespace == "" {
		return a.Name
	}
	return a.Namespace + ":" + a.Name
}

// Binding is a local name bound to the default export of an import source.
type Binding struct {
	Name   string
	Source string
}

// IsZero reports whether b names no binding.
func (b Binding) IsZero() bool {
	return b.Name == ""
}

// Ref returns a new identifier node referring to the binding. Each use site
// needs its own node.
func (b Binding) Ref() *Identifier {
	return &Identifier{Name: b.Name}
}

func (n *StringLiteral) Range() Span       { return n.Loc }
func (n *Identifier) Range() Span          { return n.Loc }
func (n *MemberExpr) Range() Span          { return n.Loc }
func (n *CallExpr) Range() Span            { return n.Loc }
func (n *EmptyExpr) Range() Span           { return n.Loc }
func (n *OpaqueExpr) Range() Span          { return n.Loc }
func (n *SpreadElement) Range() Span       { return n.Loc }
func (n *ExpressionContainer) Range() Span { return n.Loc }
func (n *ElementValue) Range() Span        { return n.Loc }
func (n *Attribute) Range() Span           { return n.Loc }

func (*StringLiteral) isExpr() {}
func (*Identifier) isExpr()    {}
func (*MemberExpr) isExpr()    {}
func (*CallExpr) isExpr()      {}
func (*EmptyExpr) isExpr()     {}
func (*OpaqueExpr) isExpr()    {}
func (*SpreadElement) isExpr() {}

func (*StringLiteral) isAttrValue()       {}
func (*ExpressionContainer) isAttrValue() {}
func (*ElementValue) isAttrValue()        {}
