package jsx

import (
	"strconv"
	"strings"
)

// Segment is one piece of printed output: either literal text or a source
// span to be copied from the unit.
type Segment struct {
	Text string
	Src  Span
}

// IsSource reports whether the segment copies source text.
func (s Segment) IsSource() bool {
	return s.Src.Valid()
}

// Print renders n as a list of segments. Nodes that came from the source are
// emitted as span references so the original text (comments, formatting and
// any rewrites nested inside it) survives unchanged.
func Print(n Node) []Segment {
	p := &printer{}
	p.node(n)
	return p.flush()
}

// Render resolves segments against source into plain text.
func Render(segs []Segment, source []byte) string {
	var b strings.Builder
	for _, s := range segs {
		if s.IsSource() {
			b.Write(source[s.Src.Start:s.Src.End])
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

type printer struct {
	segs []Segment
	text strings.Builder
}

func (p *printer) write(s string) {
	p.text.WriteString(s)
}

func (p *printer) copySpan(s Span) {
	p.flushText()
	p.segs = append(p.segs, Segment{Src: s})
}

func (p *printer) flushText() {
	if p.text.Len() == 0 {
		return
	}
	p.segs = append(p.segs, Segment{Text: p.text.String()})
	p.text.Reset()
}

func (p *printer) flush() []Segment {
	p.flushText()
	return p.segs
}

func (p *printer) node(n Node) {
	if n == nil {
		return
	}
	if r := n.Range(); r.Valid() {
		p.copySpan(r)
		return
	}

	switch n := n.(type) {
	case *StringLiteral:
		if n.Raw != "" {
			p.write(n.Raw)
		} else {
			p.write(strconv.Quote(n.Value))
		}
	case *Identifier:
		p.write(n.Name)
	case *MemberExpr:
		p.node(n.Object)
		if n.Computed {
			p.write("[")
			p.write(n.Property)
			p.write("]")
		} else {
			p.write(".")
			p.write(n.Property)
		}
	case *CallExpr:
		p.node(n.Callee)
		p.write("(")
		for i, arg := range n.Args {
			if i > 0 {
				p.write(", ")
			}
			// a, b as an argument would be two arguments
			if o, ok := arg.(*OpaqueExpr); ok && o.Kind == "sequence_expression" {
				p.write("(")
				p.node(arg)
				p.write(")")
				continue
			}
			p.node(arg)
		}
		p.write(")")
	case *EmptyExpr:
	case *OpaqueExpr:
		p.write(n.Text)
	case *SpreadElement:
		p.write(n.Text)
	case *ExpressionContainer:
		p.write("{")
		p.node(n.Expression)
		p.write("}")
	case *ElementValue:
		p.write(n.Text)
	case *Attribute:
		p.write(n.QualifiedName())
		if n.Value != nil {
			p.write("=")
			p.node(n.Value)
		}
	}
}
