package transform

import (
	"sort"
	"strings"

	"github.com/gnana997/classwrap/pkg/jsx"
)

// edit replaces span (or inserts at span.Start when the span is empty) with
// printed segments. Source segments inside an edit are rendered with any
// edits they contain, which is how a rewrite nested in a kept expression
// survives the rewrite of its enclosing attribute.
type edit struct {
	span jsx.Span
	segs []jsx.Segment

	// order breaks ties between insertions at the same offset; lower first
	order int
}

// encloses reports whether o lies inside e and must be rendered as part of
// e rather than beside it.
func (e edit) encloses(o edit) bool {
	if e.span.End <= e.span.Start {
		return false
	}
	return o.span.Start >= e.span.Start && o.span.End <= e.span.End && o.span.Start < e.span.End
}

func sortEdits(edits []edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i], edits[j]
		if a.span.Start != b.span.Start {
			return a.span.Start < b.span.Start
		}
		if a.span.End != b.span.End {
			return a.span.End > b.span.End
		}
		return a.order < b.order
	})
}

// apply renders source with edits applied. Overlapping edits that are not
// nested are dropped after the first; callers never produce them.
func apply(source []byte, edits []edit) ([]byte, int) {
	if len(edits) == 0 {
		return source, 0
	}

	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sortEdits(sorted)

	g := &codegen{source: source}
	var b strings.Builder
	b.Grow(len(source) + 64*len(edits))
	g.render(&b, 0, uint(len(source)), sorted)

	return []byte(b.String()), g.dropped
}

type codegen struct {
	source  []byte
	dropped int
}

func (g *codegen) render(b *strings.Builder, from, to uint, edits []edit) {
	pos := from
	for i := 0; i < len(edits); {
		e := edits[i]
		j := i + 1
		for j < len(edits) && e.encloses(edits[j]) {
			j++
		}
		inner := edits[i+1 : j]
		i = j

		if e.span.Start < pos {
			g.dropped++
			continue
		}

		b.Write(g.source[pos:e.span.Start])
		for _, seg := range e.segs {
			if !seg.IsSource() {
				b.WriteString(seg.Text)
				continue
			}
			g.render(b, seg.Src.Start, seg.Src.End, within(inner, seg.Src))
		}
		pos = e.span.End
	}
	b.Write(g.source[pos:to])
}

func within(edits []edit, span jsx.Span) []edit {
	var out []edit
	for _, e := range edits {
		if e.span.Start >= span.Start && e.span.End <= span.End {
			out = append(out, e)
		}
	}
	return out
}
