// Package span provides source positions and ranges shared by the lexer,
// parser, diagnostics and runtime errors.
package span

import "fmt"

// Position is a point in source text.
type Position struct {
	Offset int `json:"offset" yaml:"offset"` // byte offset from the start of input
	Line   int `json:"line"   yaml:"line"`   // 1-based
	Column int `json:"column" yaml:"column"` // 1-based, counted in runes
}

// Start is the position of the first byte of any input.
var Start = Position{Offset: 0, Line: 1, Column: 1}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p was produced by a scanner (lines start at 1).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span is the half-open range [Start, End).
type Span struct {
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end"   yaml:"end"`
}

// Join returns the smallest span covering both a and b.
func Join(a, b Span) Span {
	out := a
	if b.Start.Offset < out.Start.Offset {
		out.Start = b.Start
	}
	if b.End.Offset > out.End.Offset {
		out.End = b.End
	}
	return out
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Len returns the byte length of the span.
func (s Span) Len() int {
	return s.End.Offset - s.Start.Offset
}

// Text returns the slice of src covered by s, clamped to src.
func (s Span) Text(src string) string {
	lo, hi := s.Start.Offset, s.End.Offset
	if lo < 0 {
		lo = 0
	}
	if hi > len(src) {
		hi = len(src)
	}
	if lo >= hi {
		return ""
	}
	return src[lo:hi]
}
