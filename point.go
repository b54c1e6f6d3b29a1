package languagemode

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// Point is a zero-indexed (row, column) buffer position.
type Point struct {
	Row    uint
	Column uint
}

// Compare returns -1, 0 or 1 as p is less than, equal to, or greater than other.
func (p Point) Compare(other Point) int {
	if p.Row != other.Row {
		if p.Row < other.Row {
			return -1
		}
		return 1
	}
	if p.Column != other.Column {
		if p.Column < other.Column {
			return -1
		}
		return 1
	}
	return 0
}

func (p Point) isLess(other Point) bool    { return p.Compare(other) < 0 }
func (p Point) isLessEq(other Point) bool  { return p.Compare(other) <= 0 }
func (p Point) isGreater(other Point) bool { return p.Compare(other) > 0 }

func (p Point) toTS() tree_sitter.Point {
	return tree_sitter.Point{Row: p.Row, Column: p.Column}
}

func pointFromTS(p tree_sitter.Point) Point {
	return Point{Row: p.Row, Column: p.Column}
}

// Range is a half-open [Start, End) buffer span.
type Range struct {
	Start Point
	End   Point
}

// ContainsPoint reports whether r contains p, treating r as half-open.
func (r Range) ContainsPoint(p Point) bool {
	return !p.isLess(r.Start) && p.isLess(r.End)
}

// ContainsPointInclusive reports whether p lies in the closed range [Start, End].
func (r Range) ContainsPointInclusive(p Point) bool {
	return !p.isLess(r.Start) && !p.isGreater(r.End)
}

// Contains reports whether r fully contains other.
func (r Range) Contains(other Range) bool {
	return !other.Start.isLess(r.Start) && !other.End.isGreater(r.End)
}

// StrictlyContains reports whether r contains other and is not equal to it.
func (r Range) StrictlyContains(other Range) bool {
	return r.Contains(other) && r != other
}

func (r Range) toTS() tree_sitter.Range {
	return tree_sitter.Range{StartPoint: r.Start.toTS(), EndPoint: r.End.toTS()}
}

func rangeFromNode(n *tree_sitter.Node) Range {
	return Range{Start: pointFromTS(n.StartPosition()), End: pointFromTS(n.EndPosition())}
}

// maxPoint is used as an "infinity" end marker for fold boundaries, mirroring
// the reference implementation's convention of resolving a fold's start to
// (row, Infinity) before the real end point is known.
var maxPoint = Point{Row: ^uint(0), Column: ^uint(0)}
