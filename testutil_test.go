package languagemode

import "strings"

// fakeBuffer is a minimal in-memory Buffer implementation for tests, per
// spec.md §1's Buffer external collaborator.
type fakeBuffer struct {
	lines []string
}

func newFakeBuffer(text string) *fakeBuffer {
	return &fakeBuffer{lines: strings.Split(text, "\n")}
}

func (b *fakeBuffer) Text() string {
	return strings.Join(b.lines, "\n")
}

func (b *fakeBuffer) LineForRow(row uint) string {
	if int(row) >= len(b.lines) {
		return ""
	}
	return b.lines[row]
}

func (b *fakeBuffer) LineLengthForRow(row uint) uint {
	return uint(len([]rune(b.LineForRow(row))))
}

func (b *fakeBuffer) LineEndingForRow(row uint) string {
	if int(row) < len(b.lines)-1 {
		return "\n"
	}
	return ""
}

func (b *fakeBuffer) IsRowBlank(row uint) bool {
	return strings.TrimSpace(b.LineForRow(row)) == ""
}

func (b *fakeBuffer) CharacterIndexForPosition(p Point) uint {
	var idx uint
	for row := uint(0); row < p.Row && int(row) < len(b.lines); row++ {
		idx += b.LineLengthForRow(row) + 1
	}
	return idx + p.Column
}

func (b *fakeBuffer) PositionForCharacterIndex(index uint) Point {
	var row uint
	for {
		lineLen := b.LineLengthForRow(row)
		if int(row) >= len(b.lines)-1 || index <= lineLen {
			return Point{Row: row, Column: index}
		}
		index -= lineLen + 1
		row++
	}
}

func (b *fakeBuffer) TextInRange(r Range) string {
	start := b.CharacterIndexForPosition(r.Start)
	end := b.CharacterIndexForPosition(r.End)
	full := []rune(b.Text())
	if int(end) > len(full) {
		end = uint(len(full))
	}
	if int(start) > len(full) {
		start = uint(len(full))
	}
	return string(full[start:end])
}

func (b *fakeBuffer) ClipPosition(p Point) Point {
	if int(p.Row) >= len(b.lines) {
		p.Row = uint(len(b.lines) - 1)
	}
	if maxCol := b.LineLengthForRow(p.Row); p.Column > maxCol {
		p.Column = maxCol
	}
	return p
}

func (b *fakeBuffer) Range() Range {
	last := uint(len(b.lines) - 1)
	return Range{Start: Point{}, End: Point{Row: last, Column: b.LineLengthForRow(last)}}
}
