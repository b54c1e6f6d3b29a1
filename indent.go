package languagemode

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// indentLevelForLine computes line's indentation level given tabLength,
// per spec.md §4.7: each space advances one column, each tab advances to
// the next tabLength-aligned column; the level is columns/tabLength.
func indentLevelForLine(line string, tabLength uint) float64 {
	if tabLength == 0 {
		tabLength = 1
	}
	var column uint
	for _, r := range line {
		switch r {
		case '\t':
			column = (column/tabLength + 1) * tabLength
		case ' ':
			column++
		default:
			return float64(column) / float64(tabLength)
		}
	}
	return float64(column) / float64(tabLength)
}

// IndentOptions configures SuggestedIndentForBufferRow, per spec.md §4.7.
type IndentOptions struct {
	SkipBlankLines  bool // true in NewIndentOptions; false in the zero value
	SkipDedentCheck bool
}

// NewIndentOptions returns the spec's defaults: SkipBlankLines true,
// SkipDedentCheck false.
func NewIndentOptions() IndentOptions {
	return IndentOptions{SkipBlankLines: true}
}

// layerCoveringPoint returns the deepest layer in the subtree rooted at
// root whose extent covers point, restricted to layers for which accept
// returns true. Returns nil if none match.
func layerCoveringPoint(root *LanguageLayer, point Point, accept func(*LanguageLayer) bool) *LanguageLayer {
	var best *LanguageLayer
	var walk func(l *LanguageLayer)
	walk = func(l *LanguageLayer) {
		if l.Extent().ContainsPointInclusive(point) && accept(l) {
			if best == nil || l.Depth > best.Depth {
				best = l
			}
		}
		for _, c := range l.children {
			walk(c)
		}
	}
	walk(root)
	return best
}

func queryCapturesInRange(query *tree_sitter.Query, root tree_sitter.Node, source []byte, from, to Point) []Capture {
	if query == nil {
		return nil
	}
	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.SetPointRange(from.toTS(), to.toTS())

	names := query.CaptureNames()
	matches := cursor.Matches(query, root, source)

	var result []Capture
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			result = append(result, Capture{Name: names[c.Index], Node: c.Node})
		}
	}
	return result
}

// SuggestedIndentForBufferRow implements spec.md §4.7.
func (m *LanguageMode) SuggestedIndentForBufferRow(row uint, tabLength uint, opts IndentOptions) int {
	if row == 0 {
		return 0
	}

	comparisonRow := row - 1
	if opts.SkipBlankLines {
		for comparisonRow > 0 && m.buffer.IsRowBlank(comparisonRow) {
			comparisonRow--
		}
	}

	lastLineIndent := indentLevelForLine(m.buffer.LineForRow(comparisonRow), tabLength)

	lineLength := m.buffer.LineLengthForRow(comparisonRow)
	point := Point{Row: comparisonRow, Column: lineLength}
	layer := layerCoveringPoint(m.rootLayer, point, func(l *LanguageLayer) bool {
		return l.Grammar.IndentsQuery != nil
	})
	if layer == nil {
		return int(lastLineIndent)
	}

	if err := layer.ForceAnonymousParse(); err != nil {
		return int(lastLineIndent)
	}
	source := []byte(m.buffer.Text())
	root := layer.tree.RootNode()

	indentDelta := 0
	seenIndent := false
	for _, cap := range queryCapturesInRange(layer.Grammar.IndentsQuery, root, source, Point{Row: comparisonRow}, Point{Row: row}) {
		r := cap.Range()
		if r.End.Row < comparisonRow {
			continue
		}
		if r.Start == r.End {
			continue
		}
		switch cap.Name {
		case "indent":
			indentDelta++
			seenIndent = true
		case "indent_end", "indent.end":
			if seenIndent {
				indentDelta--
			}
		}
	}
	if indentDelta > 1 {
		indentDelta = 1
	}
	if indentDelta < 0 {
		indentDelta = 0
	}

	dedentDelta := 0
	if !opts.SkipDedentCheck {
		trimmed := strings.TrimSpace(m.buffer.LineForRow(row))
		seen := make(map[[2]uint]bool)
		for _, cap := range queryCapturesInRange(layer.Grammar.IndentsQuery, root, source, Point{Row: row}, Point{Row: row + 1}) {
			if cap.Name != "indent_end" && cap.Name != "indent.end" && cap.Name != "branch" {
				continue
			}
			text := cap.Node.Utf8Text(source)
			if !strings.HasPrefix(trimmed, text) {
				continue
			}
			key := [2]uint{uint(cap.Node.StartByte()), uint(cap.Node.EndByte())}
			if seen[key] {
				continue
			}
			seen[key] = true
			dedentDelta--
		}
	}
	if dedentDelta < -1 {
		dedentDelta = -1
	}
	if dedentDelta > 0 {
		dedentDelta = 0
	}

	return int(lastLineIndent) + indentDelta + dedentDelta
}

// SuggestedIndentForEditedBufferRow implements spec.md §4.7.
func (m *LanguageMode) SuggestedIndentForEditedBufferRow(row uint, tabLength uint) int {
	baseline := m.SuggestedIndentForBufferRow(row, tabLength, IndentOptions{SkipBlankLines: true, SkipDedentCheck: true})

	lineLength := m.buffer.LineLengthForRow(row)
	point := Point{Row: row, Column: lineLength}
	layer := layerCoveringPoint(m.rootLayer, point, func(l *LanguageLayer) bool {
		return l.Grammar.IndentsQuery != nil
	})
	if layer == nil {
		return baseline
	}
	if err := layer.ForceAnonymousParse(); err != nil {
		return baseline
	}

	source := []byte(m.buffer.Text())
	root := layer.tree.RootNode()
	trimmed := strings.TrimSpace(m.buffer.LineForRow(row))

	for _, cap := range queryCapturesInRange(layer.Grammar.IndentsQuery, root, source, Point{Row: row}, Point{Row: row + 1}) {
		if cap.Name != "branch" {
			continue
		}
		if cap.Range().Start.Row != row {
			continue
		}
		if cap.Node.Utf8Text(source) == trimmed {
			if baseline-1 > 0 {
				return baseline - 1
			}
			return 0
		}
	}

	return int(indentLevelForLine(m.buffer.LineForRow(row), tabLength))
}
