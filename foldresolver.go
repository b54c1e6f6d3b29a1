package languagemode

import (
	"sort"
	"strconv"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// foldCaptureKind distinguishes the three fold capture names spec.md §6
// recognizes.
type foldCaptureKind int

const (
	foldSimple foldCaptureKind = iota
	foldDividedStart
	foldDividedEnd
)

type foldCapture struct {
	kind       foldCaptureKind
	node       tree_sitter.Node
	properties map[string]string
}

// FoldResolver owns fold discovery for one LanguageLayer, per spec.md §4.3.
// It caches an ordered list of fold boundary captures over a cached range,
// invalidated on any edit inside the layer, and resolves both simple folds
// (a single @fold capture) and balanced divided folds (@fold.start /
// @fold.end pairs).
type FoldResolver struct {
	buffer Buffer

	cachedRange Range
	captures    []foldCapture
	cached      bool
}

// NewFoldResolver builds a FoldResolver that clips fold ends against buffer.
func NewFoldResolver(buffer Buffer) *FoldResolver {
	return &FoldResolver{buffer: buffer}
}

// Invalidate drops the cached capture list; the next query will recompute
// it. Called by LanguageLayer whenever an edit touches the layer's extent.
func (f *FoldResolver) Invalidate() {
	f.cached = false
	f.captures = nil
}

// populate runs query over [extent.Start, extent.End) against root and
// caches the fold-relevant captures in buffer order. No-op if already
// cached for this extent.
func (f *FoldResolver) populate(query *tree_sitter.Query, root tree_sitter.Node, source []byte, extent Range) {
	if f.cached && f.cachedRange == extent {
		return
	}
	f.cachedRange = extent
	f.cached = true
	f.captures = nil

	if query == nil {
		return
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.SetPointRange(extent.Start.toTS(), extent.End.toTS())

	names := query.CaptureNames()
	matches := cursor.Matches(query, root, source)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		props := propertyMap(query.PropertySettings(match.PatternIndex))
		for _, capture := range match.Captures {
			var kind foldCaptureKind
			switch names[capture.Index] {
			case "fold":
				kind = foldSimple
			case "fold.start":
				kind = foldDividedStart
			case "fold.end":
				kind = foldDividedEnd
			default:
				continue
			}
			f.captures = append(f.captures, foldCapture{kind: kind, node: capture.Node, properties: props})
		}
	}

	sort.SliceStable(f.captures, func(i, j int) bool {
		return f.captures[i].node.StartByte() < f.captures[j].node.StartByte()
	})
}

func propertyMap(props []tree_sitter.QueryProperty) map[string]string {
	if len(props) == 0 {
		return nil
	}
	m := make(map[string]string, len(props))
	for _, p := range props {
		if p.Value != nil {
			m[p.Key] = *p.Value
		}
	}
	return m
}

// resolveSimple resolves one @fold capture to a Range per spec.md §4.3,
// applying endAt/offsetEnd/adjustEndColumn/adjustToEndOfPreviousRow
// property adjustments in that order, then clipping to the buffer and
// rejecting degenerate (single-row) folds.
func (f *FoldResolver) resolveSimple(c foldCapture) (Range, bool) {
	start := Point{Row: c.node.StartPosition().Row, Column: maxPoint.Column}

	endAtPath := "lastChild.startPosition"
	if v, ok := c.properties["endAt"]; ok && v != "" {
		endAtPath = v
	}

	var end Point
	if _, p, ok := resolveNodeDescriptor(&c.node, endAtPath); ok && p != nil {
		end = *p
	} else {
		end = pointFromTS(c.node.EndPosition())
	}

	if v, ok := c.properties["offsetEnd"]; ok {
		if n, err := strconv.Atoi(v); err == nil && f.buffer != nil {
			idx := f.buffer.CharacterIndexForPosition(end)
			end = f.buffer.PositionForCharacterIndex(addClamped(idx, n))
		}
	}
	if v, ok := c.properties["adjustEndColumn"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			end.Column = uint(n)
		}
	}
	if _, ok := c.properties["adjustToEndOfPreviousRow"]; ok {
		if end.Row > 0 {
			end.Row--
		}
		end.Column = maxPoint.Column
	}

	if f.buffer != nil {
		end = f.buffer.ClipPosition(end)
	}

	if end.Row <= start.Row {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// resolveDivided matches the @fold.start capture at index i in f.captures
// against the nearest later @fold.end at the same nesting depth, per
// spec.md §4.3.
func (f *FoldResolver) resolveDivided(i int) (Range, bool) {
	startCap := f.captures[i]
	start := Point{Row: startCap.node.StartPosition().Row, Column: maxPoint.Column}

	depth := 0
	for j := i + 1; j < len(f.captures); j++ {
		fc := f.captures[j]
		switch fc.kind {
		case foldDividedStart:
			if fc.node.Equals(startCap.node) {
				continue
			}
			depth++
		case foldDividedEnd:
			if fc.node.Equals(startCap.node) {
				continue
			}
			if depth > 0 {
				depth--
				continue
			}
			end := pointFromTS(fc.node.StartPosition())
			if end.Column == 0 && end.Row > 0 {
				end = Point{Row: end.Row - 1, Column: maxPoint.Column}
			}
			if f.buffer != nil {
				end = f.buffer.ClipPosition(end)
			}
			if end.Row <= start.Row {
				return Range{}, false
			}
			return Range{Start: start, End: end}, true
		}
	}
	return Range{}, false
}

// GetFoldRangeForRow returns the first fold whose start row equals row and
// whose resolved range spans more than one row.
func (f *FoldResolver) GetFoldRangeForRow(query *tree_sitter.Query, root tree_sitter.Node, source []byte, extent Range, row uint) (Range, bool) {
	f.populate(query, root, source, extent)

	for i, c := range f.captures {
		if c.node.StartPosition().Row != row {
			continue
		}
		var (
			r  Range
			ok bool
		)
		switch c.kind {
		case foldSimple:
			r, ok = f.resolveSimple(c)
		case foldDividedStart:
			r, ok = f.resolveDivided(i)
		default:
			continue
		}
		if ok && r.End.Row > r.Start.Row {
			return r, true
		}
	}
	return Range{}, false
}

// GetAllFoldRanges resolves every fold in the layer's extent.
func (f *FoldResolver) GetAllFoldRanges(query *tree_sitter.Query, root tree_sitter.Node, source []byte, extent Range) []Range {
	f.populate(query, root, source, extent)

	var ranges []Range
	for i, c := range f.captures {
		switch c.kind {
		case foldSimple:
			if r, ok := f.resolveSimple(c); ok {
				ranges = append(ranges, r)
			}
		case foldDividedStart:
			if r, ok := f.resolveDivided(i); ok {
				ranges = append(ranges, r)
			}
		}
	}
	return ranges
}
