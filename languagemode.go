package languagemode

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pulsar-edit/tree-sitter-languagemode/grammar"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Options configures a LanguageMode at construction, per spec.md §4.1's
// external collaborators.
type Options struct {
	Registry    GrammarRegistry
	ConfigStore ConfigStore
	Logger      *slog.Logger
}

// LanguageMode is the public façade described in spec.md §4.1: it owns the
// root LanguageLayer, routes buffer-change events to the whole layer tree,
// interns scope names, and answers every scope/fold/indent/highlight query
// an editor host needs.
type LanguageMode struct {
	buffer      Buffer
	registry    GrammarRegistry
	configStore ConfigStore
	logger      *slog.Logger

	scopeIDs  *scopeIDTable
	rootLayer *LanguageLayer

	foldableCache map[uint]bool
}

// New builds a LanguageMode rooted at rootGrammar over buffer. The root
// layer is not parsed until the first BufferDidFinishTransaction call, per
// spec.md §4.2's lazy update model.
func New(rootGrammar *grammar.Grammar, buffer Buffer, opts Options) *LanguageMode {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &LanguageMode{
		buffer:        buffer,
		registry:      opts.Registry,
		configStore:   opts.ConfigStore,
		logger:        logger,
		scopeIDs:      newScopeIDTable(),
		foldableCache: make(map[uint]bool),
	}
	m.rootLayer = newLanguageLayer(m, rootGrammar, nil, nil, nil, 0)
	return m
}

// BufferDidChange forwards edit to the root layer and every injection
// layer, per spec.md §4.1. It never reparses; reparsing happens at the
// next BufferDidFinishTransaction.
func (m *LanguageMode) BufferDidChange(edit tree_sitter.InputEdit) {
	m.rootLayer.HandleTextChange(edit)
	m.foldableCache = make(map[uint]bool)
}

// BufferDidFinishTransaction reparses the root layer (and, transitively,
// every injection layer discovered along the way), logging any
// invalidated range at debug level, per spec.md §4.1 and the ambient
// logging convention documented in SPEC_FULL.md.
func (m *LanguageMode) BufferDidFinishTransaction() error {
	invalidations, err := m.rootLayer.Update(nil)
	if err != nil {
		return fmt.Errorf("languagemode: update root layer: %w", err)
	}
	for _, r := range invalidations {
		m.logger.Debug("languagemode: invalidated range", "start", r.Start, "end", r.End)
	}
	if m.rootLayer.LoadError != nil {
		m.logger.Warn("languagemode: grammar load failed", "scope", m.rootLayer.Grammar.ScopeName, "error", m.rootLayer.LoadError)
	}
	return nil
}

// layers returns every LanguageLayer in the tree, root first, each layer
// followed by its children (a depth-first pre-order walk).
func (m *LanguageMode) layers() []*LanguageLayer {
	var out []*LanguageLayer
	var walk func(l *LanguageLayer)
	walk = func(l *LanguageLayer) {
		out = append(out, l)
		for _, c := range l.children {
			walk(c)
		}
	}
	walk(m.rootLayer)
	return out
}

// layersIntersecting returns every layer (in layers() order) whose extent
// overlaps the half-open range [from, to).
func (m *LanguageMode) layersIntersecting(from, to Point) []*LanguageLayer {
	var out []*LanguageLayer
	for _, l := range m.layers() {
		e := l.Extent()
		if e.Start.isLess(to) && from.isLess(e.End) {
			out = append(out, l)
		}
	}
	return out
}

// layersCoveringPoint returns every layer (depth-ascending) whose extent
// contains point.
func (m *LanguageMode) layersCoveringPoint(point Point) []*LanguageLayer {
	var out []*LanguageLayer
	for _, l := range m.layers() {
		if l.Extent().ContainsPointInclusive(point) {
			out = append(out, l)
		}
	}
	return out
}

// BuildHighlightIterator returns a HighlightIterator over [from, to),
// merging every layer with boundaries in range, per spec.md §4.1 and
// §4.4. Returns a nil iterator if the root layer is not yet parsed.
func (m *LanguageMode) BuildHighlightIterator(from, to Point) (*HighlightIterator, error) {
	if m.rootLayer.tree == nil {
		return nil, nil
	}

	var iterators []*LayerHighlightIterator
	for _, l := range m.layersIntersecting(from, to) {
		it, err := NewLayerHighlightIterator(l, from, to)
		if err != nil {
			return nil, err
		}
		if !it.Done() {
			iterators = append(iterators, it)
		}
	}
	return NewHighlightIterator(iterators), nil
}

// normalizePoint clips point to the buffer and, if it lies at end-of-line,
// moves it one character left, per spec.md §4.1's
// scopeDescriptorForPosition convention.
func (m *LanguageMode) normalizePoint(point Point) Point {
	p := m.buffer.ClipPosition(point)
	lineLength := m.buffer.LineLengthForRow(p.Row)
	if p.Column == lineLength && lineLength > 0 {
		p.Column--
	}
	return p
}

// ScopeDescriptorForPosition implements spec.md §4.1: the ordered list of
// scope names covering point, outermost first.
func (m *LanguageMode) ScopeDescriptorForPosition(point Point) []string {
	p := m.normalizePoint(point)

	var names []string
	for _, l := range m.layersCoveringPoint(p) {
		names = append(names, l.Grammar.ScopeName)
		for _, cap := range l.ScopeMapAtPosition(p) {
			names = append(names, cap.Name)
		}
	}
	return names
}

type syntaxNodeEntry struct {
	node  tree_sitter.Node
	depth int
}

// smallestNodeChainContainingPoint walks from root to the smallest
// descendant whose range contains point, returning the full ancestor
// chain (root first).
func smallestNodeChainContainingPoint(root tree_sitter.Node, point Point) []tree_sitter.Node {
	chain := []tree_sitter.Node{root}
	cur := root
	for {
		var next *tree_sitter.Node
		count := cur.ChildCount()
		for i := uint(0); i < count; i++ {
			child := cur.Child(i)
			if rangeFromNode(&child).ContainsPointInclusive(point) {
				next = &child
				break
			}
		}
		if next == nil {
			return chain
		}
		chain = append(chain, *next)
		cur = *next
	}
}

// SyntaxTreeScopeDescriptorForPosition implements spec.md §4.1: the
// ordered list of node type names (quoted if anonymous) from root grammar
// to smallest descendant at point, aggregated across covering layers and
// sorted by (startIndex asc, endIndex desc, depth asc).
func (m *LanguageMode) SyntaxTreeScopeDescriptorForPosition(point Point) []string {
	p := m.normalizePoint(point)

	var entries []syntaxNodeEntry
	for _, l := range m.layersCoveringPoint(p) {
		if l.tree == nil {
			continue
		}
		chain := smallestNodeChainContainingPoint(l.tree.RootNode(), p)
		for depth, n := range chain {
			entries = append(entries, syntaxNodeEntry{node: n, depth: l.Depth*100000 + depth})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ni, nj := entries[i].node, entries[j].node
		if ni.StartByte() != nj.StartByte() {
			return ni.StartByte() < nj.StartByte()
		}
		if ni.EndByte() != nj.EndByte() {
			return ni.EndByte() > nj.EndByte()
		}
		return entries[i].depth < entries[j].depth
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		if e.node.IsNamed() {
			names[i] = e.node.Type()
		} else {
			names[i] = fmt.Sprintf("%q", e.node.Type())
		}
	}
	return names
}

// BufferRangeForScopeAtPosition implements spec.md §4.1: the smallest
// range among all captures covering point whose scope name satisfies
// selector. Compiling a TextMate-style scope selector string is out of
// this module's scope (spec.md §1 Non-goals, "semantic analysis beyond
// what queries express"); selector is instead the already-compiled
// predicate the caller would have produced from one.
func (m *LanguageMode) BufferRangeForScopeAtPosition(selector func(scopeName string) bool, point Point) (Range, bool) {
	p := m.normalizePoint(point)

	var best Range
	found := false
	for _, l := range m.layersCoveringPoint(p) {
		if selector(l.Grammar.ScopeName) {
			e := l.Extent()
			if !found || pointDistance(e.Start, e.End) < pointDistance(best.Start, best.End) {
				best, found = e, true
			}
		}
		for _, cap := range l.ScopeMapAtPosition(p) {
			if !selector(cap.Name) {
				continue
			}
			r := cap.Range()
			if !found || pointDistance(r.Start, r.End) < pointDistance(best.Start, best.End) {
				best, found = r, true
			}
		}
	}
	return best, found
}

// NodePredicate filters candidate nodes for GetSyntaxNodeContainingRange
// and GetSyntaxNodeAtPosition.
type NodePredicate func(node tree_sitter.Node, g *grammar.Grammar) bool

// GetSyntaxNodeContainingRange implements spec.md §4.1: the smallest node
// across all covering layers that strictly contains r and passes
// predicate (nil predicate accepts everything). Smaller node wins;
// deeper layer breaks ties.
func (m *LanguageMode) GetSyntaxNodeContainingRange(r Range, predicate NodePredicate) (tree_sitter.Node, bool) {
	return m.smallestMatchingNode(r.Start, func(n tree_sitter.Node, g *grammar.Grammar) bool {
		if rangeFromNode(&n).StrictlyContains(r) {
			return predicate == nil || predicate(n, g)
		}
		return false
	})
}

// GetSyntaxNodeAtPosition implements spec.md §4.1: the smallest node
// across all covering layers that contains point and passes predicate.
func (m *LanguageMode) GetSyntaxNodeAtPosition(point Point, predicate NodePredicate) (tree_sitter.Node, bool) {
	p := m.normalizePoint(point)
	return m.smallestMatchingNode(p, func(n tree_sitter.Node, g *grammar.Grammar) bool {
		if rangeFromNode(&n).ContainsPointInclusive(p) {
			return predicate == nil || predicate(n, g)
		}
		return false
	})
}

func (m *LanguageMode) smallestMatchingNode(point Point, accept func(tree_sitter.Node, *grammar.Grammar) bool) (tree_sitter.Node, bool) {
	var best *tree_sitter.Node
	var bestDepth int
	for _, l := range m.layersCoveringPoint(point) {
		if l.tree == nil {
			continue
		}
		chain := smallestNodeChainContainingPoint(l.tree.RootNode(), point)
		for i := len(chain) - 1; i >= 0; i-- {
			n := chain[i]
			if !accept(n, l.Grammar) {
				continue
			}
			if best == nil {
				nn := n
				best, bestDepth = &nn, l.Depth
				break
			}
			br := rangeFromNode(best)
			nr := rangeFromNode(&n)
			nSize := pointDistance(nr.Start, nr.End)
			bSize := pointDistance(br.Start, br.End)
			if nSize < bSize || (nSize == bSize && l.Depth > bestDepth) {
				nn := n
				best, bestDepth = &nn, l.Depth
			}
			break
		}
	}
	if best == nil {
		return tree_sitter.Node{}, false
	}
	return *best, true
}

// GetFoldableRangeContainingPoint implements spec.md §4.1.
func (m *LanguageMode) GetFoldableRangeContainingPoint(point Point) (Range, bool) {
	return m.foldRangeForRow(point.Row)
}

func (m *LanguageMode) foldRangeForRow(row uint) (Range, bool) {
	for _, l := range m.layersCoveringPoint(Point{Row: row}) {
		if l.Grammar.FoldsQuery == nil || l.tree == nil {
			continue
		}
		source := []byte(m.buffer.Text())
		if r, ok := l.foldResolver.GetFoldRangeForRow(l.Grammar.FoldsQuery, l.tree.RootNode(), source, l.Extent(), row); ok {
			return r, true
		}
	}
	return Range{}, false
}

// GetFoldableRanges implements spec.md §4.1: every fold range across
// every layer.
func (m *LanguageMode) GetFoldableRanges() []Range {
	var all []Range
	source := []byte(m.buffer.Text())
	for _, l := range m.layers() {
		if l.Grammar.FoldsQuery == nil || l.tree == nil {
			continue
		}
		all = append(all, l.foldResolver.GetAllFoldRanges(l.Grammar.FoldsQuery, l.tree.RootNode(), source, l.Extent())...)
	}
	return all
}

type foldLevelEvent struct {
	point Point
	isEnd bool
	r     Range
}

// GetFoldableRangesAtIndentLevel implements spec.md §4.1: folds whose
// nesting level among folds (not indentation column) equals level.
func (m *LanguageMode) GetFoldableRangesAtIndentLevel(level int) []Range {
	ranges := m.GetFoldableRanges()

	events := make([]foldLevelEvent, 0, len(ranges)*2)
	for _, r := range ranges {
		events = append(events, foldLevelEvent{point: r.Start, isEnd: false, r: r})
		events = append(events, foldLevelEvent{point: r.End, isEnd: true, r: r})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].point != events[j].point {
			return events[i].point.isLess(events[j].point)
		}
		return events[i].isEnd && !events[j].isEnd
	})

	var result []Range
	currentLevel := 0
	for _, e := range events {
		if e.isEnd {
			currentLevel--
			continue
		}
		if currentLevel == level {
			result = append(result, e.r)
		}
		currentLevel++
	}
	return result
}

// IsFoldableAtRow implements spec.md §4.1: a per-row cache invalidated at
// every transaction (BufferDidChange clears it wholesale).
func (m *LanguageMode) IsFoldableAtRow(row uint) bool {
	if v, ok := m.foldableCache[row]; ok {
		return v
	}
	r, ok := m.foldRangeForRow(row)
	result := ok && r.Start.Row == row
	m.foldableCache[row] = result
	return result
}

// firstNonWhitespaceColumn returns the column of the first rune in line that
// is not a space or tab, or the line's length if line is blank.
func firstNonWhitespaceColumn(line string) uint {
	var col uint
	for _, r := range line {
		if r != ' ' && r != '\t' {
			return col
		}
		col++
	}
	return col
}

// CommentStringsForPosition implements spec.md §4.1: prefer the innermost
// layer covering the row's first non-whitespace column's grammar-declared
// comment strings, falling back to the configuration store scoped to the
// position's descriptor.
func (m *LanguageMode) CommentStringsForPosition(point Point) (lineStart, blockStart, blockEnd string, ok bool) {
	col := firstNonWhitespaceColumn(m.buffer.LineForRow(point.Row))
	layers := m.layersCoveringPoint(Point{Row: point.Row, Column: col})
	for i := len(layers) - 1; i >= 0; i-- {
		cs := layers[i].Grammar.CommentStrings
		if cs.LineStart != "" || cs.BlockStart != "" {
			return cs.LineStart, cs.BlockStart, cs.BlockEnd, true
		}
	}

	if m.configStore == nil {
		return "", "", "", false
	}
	descriptor := m.ScopeDescriptorForPosition(point)
	start, okStart := m.configStore.CommentStart(descriptor)
	end, _ := m.configStore.CommentEnd(descriptor)
	if !okStart {
		return "", "", "", false
	}
	return start, "", end, true
}

// ClassNameForScopeID converts a scope id's dotted name into the
// space-separated "syntax--segment" class-name convention text editors in
// this ecosystem use for DOM/TextMate-style rendering, e.g.
// "keyword.control" becomes "syntax--keyword syntax--control".
func (m *LanguageMode) ClassNameForScopeID(id ScopeID) string {
	name := m.scopeIDs.name(id)
	if name == "" {
		return ""
	}
	segments := strings.Split(name, ".")
	for i, s := range segments {
		segments[i] = "syntax--" + s
	}
	return strings.Join(segments, " ")
}

// ScopeNameForScopeID returns the dotted scope name id was interned from.
func (m *LanguageMode) ScopeNameForScopeID(id ScopeID) string {
	return m.scopeIDs.name(id)
}

// GetOrCreateScopeID interns name, returning its existing id or minting a
// new one (spec.md §3's scope-id bijection).
func (m *LanguageMode) GetOrCreateScopeID(name string) ScopeID {
	return m.scopeIDs.getOrCreate(name)
}

// UpdateForInjection implements spec.md §4.1: re-evaluate injections
// because g was registered or changed, without a full reparse.
func (m *LanguageMode) UpdateForInjection(g *grammar.Grammar) error {
	for _, l := range m.layers() {
		if l.tree == nil {
			continue
		}
		if _, err := l.populateInjections(l.Extent(), l.currentIncludedRange); err != nil {
			return fmt.Errorf("languagemode: update for injection %q: %w", g.ScopeName, err)
		}
	}
	return nil
}
