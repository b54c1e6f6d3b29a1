package languagemode

import (
	"fmt"
	"sort"

	"github.com/pulsar-edit/tree-sitter-languagemode/grammar"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// LanguageLayer owns one parse tree for one grammar over one buffer
// region, per spec.md §4.2. The root layer has marker == nil and Extent
// covering the whole buffer; an injection layer's Marker is the buffer
// marker whose range tracks the injected content.
type LanguageLayer struct {
	mode *LanguageMode

	Grammar        *grammar.Grammar
	Depth          int
	InjectionPoint *grammar.InjectionPoint
	Parent         *LanguageLayer

	marker *Range // nil for the root layer

	tree                 *tree_sitter.Tree
	editedRange          *Range
	currentNodeRangeSet  *NodeRangeSet
	currentIncludedRange []tree_sitter.Range

	scopeResolver   ScopeResolver
	foldResolver    *FoldResolver
	languageScopeID ScopeID

	children []*LanguageLayer

	// LoadError records the most recent language-binary load failure, if
	// any; per spec.md §7 it never propagates, it is only observable.
	LoadError error
}

func newLanguageLayer(mode *LanguageMode, g *grammar.Grammar, marker *Range, injectionPoint *grammar.InjectionPoint, parent *LanguageLayer, depth int) *LanguageLayer {
	l := &LanguageLayer{
		mode:            mode,
		Grammar:         g,
		Depth:           depth,
		InjectionPoint:  injectionPoint,
		Parent:          parent,
		marker:          marker,
		foldResolver:    NewFoldResolver(mode.buffer),
		languageScopeID: mode.GetOrCreateScopeID(g.ScopeName),
	}
	l.scopeResolver = NewDefaultScopeResolver(mode.GetOrCreateScopeID)
	return l
}

// Extent is the buffer range this layer is responsible for: the whole
// buffer for the root layer, the marker's range otherwise.
func (l *LanguageLayer) Extent() Range {
	if l.marker == nil {
		return l.mode.buffer.Range()
	}
	return *l.marker
}

// HandleTextChange records edit against the layer's tree (if parsed) and
// widens editedRange, per spec.md §4.2. It does not reparse.
func (l *LanguageLayer) HandleTextChange(edit tree_sitter.InputEdit) {
	if l.tree != nil {
		l.tree.Edit(&edit)
	}

	newSpan := Range{Start: pointFromTS(edit.StartPosition), End: pointFromTS(edit.NewEndPosition)}
	if l.editedRange == nil {
		r := newSpan
		l.editedRange = &r
	} else {
		l.editedRange = unionRangePtr(l.editedRange, newSpan)
	}
	l.foldResolver.Invalidate()

	for _, child := range l.children {
		child.HandleTextChange(edit)
	}
}

func unionRangePtr(a *Range, b Range) *Range {
	start := a.Start
	if b.Start.isLess(start) {
		start = b.Start
	}
	end := a.End
	if b.End.isGreater(end) {
		end = b.End
	}
	return &Range{Start: start, End: end}
}

// Update implements spec.md §4.2's update algorithm. The reference design
// describes this as asynchronous (it awaits the language-binary future and
// composes child updates into a promise tree); tree-sitter parsing is a
// synchronous call in Go, and per spec.md §5 the whole scheduling model is
// single-threaded cooperative, so Update is implemented as a plain
// synchronous call that recurses into child layers in turn rather than via
// goroutines — the ordering guarantees of §5 hold either way.
func (l *LanguageLayer) Update(nodeRangeSet *NodeRangeSet) ([]Range, error) {
	lang, err := l.Grammar.Language()
	if err != nil {
		l.LoadError = err
		return nil, nil
	}

	var includedRanges []tree_sitter.Range
	if nodeRangeSet != nil {
		includedRanges = nodeRangeSet.GetRanges()
		if len(includedRanges) == 0 {
			invalidated := l.Extent()
			l.destroy()
			return []Range{invalidated}, nil
		}
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("languagelayer %q: set language: %w", l.Grammar.ScopeName, err)
	}
	if len(includedRanges) > 0 {
		if err := parser.SetIncludedRanges(includedRanges); err != nil {
			return nil, fmt.Errorf("languagelayer %q: set included ranges: %w", l.Grammar.ScopeName, err)
		}
	}

	source := []byte(l.mode.buffer.Text())
	oldTree := l.tree
	newTree := parser.Parse(source, oldTree)

	var invalidations []Range
	var affected Range
	if oldTree != nil {
		for _, r := range oldTree.ChangedRanges(newTree) {
			cr := Range{Start: pointFromTS(r.StartPoint), End: pointFromTS(r.EndPoint)}
			invalidations = append(invalidations, cr)
		}
		affected = unionRanges(invalidations)
		if l.editedRange != nil {
			affected = *unionRangePtr(&affected, *l.editedRange)
		}
	} else if len(includedRanges) > 0 {
		affected = rangesExtent(includedRanges)
	} else {
		affected = l.mode.buffer.Range()
	}

	l.tree = newTree
	l.currentNodeRangeSet = nodeRangeSet
	l.currentIncludedRange = includedRanges
	l.editedRange = nil
	l.foldResolver.Invalidate()

	childInvalidations, err := l.populateInjections(affected, includedRanges)
	if err != nil {
		return nil, err
	}
	invalidations = append(invalidations, childInvalidations...)

	return invalidations, nil
}

func unionRanges(ranges []Range) Range {
	if len(ranges) == 0 {
		return Range{}
	}
	result := ranges[0]
	for _, r := range ranges[1:] {
		result = *unionRangePtr(&result, r)
	}
	return result
}

func rangesExtent(ranges []tree_sitter.Range) Range {
	if len(ranges) == 0 {
		return Range{}
	}
	start := pointFromTS(ranges[0].StartPoint)
	end := pointFromTS(ranges[0].EndPoint)
	for _, r := range ranges[1:] {
		p := pointFromTS(r.StartPoint)
		if p.isLess(start) {
			start = p
		}
		p = pointFromTS(r.EndPoint)
		if p.isGreater(end) {
			end = p
		}
	}
	return Range{Start: start, End: end}
}

// destroy detaches this layer and all of its descendants, per spec.md §3's
// lifecycle rule and testable property 4 ("injection destruction").
func (l *LanguageLayer) destroy() {
	for _, child := range l.children {
		child.destroy()
	}
	l.children = nil
	l.tree = nil
	if l.Parent != nil {
		l.Parent.removeChild(l)
	}
}

func (l *LanguageLayer) removeChild(child *LanguageLayer) {
	for i, c := range l.children {
		if c == child {
			l.children = append(l.children[:i], l.children[i+1:]...)
			return
		}
	}
}

// populateInjections implements spec.md §4.2's _populateInjections: it
// scans the freshly-parsed tree for nodes matching a registered injection
// point, resolves the injected language and content, and recursively
// updates (creating or destroying as needed) the corresponding child
// layers.
func (l *LanguageLayer) populateInjections(affected Range, parentRanges []tree_sitter.Range) ([]Range, error) {
	if len(l.Grammar.InjectionPoints) == 0 || l.mode.registry == nil {
		return nil, nil
	}

	byType := l.Grammar.InjectionPointsByType()
	source := []byte(l.mode.buffer.Text())
	root := l.tree.RootNode()

	visited := make(map[*LanguageLayer]bool)
	var invalidations []Range

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	candidates := descendantsOfTypes(&root, types, affected)
	for _, node := range candidates {
		for _, ip := range byType[node.Type()] {
			if ip.Language == nil || ip.Content == nil {
				continue
			}
			langTag := ip.Language(&node, source)
			if langTag == "" {
				continue
			}
			contentNodes := ip.Content(&node)
			if len(contentNodes) == 0 {
				continue
			}
			childGrammar := l.mode.registry.GrammarForLanguageString(langTag)
			if childGrammar == nil {
				continue
			}

			markerRange := rangeFromNode(&node)
			child := l.findOrCreateChild(childGrammar, markerRange, &ip)
			visited[child] = true

			nrs := NewNodeRangeSet(parentRanges, contentNodes, ip.NewlinesBetween, ip.IncludeChildren)
			childInvalidations, err := child.Update(nrs)
			if err != nil {
				return nil, err
			}
			invalidations = append(invalidations, childInvalidations...)
		}
	}

	for _, child := range append([]*LanguageLayer{}, l.children...) {
		if !visited[child] {
			invalidations = append(invalidations, child.Extent())
			child.destroy()
		}
	}

	return invalidations, nil
}

func (l *LanguageLayer) findOrCreateChild(g *grammar.Grammar, markerRange Range, ip *grammar.InjectionPoint) *LanguageLayer {
	for _, child := range l.children {
		if child.Grammar == g && child.marker != nil && *child.marker == markerRange {
			return child
		}
	}
	child := newLanguageLayer(l.mode, g, &markerRange, ip, l, l.Depth+1)
	l.children = append(l.children, child)
	return child
}

// descendantsOfTypes returns every descendant of root whose range overlaps
// or touches the closed range [affected.Start, affected.End] and whose
// Type() is one of types.
func descendantsOfTypes(root *tree_sitter.Node, types []string, affected Range) []tree_sitter.Node {
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	var results []tree_sitter.Node
	var walk func(n tree_sitter.Node)
	walk = func(n tree_sitter.Node) {
		nr := rangeFromNode(&n)
		if nr.End.isLess(affected.Start) || affected.End.isLess(nr.Start) {
			return
		}
		if wanted[n.Type()] {
			results = append(results, n)
		}
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			walk(n.Child(i))
		}
	}
	walk(*root)
	return results
}

// ForceAnonymousParse synchronously reparses using the cached
// currentNodeRangeSet, per spec.md §4.2; used by the indent subsystem to
// obtain a fresh tree between edit and the next scheduled reparse.
func (l *LanguageLayer) ForceAnonymousParse() error {
	lang, err := l.Grammar.Language()
	if err != nil {
		return err
	}
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return err
	}
	if len(l.currentIncludedRange) > 0 {
		if err := parser.SetIncludedRanges(l.currentIncludedRange); err != nil {
			return err
		}
	}
	source := []byte(l.mode.buffer.Text())
	l.tree = parser.Parse(source, l.tree)
	return nil
}

// GetSyntaxBoundaries implements spec.md §4.2's getSyntaxBoundaries: it
// runs the syntax query over [from, to), resolves captures into a boundary
// tree via the layer's ScopeResolver, synthesizes languageScopeId open/
// close boundaries at the layer's extent when this layer's language scope
// differs from its parent's, and computes alreadyOpenScopes by replaying
// the resolver's own output strictly before from.
func (l *LanguageLayer) GetSyntaxBoundaries(from, to Point) (*boundaryTree, []ScopeID, error) {
	l.scopeResolver.Reset()

	tree := newBoundaryTree()
	if l.Grammar.SyntaxQuery != nil && l.tree != nil {
		source := []byte(l.mode.buffer.Text())
		root := l.tree.RootNode()

		cursor := tree_sitter.NewQueryCursor()
		defer cursor.Close()
		cursor.SetPointRange(from.toTS(), to.toTS())

		matches := cursor.Matches(l.Grammar.SyntaxQuery, root, source)
		names := l.Grammar.SyntaxQuery.CaptureNames()
		for {
			match := matches.Next()
			if match == nil {
				break
			}
			for _, c := range match.Captures {
				props := propertyMap(l.Grammar.SyntaxQuery.PropertySettings(match.PatternIndex))
				l.scopeResolver.Store(Capture{Name: names[c.Index], Node: c.Node, Properties: props}, nil)
			}
		}
	}

	differsFromParent := l.Parent == nil || l.Parent.languageScopeID != l.languageScopeID
	if differsFromParent {
		extent := l.Extent()
		l.scopeResolver.SetBoundary(extent.Start, l.languageScopeID, true)
		l.scopeResolver.SetBoundary(extent.End, l.languageScopeID, false)
	}

	var alreadyOpen []ScopeID
	open := make(map[ScopeID]bool)
	for _, e := range l.scopeResolver.Boundaries() {
		for _, id := range e.Bundle.OpenScopeIDs {
			if e.Point.isLess(from) {
				open[id] = true
			}
		}
		for _, id := range e.Bundle.CloseScopeIDs {
			if e.Point.isLess(from) {
				delete(open, id)
			}
		}
		if !e.Point.isLess(from) {
			tree.points = append(tree.points, e.Point)
			tree.bundles = append(tree.bundles, e.Bundle)
		}
	}
	for id := range open {
		alreadyOpen = append(alreadyOpen, id)
	}

	return tree, alreadyOpen, nil
}

// ScopeMapAtPosition implements spec.md §4.2's scopeMapAtPosition: captures
// covering [point, point+1-col), adjusted per capture properties, filtered
// to those whose range strictly contains point, sorted biggest-to-smallest.
func (l *LanguageLayer) ScopeMapAtPosition(point Point) []Capture {
	if l.Grammar.SyntaxQuery == nil || l.tree == nil {
		return nil
	}

	to := Point{Row: point.Row, Column: point.Column + 1}
	source := []byte(l.mode.buffer.Text())
	root := l.tree.RootNode()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.SetPointRange(point.toTS(), to.toTS())

	names := l.Grammar.SyntaxQuery.CaptureNames()
	matches := cursor.Matches(l.Grammar.SyntaxQuery, root, source)

	var result []Capture
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			props := propertyMap(l.Grammar.SyntaxQuery.PropertySettings(match.PatternIndex))
			cap := Capture{Name: names[c.Index], Node: c.Node, Properties: props}
			r := cap.Range()
			r.Start = applyOffset(r.Start, props, "start")
			r.End = applyOffset(r.End, props, "end")
			if !point.isLess(r.Start) && point.isLess(r.End) {
				result = append(result, cap)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := result[i].Range(), result[j].Range()
		sizeI := pointDistance(ri.Start, ri.End)
		sizeJ := pointDistance(rj.Start, rj.End)
		return sizeI > sizeJ
	})
	return result
}

func pointDistance(a, b Point) int64 {
	return int64(b.Row-a.Row)*1_000_000 + int64(b.Column) - int64(a.Column)
}

// GetLocalReferencesAtPoint implements spec.md §4.2's
// getLocalReferencesAtPoint.
func (l *LanguageLayer) GetLocalReferencesAtPoint(point Point) []Capture {
	if l.Grammar.LocalsQuery == nil || l.tree == nil {
		return nil
	}

	to := Point{Row: point.Row, Column: point.Column + 1}
	source := []byte(l.mode.buffer.Text())
	root := l.tree.RootNode()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.SetPointRange(point.toTS(), to.toTS())

	names := l.Grammar.LocalsQuery.CaptureNames()
	matches := cursor.Matches(l.Grammar.LocalsQuery, root, source)

	var result []Capture
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			if names[c.Index] != "local.reference" {
				continue
			}
			cap := Capture{Name: names[c.Index], Node: c.Node}
			if cap.Range().ContainsPoint(point) {
				result = append(result, cap)
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		ri, rj := result[i].Range(), result[j].Range()
		sizeI := pointDistance(ri.Start, ri.End)
		sizeJ := pointDistance(rj.Start, rj.End)
		return sizeI > sizeJ
	})
	return result
}

// FindDefinitionForLocalReference implements spec.md §4.2's
// findDefinitionForLocalReference.
func (l *LanguageLayer) FindDefinitionForLocalReference(reference tree_sitter.Node) (tree_sitter.Node, bool) {
	if l.Grammar.LocalsQuery == nil || l.tree == nil {
		return tree_sitter.Node{}, false
	}

	source := []byte(l.mode.buffer.Text())
	root := l.tree.RootNode()
	refRange := rangeFromNode(&reference)
	refText := reference.Utf8Text(source)

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	names := l.Grammar.LocalsQuery.CaptureNames()
	matches := cursor.Matches(l.Grammar.LocalsQuery, root, source)

	type scopeEntry struct {
		r Range
	}
	var scopes []scopeEntry
	type defEntry struct {
		node tree_sitter.Node
		r    Range
	}
	var definitions []defEntry

	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			switch names[c.Index] {
			case "local.scope":
				scopes = append(scopes, scopeEntry{r: rangeFromNode(&c.Node)})
			case "local.definition":
				if c.Node.Utf8Text(source) == refText {
					definitions = append(definitions, defEntry{node: c.Node, r: rangeFromNode(&c.Node)})
				}
			}
		}
	}

	var relevant []scopeEntry
	for _, s := range scopes {
		if s.r.Contains(refRange) {
			relevant = append(relevant, s)
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		return pointDistance(relevant[i].r.Start, relevant[i].r.End) < pointDistance(relevant[j].r.Start, relevant[j].r.End)
	})
	relevant = append(relevant, scopeEntry{r: Range{Start: Point{}, End: maxPoint}})

	var fallback *defEntry
	for _, scope := range relevant {
		var best *defEntry
		for i := range definitions {
			d := definitions[i]
			if !scope.r.Contains(d.r) {
				continue
			}
			if d.r.End.isLessEq(refRange.Start) {
				if best == nil || d.r.Start.isGreater(best.r.Start) {
					dd := d
					best = &dd
				}
			} else if fallback == nil || d.r.Start.isLess(fallback.r.Start) {
				dd := d
				fallback = &dd
			}
		}
		if best != nil {
			return best.node, true
		}
	}

	if fallback != nil {
		return fallback.node, true
	}
	return tree_sitter.Node{}, false
}
