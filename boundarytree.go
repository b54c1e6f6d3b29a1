package languagemode

import "sort"

// scopeBundle is the value stored at one Point in a boundaryTree: the
// scopes that open and the scopes that close exactly at that point, per
// spec.md §3's "Boundary tree" data model entry.
type scopeBundle struct {
	OpenScopeIDs  []ScopeID
	CloseScopeIDs []ScopeID
}

// boundaryEntry is one (point, bundle) pair from an ordered walk of a
// boundaryTree.
type boundaryEntry struct {
	Point  Point
	Bundle scopeBundle
}

// boundaryTree is an ordered map keyed by Point, built once per
// getSyntaxBoundaries call and then walked strictly in increasing-Point
// order. The reference design calls for "a persistent ordered map (red-
// black or similar)"; per spec.md §9's design note a mutable sorted slice
// is an equivalent implementation as long as iteration is stable once all
// captures are ingested, which is all a single getSyntaxBoundaries call
// needs.
type boundaryTree struct {
	points  []Point
	bundles []scopeBundle
}

func newBoundaryTree() *boundaryTree {
	return &boundaryTree{}
}

func (t *boundaryTree) indexFor(p Point) (int, bool) {
	i := sort.Search(len(t.points), func(i int) bool {
		return !t.points[i].isLess(p)
	})
	if i < len(t.points) && t.points[i] == p {
		return i, true
	}
	return i, false
}

func (t *boundaryTree) open(p Point, id ScopeID) {
	i, ok := t.insertAt(p)
	t.bundles[i].OpenScopeIDs = append(t.bundles[i].OpenScopeIDs, id)
	_ = ok
}

func (t *boundaryTree) close(p Point, id ScopeID) {
	i, _ := t.insertAt(p)
	t.bundles[i].CloseScopeIDs = append(t.bundles[i].CloseScopeIDs, id)
}

func (t *boundaryTree) insertAt(p Point) (int, bool) {
	i, found := t.indexFor(p)
	if found {
		return i, true
	}
	t.points = append(t.points, Point{})
	copy(t.points[i+1:], t.points[i:])
	t.points[i] = p

	t.bundles = append(t.bundles, scopeBundle{})
	copy(t.bundles[i+1:], t.bundles[i:])
	t.bundles[i] = scopeBundle{}
	return i, false
}

// entries returns every (point, bundle) pair in increasing Point order.
func (t *boundaryTree) entries() []boundaryEntry {
	out := make([]boundaryEntry, len(t.points))
	for i, p := range t.points {
		out[i] = boundaryEntry{Point: p, Bundle: t.bundles[i]}
	}
	return out
}

func (t *boundaryTree) isEmpty() bool { return len(t.points) == 0 }
