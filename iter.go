package languagemode

import "sort"

// HighlightEvent is one step of a HighlightIterator: either a close-phase
// event (ScopeIDs end at Position) or an open-phase event (ScopeIDs begin
// at Position), never both — matching LayerHighlightIterator's own
// close-then-open phase split.
type HighlightEvent struct {
	Position Point
	IsClose  bool
	ScopeIDs []ScopeID
}

// HighlightIterator merges the boundary streams of every LanguageLayer
// covering a buffer range into one ordered event stream, per spec.md §4.4.
// It is grounded on the teacher package's layer-merging highlight iterator
// (highlight.go's sortLayers/insertLayer and iter_layer.go's sortKey),
// generalized from that package's single flat capture stream into the
// close/open phase split spec.md §3's boundary tree model calls for.
//
// Ordering contract (spec.md §4.4): events are ordered by Position first;
// at equal Position, close-phase events precede open-phase events (closing
// before opening at a shared boundary preserves nesting); among events at
// the same Position and phase, the shallower layer is emitted first.
//
// Cover-shallower rule (spec.md §4.4, opt-in per injection point via
// CoverShallowerScopes): before emitting an iterator's event, check every
// other still-active iterator that is shallower and whose own
// CoverShallowerScopes is set — if the emitting iterator's position lies
// strictly inside that shallower iterator's layer extent, the emitting
// iterator's event is suppressed for this step (advanced but not reported)
// rather than replacing the shallower layer's scopes, since spec.md §4.4
// names the *leader's* lists as what gets suppressed, not the shallower
// iterator's.
type HighlightIterator struct {
	layers []*LayerHighlightIterator
}

// NewHighlightIterator builds a HighlightIterator over layers, which should
// contain one LayerHighlightIterator per LanguageLayer intersecting the
// requested range (root layer first, injections in any order).
func NewHighlightIterator(layers []*LayerHighlightIterator) *HighlightIterator {
	return &HighlightIterator{layers: layers}
}

// Next returns the next merged event, combining every layer whose next
// pending event shares the same (Position, phase), in layer-precedence
// order, skipping any event fully suppressed by the cover-shallower rule.
// Returns ok == false once every layer is exhausted.
func (h *HighlightIterator) Next() (HighlightEvent, bool) {
	for {
		var best *LayerHighlightIterator
		for _, it := range h.layers {
			if it.Done() {
				continue
			}
			if best == nil || layerEventLess(it, best) {
				best = it
			}
		}
		if best == nil {
			return HighlightEvent{}, false
		}

		pos := best.Position()
		isClose := best.IsClose()

		var matching []*LayerHighlightIterator
		for _, it := range h.layers {
			if !it.Done() && it.Position() == pos && it.IsClose() == isClose {
				matching = append(matching, it)
			}
		}
		sort.SliceStable(matching, func(i, j int) bool {
			return layerEventLess(matching[i], matching[j])
		})

		var ids []ScopeID
		for _, it := range matching {
			if !h.isSuppressed(it, pos) {
				ids = append(ids, it.ScopeIDs()...)
			}
			it.Advance()
		}

		if len(ids) > 0 {
			return HighlightEvent{Position: pos, IsClose: isClose, ScopeIDs: ids}, true
		}
		// Every matching iterator was suppressed this step; loop to find
		// the next candidate event instead of reporting an empty one.
	}
}

// isSuppressed reports whether leader's event at pos should be dropped
// because a shallower, still-active iterator opted into covering it.
func (h *HighlightIterator) isSuppressed(leader *LayerHighlightIterator, pos Point) bool {
	for _, other := range h.layers {
		if other == leader || other.Done() {
			continue
		}
		if other.Depth() >= leader.Depth() {
			continue
		}
		if !other.CoversShallowerScopes() {
			continue
		}
		extent := other.layer.Extent()
		if extent.Start.isLess(pos) && pos.isLess(extent.End) {
			return true
		}
	}
	return false
}

// layerEventLess reports whether a's pending event precedes b's pending
// event under the ordering contract documented on HighlightIterator.
func layerEventLess(a, b *LayerHighlightIterator) bool {
	pa, pb := a.Position(), b.Position()
	if pa != pb {
		return pa.isLess(pb)
	}

	ac, bc := a.IsClose(), b.IsClose()
	if ac != bc {
		return ac
	}

	return a.Depth() < b.Depth()
}
