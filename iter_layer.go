package languagemode

// LayerHighlightIterator walks one LanguageLayer's boundary tree in
// increasing-Point order, per spec.md §4.4. Each boundaryTree entry bundles
// both the scopes that close and the scopes that open at its Point; this
// iterator splits that bundle into two discrete "phases" (close, then
// open) so that HighlightIterator can interleave it against other layers'
// events at a finer grain than whole-entry.
type LayerHighlightIterator struct {
	layer *LanguageLayer

	entries []boundaryEntry
	index   int
	phase   eventPhase

	// AlreadyOpenScopes is seeded from LanguageLayer.GetSyntaxBoundaries:
	// the scopes that were open strictly before the iteration start point,
	// exposed for a caller that needs to know the full open-scope stack at
	// the very first position. HighlightIterator does not read or report
	// them.
	AlreadyOpenScopes []ScopeID
}

type eventPhase int

const (
	phaseClose eventPhase = iota
	phaseOpen
	phaseDone
)

// NewLayerHighlightIterator runs layer's syntax query over [from, to) and
// seeds an iterator positioned at the first boundary at or after from.
func NewLayerHighlightIterator(layer *LanguageLayer, from, to Point) (*LayerHighlightIterator, error) {
	tree, alreadyOpen, err := layer.GetSyntaxBoundaries(from, to)
	if err != nil {
		return nil, err
	}
	it := &LayerHighlightIterator{
		layer:             layer,
		entries:           tree.entries(),
		AlreadyOpenScopes: alreadyOpen,
	}
	it.settlePhase()
	return it, nil
}

// settlePhase advances index/phase past any entry whose current phase's
// scope list is empty, so Done/Position/ScopeIDs never observe an empty
// emission.
func (it *LayerHighlightIterator) settlePhase() {
	for it.index < len(it.entries) {
		bundle := it.entries[it.index].Bundle
		switch it.phase {
		case phaseClose:
			if len(bundle.CloseScopeIDs) > 0 {
				return
			}
			it.phase = phaseOpen
		case phaseOpen:
			if len(bundle.OpenScopeIDs) > 0 {
				return
			}
			it.index++
			it.phase = phaseClose
		}
	}
	it.phase = phaseDone
}

// Done reports whether this layer has no more boundary events.
func (it *LayerHighlightIterator) Done() bool {
	return it.phase == phaseDone
}

// Position returns the Point of the current pending event.
func (it *LayerHighlightIterator) Position() Point {
	return it.entries[it.index].Point
}

// IsClose reports whether the current pending event is a close-phase event.
func (it *LayerHighlightIterator) IsClose() bool {
	return it.phase == phaseClose
}

// ScopeIDs returns the scope ids belonging to the current pending event.
func (it *LayerHighlightIterator) ScopeIDs() []ScopeID {
	bundle := it.entries[it.index].Bundle
	if it.phase == phaseClose {
		return bundle.CloseScopeIDs
	}
	return bundle.OpenScopeIDs
}

// Advance consumes the current pending event and moves to the next one.
func (it *LayerHighlightIterator) Advance() {
	if it.phase == phaseDone {
		return
	}
	if it.phase == phaseClose {
		it.phase = phaseOpen
	} else {
		it.index++
		it.phase = phaseClose
	}
	it.settlePhase()
}

// Depth is this iterator's layer depth (0 for the root layer), used by
// HighlightIterator's shallower-layer-wins tie-break.
func (it *LayerHighlightIterator) Depth() int {
	return it.layer.Depth
}

// CoversShallowerScopes reports whether this layer opted into spec.md
// §4.4/§9's "cover shallower scopes" rule via its injection point.
func (it *LayerHighlightIterator) CoversShallowerScopes() bool {
	return it.layer.InjectionPoint != nil && it.layer.InjectionPoint.CoverShallowerScopes
}
