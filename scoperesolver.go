package languagemode

import "strconv"

// ScopeResolver is the external collaborator described in spec.md §4.5: it
// consumes a stream of query captures and emits a deterministic ordered
// sequence of (point, open-ids, close-ids) boundary events. The core only
// specifies the interface; DefaultScopeResolver below is a concrete
// implementation grounded on the scope-stack bookkeeping the teacher
// package inlines directly into its highlight iterator (iter.go's
// ScopeStack/localDef/localScope handling) — lifted out here into its own,
// independently swappable collaborator as spec.md §4.5 asks for.
type ScopeResolver interface {
	// Store records capture, resolving its effective range (after any
	// property-driven adjustment) and interning its scope name via
	// overrideID if non-nil, or the capture's own Name otherwise. Returns
	// the effective range and true, or a zero Range and false if the
	// capture was rejected (e.g. filtered by a property predicate).
	Store(capture Capture, overrideID *ScopeID) (Range, bool)
	// SetBoundary injects a synthetic boundary not backed by any capture,
	// used by LanguageLayer to open/close a layer's own languageScopeId at
	// its extent (spec.md §4.2).
	SetBoundary(p Point, id ScopeID, open bool)
	// Reset clears all internal state, readying the resolver for a new
	// getSyntaxBoundaries call.
	Reset()
	// Boundaries returns the accumulated events in increasing-Point order;
	// it does not clear them (Reset does).
	Boundaries() []boundaryEntry
}

// DefaultScopeResolver is the reference ScopeResolver: it dedupes
// boundaries at identical (point, id, side), applies simple signed
// row/column offsets carried as capture properties ("start.offset.row",
// "start.offset.column", "end.offset.row", "end.offset.column"), and
// rejects any capture whose property bag sets "invalid" to "true" (the
// hook a predicate-evaluation layer in front of this resolver would use to
// flag a failed #eq?/#match? check).
type DefaultScopeResolver struct {
	scopeID func(name string) ScopeID
	tree    *boundaryTree
	seen    map[seenKey]bool
}

type seenKey struct {
	p    Point
	id   ScopeID
	open bool
}

// NewDefaultScopeResolver builds a DefaultScopeResolver that interns scope
// names through scopeID (typically LanguageMode.GetOrCreateScopeID).
func NewDefaultScopeResolver(scopeID func(name string) ScopeID) *DefaultScopeResolver {
	return &DefaultScopeResolver{
		scopeID: scopeID,
		tree:    newBoundaryTree(),
		seen:    make(map[seenKey]bool),
	}
}

func (r *DefaultScopeResolver) Store(capture Capture, overrideID *ScopeID) (Range, bool) {
	if capture.Properties != nil && capture.Properties["invalid"] == "true" {
		return Range{}, false
	}

	rng := capture.Range()
	rng.Start = applyOffset(rng.Start, capture.Properties, "start")
	rng.End = applyOffset(rng.End, capture.Properties, "end")
	if !rng.Start.isLess(rng.End) {
		return Range{}, false
	}

	id := r.scopeID(capture.Name)
	if overrideID != nil {
		id = *overrideID
	}

	r.emit(rng.Start, id, true)
	r.emit(rng.End, id, false)
	return rng, true
}

func (r *DefaultScopeResolver) SetBoundary(p Point, id ScopeID, open bool) {
	r.emit(p, id, open)
}

func (r *DefaultScopeResolver) emit(p Point, id ScopeID, open bool) {
	key := seenKey{p: p, id: id, open: open}
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	if open {
		r.tree.open(p, id)
	} else {
		r.tree.close(p, id)
	}
}

func (r *DefaultScopeResolver) Reset() {
	r.tree = newBoundaryTree()
	r.seen = make(map[seenKey]bool)
}

func (r *DefaultScopeResolver) Boundaries() []boundaryEntry {
	return r.tree.entries()
}

// applyOffset adjusts p by the signed "<side>.offset.row"/"<side>.offset.column"
// properties, if present, clamping row/column at zero.
func applyOffset(p Point, props map[string]string, side string) Point {
	if props == nil {
		return p
	}
	if v, ok := props[side+".offset.row"]; ok {
		if d, err := strconv.Atoi(v); err == nil {
			p.Row = addClamped(p.Row, d)
		}
	}
	if v, ok := props[side+".offset.column"]; ok {
		if d, err := strconv.Atoi(v); err == nil {
			p.Column = addClamped(p.Column, d)
		}
	}
	return p
}

func addClamped(u uint, d int) uint {
	if d >= 0 {
		return u + uint(d)
	}
	dec := uint(-d)
	if dec > u {
		return 0
	}
	return u - dec
}
