package languagemode

import (
	"math"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeRangeSet computes the disjoint buffer ranges fed to an injected
// layer's parser, per spec.md §4.6. It is grounded on the reference
// design's intersectRanges helper, which the teacher package carries
// verbatim at highlight.go:753 (intersectRanges) and highlight.go:851
// (injectionForMatch); the logic here generalizes the same child-exclusion
// and parent-range-intersection walk into an independently testable type
// rather than a function buried inside the highlight iterator.
type NodeRangeSet struct {
	parent          []tree_sitter.Range
	nodes           []tree_sitter.Node
	newlinesBetween bool
	includeChildren bool
}

// NewNodeRangeSet builds a NodeRangeSet. parent is the enclosing layer's
// already-resolved ranges (nil for a top-level injection whose parent is
// the whole buffer).
func NewNodeRangeSet(parent []tree_sitter.Range, nodes []tree_sitter.Node, newlinesBetween, includeChildren bool) *NodeRangeSet {
	return &NodeRangeSet{
		parent:          parent,
		nodes:           nodes,
		newlinesBetween: newlinesBetween,
		includeChildren: includeChildren,
	}
}

var wholeBufferRange = tree_sitter.Range{
	StartByte:  0,
	StartPoint: tree_sitter.Point{Row: 0, Column: 0},
	EndByte:    math.MaxUint32,
	EndPoint:   tree_sitter.Point{Row: math.MaxUint32, Column: math.MaxUint32},
}

// GetRanges computes the ranges to pass to Parser.SetIncludedRanges.
// Returns nil if the node set resolves to no content at all, per spec.md
// §4.2 step 2 ("a non-null set resolves to empty" destroys the layer).
func (s *NodeRangeSet) GetRanges() []tree_sitter.Range {
	if len(s.nodes) == 0 {
		return nil
	}

	parentRanges := s.parent
	if len(parentRanges) == 0 {
		parentRanges = []tree_sitter.Range{wholeBufferRange}
	}

	ranges := intersectNodeRanges(parentRanges, s.nodes, s.includeChildren)
	if s.newlinesBetween {
		ranges = withSyntheticNewlines(ranges)
	}
	return ranges
}

// intersectNodeRanges computes, for each node, the sub-ranges of its own
// extent (excluding named children's extents unless includeChildren is
// set), intersected in order against parentRanges.
func intersectNodeRanges(parentRanges []tree_sitter.Range, nodes []tree_sitter.Node, includeChildren bool) []tree_sitter.Range {
	if len(nodes) == 0 || len(parentRanges) == 0 {
		return nil
	}

	var results []tree_sitter.Range
	parentRange := parentRanges[0]
	parentRanges = parentRanges[1:]

	for _, node := range nodes {
		precedingRange := tree_sitter.Range{
			StartByte:  0,
			StartPoint: tree_sitter.Point{Row: 0, Column: 0},
			EndByte:    node.StartByte(),
			EndPoint:   node.StartPosition(),
		}
		followingRange := tree_sitter.Range{
			StartByte:  node.EndByte(),
			StartPoint: node.EndPosition(),
			EndByte:    math.MaxUint32,
			EndPoint:   tree_sitter.Point{Row: math.MaxUint32, Column: math.MaxUint32},
		}

		var excludedRanges []tree_sitter.Range
		if !includeChildren {
			cursor := node.Walk()
			if cursor.GotoFirstChild() {
				for {
					child := cursor.Node()
					if child.IsNamed() {
						excludedRanges = append(excludedRanges, tree_sitter.Range{
							StartByte:  child.StartByte(),
							StartPoint: child.StartPosition(),
							EndByte:    child.EndByte(),
							EndPoint:   child.EndPosition(),
						})
					}
					if !cursor.GotoNextSibling() {
						break
					}
				}
			}
		}
		excludedRanges = append(excludedRanges, followingRange)

		for _, excluded := range excludedRanges {
			r := tree_sitter.Range{
				StartByte:  precedingRange.EndByte,
				StartPoint: precedingRange.EndPoint,
				EndByte:    excluded.StartByte,
				EndPoint:   excluded.StartPoint,
			}
			precedingRange = excluded

			if r.EndByte < parentRange.StartByte {
				continue
			}

			for parentRange.StartByte <= r.EndByte {
				if parentRange.EndByte > r.StartByte {
					if r.StartByte < parentRange.StartByte {
						r.StartByte = parentRange.StartByte
						r.StartPoint = parentRange.StartPoint
					}

					if parentRange.EndByte < r.EndByte {
						if r.StartByte < parentRange.EndByte {
							results = append(results, tree_sitter.Range{
								StartByte:  r.StartByte,
								StartPoint: r.StartPoint,
								EndByte:    parentRange.EndByte,
								EndPoint:   parentRange.EndPoint,
							})
						}
						r.StartByte = parentRange.EndByte
						r.StartPoint = parentRange.EndPoint
					} else {
						if r.StartByte < r.EndByte {
							results = append(results, r)
						}
						break
					}
				}

				if len(parentRanges) > 0 {
					parentRange = parentRanges[0]
					parentRanges = parentRanges[1:]
				} else {
					return results
				}
			}
		}
	}

	return results
}

// withSyntheticNewlines inserts a one-character range standing in for a
// newline between any two consecutive ranges separated by a row, so that
// an injected parser sees contiguous line numbers across the gaps removed
// by intersectNodeRanges (spec.md §4.6).
func withSyntheticNewlines(ranges []tree_sitter.Range) []tree_sitter.Range {
	if len(ranges) == 0 {
		return ranges
	}

	result := make([]tree_sitter.Range, 0, len(ranges))
	var previous *tree_sitter.Range
	for i := range ranges {
		r := ranges[i]
		if previous != nil && previous.EndPoint.Row < r.StartPoint.Row {
			result = append(result, tree_sitter.Range{
				StartByte:  previous.EndByte,
				StartPoint: previous.EndPoint,
				EndByte:    previous.EndByte + 1,
				EndPoint:   tree_sitter.Point{Row: previous.EndPoint.Row + 1, Column: 0},
			})
		}
		result = append(result, r)
		previous = &ranges[i]
	}
	return result
}
