package languagemode

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// Capture is a single query match binding, per spec.md §3: a capture name,
// the node it was bound to, and any property bag set on the pattern that
// produced it (via #set! in the query source).
type Capture struct {
	Name       string
	Node       tree_sitter.Node
	Properties map[string]string
}

// Range returns the buffer range of the captured node.
func (c Capture) Range() Range {
	return rangeFromNode(&c.Node)
}
