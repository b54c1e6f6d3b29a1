package languagemode

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// resolveNodeDescriptor walks a dot-separated chain of node-navigation
// steps (e.g. "firstNamedChild.endPosition") against node, per spec.md
// §6's "node-descriptor mini-language". Every step but the last must be a
// navigation step; the last step may be either a navigation step (in which
// case the resulting node is returned) or a position accessor (in which
// case the resulting point is returned). Any nil intermediate breaks the
// chain and resolveNodeDescriptor returns (nil, nil, false).
func resolveNodeDescriptor(node *tree_sitter.Node, path string) (resultNode *tree_sitter.Node, resultPoint *Point, ok bool) {
	if path == "" || node == nil {
		return nil, nil, false
	}

	cur := *node
	steps := strings.Split(path, ".")
	for i, step := range steps {
		last := i == len(steps)-1

		switch step {
		case "firstChild":
			if cur.ChildCount() == 0 {
				return nil, nil, false
			}
			cur = cur.Child(0)
		case "lastChild":
			n := cur.ChildCount()
			if n == 0 {
				return nil, nil, false
			}
			cur = cur.Child(n - 1)
		case "firstNamedChild":
			if cur.NamedChildCount() == 0 {
				return nil, nil, false
			}
			cur = cur.NamedChild(0)
		case "lastNamedChild":
			n := cur.NamedChildCount()
			if n == 0 {
				return nil, nil, false
			}
			cur = cur.NamedChild(n - 1)
		case "parent":
			p := cur.Parent()
			if p == nil {
				return nil, nil, false
			}
			cur = *p
		case "nextSibling":
			s := cur.NextSibling()
			if s == nil {
				return nil, nil, false
			}
			cur = *s
		case "previousSibling":
			s := cur.PrevSibling()
			if s == nil {
				return nil, nil, false
			}
			cur = *s
		case "startPosition":
			if !last {
				return nil, nil, false
			}
			p := pointFromTS(cur.StartPosition())
			return &cur, &p, true
		case "endPosition":
			if !last {
				return nil, nil, false
			}
			p := pointFromTS(cur.EndPosition())
			return &cur, &p, true
		default:
			return nil, nil, false
		}
	}

	return &cur, nil, true
}
