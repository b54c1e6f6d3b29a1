/*
Package languagemode implements the incremental, tree-sitter-backed
language-layer core of a syntax-aware editor mode: it keeps a forest of
parse trees (one root grammar plus any number of nested injected grammars)
in sync with buffer edits and answers highlight, scope, fold, indent and
local-reference queries against that forest.

The package does not read files, does not own a text buffer, and does not
talk to an editor UI — those are modeled as the external collaborator
interfaces in external.go and are supplied by the host.

# Usage

	mode := languagemode.New(rootGrammar, buf, languagemode.Options{})
	mode.BufferDidChange(edit)
	mode.BufferDidFinishTransaction()

	it, _ := mode.BuildHighlightIterator(from, to)
	for {
		event, ok := it.Next()
		if !ok {
			break
		}
		_ = event.Position
		_ = event.ScopeIDs
	}

	scopes := mode.ScopeDescriptorForPosition(languagemode.Point{Row: 3, Column: 4})
	indent := mode.SuggestedIndentForBufferRow(4, 2, languagemode.NewIndentOptions())
*/
package languagemode
