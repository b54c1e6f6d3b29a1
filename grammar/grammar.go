// Package grammar defines the external Grammar handle consumed by
// languagemode.LanguageLayer, mirroring the teacher package's small
// language.Language leaf type but widened to also carry the fold/indent/
// locals queries and injection-point descriptors spec.md §3 requires.
package grammar

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// InjectionPoint is a rule attached to a grammar saying "nodes of type Type
// may introduce an injection of language Language(node) over content
// Content(node)", per spec.md §3.
type InjectionPoint struct {
	// Type is the tree-sitter node kind this rule matches against.
	Type string
	// Language reports the injected language tag for a candidate node, or
	// "" if this node does not introduce an injection.
	Language func(node *tree_sitter.Node, source []byte) string
	// Content reports the node(s) whose text is fed to the injected parser,
	// or nil if this node does not introduce an injection.
	Content func(node *tree_sitter.Node) []tree_sitter.Node
	// NewlinesBetween asks NodeRangeSet to synthesize a one-character
	// newline range between consecutive content ranges on different rows.
	NewlinesBetween bool
	// IncludeChildren includes named children's text in the injected
	// range set instead of carving them out.
	IncludeChildren bool
	// CoverShallowerScopes opts this injection point into the "cover
	// shallower scopes" highlight-iterator rule (spec.md §4.4, §9).
	CoverShallowerScopes bool
}

// CommentStrings are the line/block comment delimiters a grammar declares
// for itself, used as the first fallback tier by
// LanguageMode.CommentStringsForPosition.
type CommentStrings struct {
	LineStart  string
	BlockStart string
	BlockEnd   string
}

// languageLoader lazily resolves and memoizes a language binary, modeling
// spec.md §3's "language-binary future".
type languageLoader struct {
	once sync.Once
	fn   func() (*tree_sitter.Language, error)
	lang *tree_sitter.Language
	err  error
}

func (l *languageLoader) get() (*tree_sitter.Language, error) {
	l.once.Do(func() {
		l.lang, l.err = l.fn()
	})
	return l.lang, l.err
}

// Grammar is the compiled-query bundle for one tree-sitter language, as
// described by spec.md §3. A Grammar may omit any non-syntax query; queries
// are stored pre-compiled here (query compilation itself is out of this
// module's scope, per spec.md §1 Non-goals).
type Grammar struct {
	ScopeName       string
	CommentStrings  CommentStrings
	InjectionPoints []InjectionPoint

	SyntaxQuery  *tree_sitter.Query
	FoldsQuery   *tree_sitter.Query
	IndentsQuery *tree_sitter.Query
	LocalsQuery  *tree_sitter.Query

	loader *languageLoader
}

// New builds a Grammar whose language binary is resolved lazily the first
// time Language is called, matching spec.md §3's "language-binary future"
// and §5's "initial root-language binary load (one-shot)".
func New(scopeName string, languageFn func() (*tree_sitter.Language, error)) *Grammar {
	return &Grammar{
		ScopeName: scopeName,
		loader:    &languageLoader{fn: languageFn},
	}
}

// Language resolves (and memoizes) the language binary.
func (g *Grammar) Language() (*tree_sitter.Language, error) {
	lang, err := g.loader.get()
	if err != nil {
		return nil, fmt.Errorf("grammar %q: loading language binary: %w", g.ScopeName, err)
	}
	return lang, nil
}

// InjectionPointsByType indexes InjectionPoints by node type for the
// descendantsOfType scan LanguageLayer.populateInjections performs.
func (g *Grammar) InjectionPointsByType() map[string][]InjectionPoint {
	byType := make(map[string][]InjectionPoint, len(g.InjectionPoints))
	for _, ip := range g.InjectionPoints {
		byType[ip.Type] = append(byType[ip.Type], ip)
	}
	return byType
}
