package languagemode

import (
	"os"
	"testing"

	"github.com/pulsar-edit/tree-sitter-languagemode/grammar"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
)

func mustReadQuery(t *testing.T, lang *tree_sitter.Language, path string) *tree_sitter.Query {
	t.Helper()
	source, err := os.ReadFile(path)
	require.NoError(t, err)
	q, err := tree_sitter.NewQuery(lang, string(source))
	require.NoError(t, err)
	return q
}

// newGoGrammar builds a grammar.Grammar for tree-sitter-go wired to this
// module's testdata query fixtures, exercising the same
// tree_sitter.NewLanguage/tree_sitter.NewQuery calls the teacher's own
// highlight_test.go uses.
func newGoGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	lang := tree_sitter.NewLanguage(tree_sitter_go.Language())

	g := grammar.New("source.go", func() (*tree_sitter.Language, error) {
		return lang, nil
	})
	g.SyntaxQuery = mustReadQuery(t, lang, "testdata/highlights.scm")
	g.FoldsQuery = mustReadQuery(t, lang, "testdata/folds.scm")
	g.IndentsQuery = mustReadQuery(t, lang, "testdata/indents.scm")
	g.LocalsQuery = mustReadQuery(t, lang, "testdata/locals.scm")
	return g
}

// newParsedMode builds a LanguageMode over text using the Go test grammar
// and runs the first transaction so the root layer is parsed.
func newParsedMode(t *testing.T, text string) (*LanguageMode, *fakeBuffer) {
	t.Helper()
	buf := newFakeBuffer(text)
	mode := New(newGoGrammar(t), buf, Options{})
	require.NoError(t, mode.BufferDidFinishTransaction())
	return mode, buf
}
