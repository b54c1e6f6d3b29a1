package languagemode

import (
	"strings"
	"testing"

	"github.com/pulsar-edit/tree-sitter-languagemode/grammar"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

type fakeRegistry struct {
	grammars map[string]*grammar.Grammar
}

func (r *fakeRegistry) GrammarForLanguageString(tag string) *grammar.Grammar {
	return r.grammars[tag]
}

type fakeConfigStore struct {
	lineStart, blockStart, blockEnd string
}

func (c *fakeConfigStore) CommentStart(desc []string) (string, bool) {
	if c.lineStart == "" {
		return "", false
	}
	return c.lineStart, true
}

func (c *fakeConfigStore) CommentEnd(desc []string) (string, bool) {
	return c.blockEnd, c.blockEnd != ""
}

func newJSGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()
	lang := tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	g := grammar.New("source.js", func() (*tree_sitter.Language, error) {
		return lang, nil
	})
	return g
}

func TestScopeDescriptorForPositionIncludesGrammarAndCaptureNames(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n")

	names := mode.ScopeDescriptorForPosition(Point{Row: 2, Column: 5})
	require.Contains(t, names, "source.go")
	require.Contains(t, names, "function")
}

func TestSyntaxTreeScopeDescriptorForPositionOrdersOutermostFirst(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n")

	names := mode.SyntaxTreeScopeDescriptorForPosition(Point{Row: 3, Column: 2})
	require.NotEmpty(t, names)
	require.Equal(t, "source_file", names[0])
}

func TestGetSyntaxNodeAtPositionSmallestWins(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n")

	node, ok := mode.GetSyntaxNodeAtPosition(Point{Row: 2, Column: 5}, nil)
	require.True(t, ok)
	require.NotEqual(t, "source_file", node.Type())
}

func TestGetSyntaxNodeContainingRangePredicateFilters(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n")

	r := Range{Start: Point{Row: 3, Column: 1}, End: Point{Row: 3, Column: 9}}
	node, ok := mode.GetSyntaxNodeContainingRange(r, func(n tree_sitter.Node, g *grammar.Grammar) bool {
		return n.Type() == "function_declaration"
	})
	require.True(t, ok)
	require.Equal(t, "function_declaration", node.Type())
}

func TestBufferRangeForScopeAtPositionFindsNamedCapture(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n")

	r, ok := mode.BufferRangeForScopeAtPosition(func(name string) bool {
		return name == "function"
	}, Point{Row: 2, Column: 5})
	require.True(t, ok)
	require.Equal(t, uint(2), r.Start.Row)
}

func TestGetFoldableRangesAndIsFoldableAtRow(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n")

	ranges := mode.GetFoldableRanges()
	require.Len(t, ranges, 1)

	require.True(t, mode.IsFoldableAtRow(2))
	require.False(t, mode.IsFoldableAtRow(3))

	r, ok := mode.GetFoldableRangeContainingPoint(Point{Row: 2, Column: 0})
	require.True(t, ok)
	require.Equal(t, ranges[0], r)
}

func TestGetFoldableRangesAtIndentLevelNestedFolds(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\tif a > 0 {\n\t\treturn a\n\t}\n\treturn -a\n}\n\nfunc sub(a int) int {\n\treturn -a\n}\n")

	// Two sibling function folds, each contained in zero other folds.
	level0 := mode.GetFoldableRangesAtIndentLevel(0)
	require.Len(t, level0, 2)

	// The if-block fold is contained in exactly one other fold (add's body).
	level1 := mode.GetFoldableRangesAtIndentLevel(1)
	require.Len(t, level1, 1)
	require.Equal(t, uint(3), level1[0].Start.Row)
}

func TestClassNameAndScopeNameRoundTrip(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n")

	id := mode.GetOrCreateScopeID("keyword.control")
	require.Equal(t, "keyword.control", mode.ScopeNameForScopeID(id))
	require.Equal(t, "syntax--keyword syntax--control", mode.ClassNameForScopeID(id))
}

func TestCommentStringsForPositionFallsBackToConfigStore(t *testing.T) {
	buf := newFakeBuffer("package main\n")
	cfg := &fakeConfigStore{lineStart: "//"}
	mode := New(newGoGrammar(t), buf, Options{ConfigStore: cfg})
	require.NoError(t, mode.BufferDidFinishTransaction())

	line, _, _, ok := mode.CommentStringsForPosition(Point{Row: 0, Column: 0})
	require.True(t, ok)
	require.Equal(t, "//", line)
}

func TestBufferDidFinishTransactionCreatesInjectionLayer(t *testing.T) {
	jsGrammar := newJSGrammar(t)
	goGrammar := newGoGrammar(t)
	goGrammar.InjectionPoints = []grammar.InjectionPoint{
		{
			Type: "raw_string_literal",
			Language: func(n *tree_sitter.Node, source []byte) string {
				text := n.Utf8Text(source)
				if strings.Contains(text, "js!") {
					return "javascript"
				}
				return ""
			},
			Content: func(n *tree_sitter.Node) []tree_sitter.Node {
				return []tree_sitter.Node{*n}
			},
			IncludeChildren: true,
		},
	}

	registry := &fakeRegistry{grammars: map[string]*grammar.Grammar{"javascript": jsGrammar}}
	buf := newFakeBuffer("package main\n\nvar x = `js! 1`\n")
	mode := New(goGrammar, buf, Options{Registry: registry})
	require.NoError(t, mode.BufferDidFinishTransaction())

	layers := mode.layers()
	require.Len(t, layers, 2)
	require.Equal(t, "source.js", layers[1].Grammar.ScopeName)
	require.Equal(t, 1, layers[1].Depth)

	names := mode.ScopeDescriptorForPosition(Point{Row: 2, Column: 11})
	require.Contains(t, names, "source.js")
}
