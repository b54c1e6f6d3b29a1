package languagemode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultScopeResolverStoreOrdersBoundaries(t *testing.T) {
	source := "package main\n\nfunc add(a int) int {\n\treturn a\n}\n"
	tree, src := parseGoSource(t, source)
	defer tree.Close()

	names := []ScopeID{}
	next := ScopeID(300)
	byName := map[string]ScopeID{}
	scopeID := func(name string) ScopeID {
		if id, ok := byName[name]; ok {
			return id
		}
		id := next
		next += 2
		byName[name] = id
		names = append(names, id)
		return id
	}

	resolver := NewDefaultScopeResolver(scopeID)

	fn, ok := findFirstNodeOfType(tree.RootNode(), "function_declaration")
	require.True(t, ok)
	name, ok := findFirstNodeOfType(fn, "identifier")
	require.True(t, ok)

	_, stored := resolver.Store(Capture{Name: "function", Node: fn}, nil)
	require.True(t, stored)
	_, stored = resolver.Store(Capture{Name: "variable", Node: name}, nil)
	require.True(t, stored)

	entries := resolver.Boundaries()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		require.False(t, entries[i].Point.isLess(entries[i-1].Point))
	}
	_ = src
}

func TestDefaultScopeResolverRejectsInvalidCapture(t *testing.T) {
	source := "package main\n"
	tree, _ := parseGoSource(t, source)
	defer tree.Close()

	scopeID := func(name string) ScopeID { return 301 }
	resolver := NewDefaultScopeResolver(scopeID)

	_, stored := resolver.Store(Capture{
		Name:       "comment",
		Node:       tree.RootNode(),
		Properties: map[string]string{"invalid": "true"},
	}, nil)
	require.False(t, stored)
	require.Empty(t, resolver.Boundaries())
}

func TestDefaultScopeResolverDedupesIdenticalBoundary(t *testing.T) {
	source := "package main\n"
	tree, _ := parseGoSource(t, source)
	defer tree.Close()

	resolver := NewDefaultScopeResolver(func(name string) ScopeID { return 303 })
	root := tree.RootNode()

	resolver.SetBoundary(Point{Row: 0, Column: 0}, 303, true)
	resolver.SetBoundary(Point{Row: 0, Column: 0}, 303, true)
	_ = root

	entries := resolver.Boundaries()
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Bundle.OpenScopeIDs, 1)
}

func TestDefaultScopeResolverResetClearsState(t *testing.T) {
	resolver := NewDefaultScopeResolver(func(name string) ScopeID { return 305 })
	resolver.SetBoundary(Point{Row: 1, Column: 0}, 305, true)
	require.NotEmpty(t, resolver.Boundaries())

	resolver.Reset()
	require.Empty(t, resolver.Boundaries())
}
