package languagemode

import "testing"

import "github.com/stretchr/testify/require"

func TestBoundaryTreeOrdersByPoint(t *testing.T) {
	tree := newBoundaryTree()
	require.True(t, tree.isEmpty())

	tree.open(Point{Row: 2, Column: 0}, ScopeID(10))
	tree.open(Point{Row: 0, Column: 0}, ScopeID(11))
	tree.close(Point{Row: 1, Column: 5}, ScopeID(11))
	tree.open(Point{Row: 1, Column: 5}, ScopeID(12))

	entries := tree.entries()
	require.Len(t, entries, 3)
	require.Equal(t, Point{Row: 0, Column: 0}, entries[0].Point)
	require.Equal(t, []ScopeID{11}, entries[0].Bundle.OpenScopeIDs)

	require.Equal(t, Point{Row: 1, Column: 5}, entries[1].Point)
	require.Equal(t, []ScopeID{11}, entries[1].Bundle.CloseScopeIDs)
	require.Equal(t, []ScopeID{12}, entries[1].Bundle.OpenScopeIDs)

	require.Equal(t, Point{Row: 2, Column: 0}, entries[2].Point)
	require.Equal(t, []ScopeID{10}, entries[2].Bundle.OpenScopeIDs)
}
