package languagemode

import "testing"

import "github.com/stretchr/testify/require"

func TestPointCompare(t *testing.T) {
	require.Equal(t, -1, Point{Row: 1, Column: 0}.Compare(Point{Row: 2, Column: 0}))
	require.Equal(t, 1, Point{Row: 2, Column: 0}.Compare(Point{Row: 1, Column: 5}))
	require.Equal(t, -1, Point{Row: 1, Column: 0}.Compare(Point{Row: 1, Column: 1}))
	require.Equal(t, 0, Point{Row: 3, Column: 4}.Compare(Point{Row: 3, Column: 4}))
}

func TestRangeContainsPoint(t *testing.T) {
	r := Range{Start: Point{Row: 1, Column: 0}, End: Point{Row: 3, Column: 0}}
	require.True(t, r.ContainsPoint(Point{Row: 1, Column: 0}))
	require.True(t, r.ContainsPoint(Point{Row: 2, Column: 5}))
	require.False(t, r.ContainsPoint(Point{Row: 3, Column: 0}))
	require.True(t, r.ContainsPointInclusive(Point{Row: 3, Column: 0}))
	require.False(t, r.ContainsPoint(Point{Row: 0, Column: 9}))
}

func TestRangeContains(t *testing.T) {
	outer := Range{Start: Point{Row: 0, Column: 0}, End: Point{Row: 10, Column: 0}}
	inner := Range{Start: Point{Row: 1, Column: 0}, End: Point{Row: 2, Column: 0}}
	require.True(t, outer.Contains(inner))
	require.True(t, outer.StrictlyContains(inner))
	require.False(t, inner.StrictlyContains(outer))
	require.True(t, outer.Contains(outer))
	require.False(t, outer.StrictlyContains(outer))
}
