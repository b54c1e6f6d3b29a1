package languagemode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLayerHighlightIteratorWalksInOrder(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n")

	it, err := NewLayerHighlightIterator(mode.rootLayer, Point{Row: 0, Column: 0}, Point{Row: 4, Column: 1})
	require.NoError(t, err)
	require.NotNil(t, it)

	var positions []Point
	for !it.Done() {
		positions = append(positions, it.Position())
		it.Advance()
	}
	require.NotEmpty(t, positions)
	for i := 1; i < len(positions); i++ {
		require.False(t, positions[i].isLess(positions[i-1]))
	}
}

func TestLayerHighlightIteratorCloseBeforeOpenAtSamePoint(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n\nfunc add(a int) int {\n\treturn a\n}\n\nfunc sub(a int) int {\n\treturn -a\n}\n")

	it, err := NewLayerHighlightIterator(mode.rootLayer, Point{Row: 0, Column: 0}, Point{Row: 8, Column: 1})
	require.NoError(t, err)

	type step struct {
		pos     Point
		isClose bool
	}
	var steps []step
	for !it.Done() {
		steps = append(steps, step{pos: it.Position(), isClose: it.IsClose()})
		it.Advance()
	}

	for i := 1; i < len(steps); i++ {
		if steps[i].pos == steps[i-1].pos && steps[i].isClose != steps[i-1].isClose {
			require.True(t, steps[i-1].isClose, "close-phase must be emitted before open-phase at a shared point")
		}
	}
}

func TestLayerHighlightIteratorDepthMatchesLayer(t *testing.T) {
	mode, _ := newParsedMode(t, "package main\n")
	it, err := NewLayerHighlightIterator(mode.rootLayer, Point{}, Point{Row: 1, Column: 0})
	require.NoError(t, err)
	require.Equal(t, 0, it.Depth())
	require.False(t, it.CoversShallowerScopes())
}
