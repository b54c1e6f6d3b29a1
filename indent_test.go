package languagemode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndentLevelForLineTabsAndSpaces(t *testing.T) {
	require.Equal(t, 0.0, indentLevelForLine("", 4))
	require.Equal(t, 1.0, indentLevelForLine("\tfoo", 4))
	require.Equal(t, 2.0, indentLevelForLine("        foo", 4))
	require.Equal(t, 0.5, indentLevelForLine("  foo", 4))
}

func TestSuggestedIndentForBufferRowIndentsAfterOpenBrace(t *testing.T) {
	mode, _ := newParsedMode(t, "{\n")
	got := mode.SuggestedIndentForBufferRow(1, 4, NewIndentOptions())
	require.Equal(t, 1, got)
}

func TestSuggestedIndentForBufferRowDedentsAtCloseBrace(t *testing.T) {
	mode, _ := newParsedMode(t, "{\n}\n")
	got := mode.SuggestedIndentForBufferRow(1, 4, NewIndentOptions())
	require.Equal(t, 0, got)
}

func TestSuggestedIndentForBufferRowSkipsBlankLines(t *testing.T) {
	mode, _ := newParsedMode(t, "{\n\n\tx\n")
	opts := NewIndentOptions()
	got := mode.SuggestedIndentForBufferRow(2, 4, opts)
	require.GreaterOrEqual(t, got, 1)
}

func TestSuggestedIndentForEditedBufferRowKeepsLineIndentWithoutBranch(t *testing.T) {
	mode, _ := newParsedMode(t, "{\n\tx\n}\n")
	got := mode.SuggestedIndentForEditedBufferRow(2, 4)
	require.Equal(t, 0, got)
}
