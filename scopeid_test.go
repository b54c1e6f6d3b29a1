package languagemode

import "testing"

import "github.com/stretchr/testify/require"

func TestScopeIDTableInternsVariable(t *testing.T) {
	table := newScopeIDTable()
	require.Equal(t, VarID, table.getOrCreate("variable"))
	require.Equal(t, "variable", table.name(VarID))
}

func TestScopeIDTableAssignsMonotonicIDs(t *testing.T) {
	table := newScopeIDTable()
	first := table.getOrCreate("keyword.control")
	second := table.getOrCreate("string.quoted")
	require.Equal(t, first, table.getOrCreate("keyword.control"))
	require.NotEqual(t, first, second)
	require.Equal(t, "keyword.control", table.name(first))
	require.Equal(t, "string.quoted", table.name(second))
	require.Equal(t, ScopeID(scopeIDBase), first)
	require.Equal(t, ScopeID(scopeIDBase+scopeIDStep), second)
}
