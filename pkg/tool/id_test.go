package tool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken_PrefixAndLength(t *testing.T) {
	id := GenerateToken("pay_")
	require.Len(t, id, len("pay_")+16)
	require.Equal(t, "pay_", id[:4])
	for _, r := range id[4:] {
		require.Contains(t, tokenAlphabet, string(r))
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateToken("rfnd_")
		require.False(t, seen[id])
		seen[id] = true
	}
}
