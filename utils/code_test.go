package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAuthCode(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code := GenerateAuthCode(6)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "code %q contains non-digit", code)
		}
		seen[code] = struct{}{}
	}
	// 50 draws from a million-value space collapsing to one would mean a
	// broken generator
	require.Greater(t, len(seen), 1)
}

func TestGenerateAuthCodeDefaultLength(t *testing.T) {
	require.Len(t, GenerateAuthCode(0), 6)
	require.Len(t, GenerateAuthCode(-3), 6)
	require.Len(t, GenerateAuthCode(4), 4)
}
