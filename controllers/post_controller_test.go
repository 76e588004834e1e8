package controllers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFingerprintOrderIndependent(t *testing.T) {
	a := fingerprint(map[string]string{"page": "1", "search": "go", "user_id": "2"})
	b := fingerprint(map[string]string{"user_id": "2", "page": "1", "search": "go"})
	require.Equal(t, a, b)

	c := fingerprint(map[string]string{"page": "2", "search": "go", "user_id": "2"})
	require.NotEqual(t, a, c)
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, 15},
		{"3", "20", 3, 20},
		{"0", "0", 1, 15},
		{"-1", "-5", 1, 15},
		{"abc", "xyz", 1, 15},
		{"2", "101", 2, 15},
		{"2", "100", 2, 100},
	}
	for _, tc := range cases {
		page, size := parsePagination(tc.page, tc.size)
		require.Equal(t, tc.wantPage, page, "page=%q", tc.page)
		require.Equal(t, tc.wantSize, size, "size=%q", tc.size)
	}
}
