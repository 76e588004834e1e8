package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name        string
		publishedAt *time.Time
		explicit    string
		want        string
	}{
		{"future publish time", &future, "", StatusScheduled},
		{"past publish time", &past, "", StatusPublished},
		{"publish time overrides explicit status", &future, StatusDraft, StatusScheduled},
		{"no time, no status", nil, "", StatusDraft},
		{"no time, explicit draft", nil, StatusDraft, StatusDraft},
		{"no time, explicit archived", nil, StatusArchived, StatusArchived},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveStatus(tc.publishedAt, tc.explicit, now))
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusDraft, StatusPublished, StatusScheduled, StatusArchived} {
		require.True(t, ValidStatus(s), s)
	}
	require.False(t, ValidStatus("pending"))
	require.False(t, ValidStatus(""))
}
