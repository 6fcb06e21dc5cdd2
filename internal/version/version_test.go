package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withLinked(t *testing.T, version, commit, built string) {
	t.Helper()
	oldVersion, oldCommit, oldBuilt := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, built
	t.Cleanup(func() {
		Version, GitCommit, BuildTime = oldVersion, oldCommit, oldBuilt
	})
}

func TestLinkedValuesWin(t *testing.T) {
	withLinked(t, "v1.2.3", "0123456789abcdef", "2025-06-01T10:00:00Z")

	assert.Equal(t, "v1.2.3", GetVersion())
	assert.Equal(t, "0123456789abcdef", GetGitCommit())
	assert.Equal(t, "v1.2.3 (0123456)", GetShortVersion())
	assert.True(t, IsRelease())
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), GetBuildTime())

	detailed := GetDetailedVersion()
	assert.Contains(t, detailed, "Version: v1.2.3")
	assert.Contains(t, detailed, "Commit: 0123456789abcdef")
	assert.Contains(t, detailed, "Built: 2025-06-01T10:00:00Z")
}

func TestShortVersionForDevCommit(t *testing.T) {
	withLinked(t, "dev", "abcdef0123", "unknown")

	assert.Contains(t, GetShortVersion(), "dev")
	assert.False(t, IsRelease())
}

func TestParseISOTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Time{}},
		{"unknown", time.Time{}},
		{"yesterday", time.Time{}},
		{"2024-02-03T04:05:06Z", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"2024-02-03T04:05:06", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"2024-02-03 04:05:06", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseISOTime(tt.in)))
		})
	}
}
