package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinFolderPath(t *testing.T) {
	assert.Equal(t, "Media", JoinFolderPath("", "Media"))
	assert.Equal(t, "Media/Photos", JoinFolderPath("Media", "Photos"))
}

func TestIsSameOrDescendant(t *testing.T) {
	tests := []struct {
		candidate string
		ancestor  string
		expected  bool
	}{
		{"Media", "Media", true},
		{"Media/Photos", "Media", true},
		{"Media/Photos/2024", "Media", true},
		{"MediaArchive", "Media", false},
		{"Assets", "Media", false},
		{"Media", "Media/Photos", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsSameOrDescendant(tt.candidate, tt.ancestor), "%s under %s", tt.candidate, tt.ancestor)
	}
}

func TestPathDepthAndParent(t *testing.T) {
	assert.Equal(t, 0, PathDepth(""))
	assert.Equal(t, 1, PathDepth("Media"))
	assert.Equal(t, 3, PathDepth("Media/Photos/2024"))

	assert.Equal(t, "", ParentPath("Media"))
	assert.Equal(t, "Media/Photos", ParentPath("Media/Photos/2024"))
}
