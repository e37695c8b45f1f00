package helpers

import (
	"strings"
)

const PathSeparator = "/"

// JoinFolderPath builds a folder path from its parent's path. Root folders
// have an empty parent path.
// Example: ("Media", "Photos") -> "Media/Photos"
func JoinFolderPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + PathSeparator + name
}

// IsSameOrDescendant reports whether candidate equals ancestor or lies below it.
func IsSameOrDescendant(candidate, ancestor string) bool {
	if candidate == ancestor {
		return true
	}
	return strings.HasPrefix(candidate, ancestor+PathSeparator)
}

func PathDepth(p string) int {
	if p == "" {
		return 0
	}
	return strings.Count(p, PathSeparator) + 1
}

// ParentPath drops the last segment of p.
// Example: "Media/Photos" -> "Media", "Media" -> ""
func ParentPath(p string) string {
	idx := strings.LastIndex(p, PathSeparator)
	if idx < 0 {
		return ""
	}
	return p[:idx]
}
