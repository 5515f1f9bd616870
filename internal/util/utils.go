package util

import (
	"path/filepath"
	"strings"
)

// ToRelativePath returns fullPath relative to rootPath using forward slashes,
// or fullPath unchanged when no relative form exists
func ToRelativePath(rootPath, fullPath string) string {
	relPath, err := filepath.Rel(rootPath, fullPath)
	if err != nil {
		return fullPath
	}
	return filepath.ToSlash(relPath)
}

// IsHidden reports whether the base name of path starts with a dot
func IsHidden(path string) bool {
	name := filepath.Base(path)
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}
