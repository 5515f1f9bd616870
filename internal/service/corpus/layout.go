package corpus

import (
	"path/filepath"
	"strings"

	"langid/internal/util"
)

// SampleRef points at one labeled sample file of a corpus. Path is relative
// to the corpus root.
type SampleRef struct {
	Path      string `json:"path"`
	Language  string `json:"language"`
	Extension string `json:"extension"`
}

// LanguageOf returns the language label of a file in a corpus laid out as
// <root>/<Language>/<file>. Files directly under root have no label.
func LanguageOf(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	language, rest, found := strings.Cut(rel, "/")
	if !found || language == "" || rest == "" {
		return "", false
	}
	return language, true
}

// skipPath ignores hidden files and directories plus any directory named in
// skipDirs
func skipPath(skipDirs []string) util.SkipFunc {
	skip := make(map[string]struct{}, len(skipDirs))
	for _, dir := range skipDirs {
		skip[dir] = struct{}{}
	}
	return func(path string, isDir bool) bool {
		if util.IsHidden(path) {
			return true
		}
		if isDir {
			_, ok := skip[filepath.Base(path)]
			return ok
		}
		return false
	}
}
