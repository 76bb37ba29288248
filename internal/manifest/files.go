package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// expandFiles resolves glob patterns relative to basedir. Entries without
// glob meta characters are kept as written, even if they do not exist yet
// (generated sources are common). Results use forward slashes.
func expandFiles(basedir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(basedir)

	var files []string
	for _, pat := range patterns {
		pat = filepath.ToSlash(pat)
		if filepath.IsAbs(pat) || !hasMeta(pat) {
			files = append(files, pat)
			continue
		}

		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid file pattern %q", pat)
		}
		matches, err := doublestar.Glob(fsys, pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("while globbing %q: %w", pat, err)
		}
		slices.Sort(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func hasMeta(pat string) bool {
	for _, c := range pat {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
