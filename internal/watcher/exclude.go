package watcher

import (
	"path/filepath"
	"strings"
)

// MaxIndexableFileSize is the size cap (in bytes) beyond which a file is
// skipped by both the watcher and the bulk indexer.
const MaxIndexableFileSize = 1 << 20 // 1 MiB

var excludedDirNames = map[string]bool{
	"node_modules":    true,
	"target":          true,
	"dist":            true,
	"build":           true,
	"vendor":          true,
	".next":           true,
	"__pycache__":     true,
	"venv":            true,
	".venv":           true,
	"coverage":        true,
	".nyc_output":     true,
	".git":            true,
	".hg":             true,
	".svn":            true,
	"out":             true,
	".output":         true,
	".nuxt":           true,
	".cache":          true,
	".parcel-cache":   true,
	".turbo":          true,
}

// ExcludedPath reports whether relPath should be skipped by indexing and
// watching: any path component that starts with "." or names one of a
// fixed set of build/dependency directories is excluded.
func ExcludedPath(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, part := range strings.Split(relPath, "/") {
		if part == "" || part == "." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
		if excludedDirNames[part] {
			return true
		}
	}
	return false
}
