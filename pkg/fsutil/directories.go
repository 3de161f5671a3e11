// Package fsutil provides small filesystem helpers shared by the cache, the
// download engine and the config loader.
package fsutil

import (
	"os"
	"path/filepath"
)

// EnsureDir creates path and any missing parents with DirModeDefault.
// It is a no-op when the directory already exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of filePath.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// IsNonEmptyFile reports whether path is a regular file with a size above zero.
func IsNonEmptyFile(path string) bool {
	st, err := os.Stat(path)
	if err != nil {
		return false
	}
	return st.Mode().IsRegular() && st.Size() > 0
}
