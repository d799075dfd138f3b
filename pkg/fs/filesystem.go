package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func Exists(filePath string) bool {
	if _, err := os.Stat(filePath); errors.Is(err, fs.ErrNotExist) {
		return false
	}

	return true
}

// FindFile walks up the directory tree, at most 4 levels or until minRootDir is reached, looking
// for fileName. Used by tests to locate testdata fixtures.
func FindFile(fileName string, minRootDir string) string {
	var dots []string //nolint:prealloc
	for range 4 {
		dir := filepath.Join(dots...)
		fPath := filepath.Join(dir, fileName)

		if Exists(fPath) {
			if abs, err := filepath.Abs(fPath); err == nil {
				return abs
			}

			return fPath
		}

		if strings.HasSuffix(dir, minRootDir) {
			return fileName
		}

		dots = append(dots, "..")
	}

	return fileName
}

// ReplaceExt swaps the extension of name, e.g. match.dem -> match.json.
func ReplaceExt(name string, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
