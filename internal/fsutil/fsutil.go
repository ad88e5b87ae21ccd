// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension walks rootPath and returns the full path of every
// file whose name ends with extension. Results are sorted so callers that
// load the files get a deterministic order regardless of directory layout.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		return nil, errors.New("fsutil: extension must not be empty")
	}

	var files []string
	walk := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), extension) {
			return nil
		}
		files = append(files, path)
		return nil
	}
	if err := filepath.WalkDir(rootPath, walk); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
