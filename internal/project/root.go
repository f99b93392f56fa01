// Package project discovers test projects, their collections and their
// environments under the collections root.
package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoCollectionsRoot is returned when the collections root cannot be found.
var ErrNoCollectionsRoot = errors.New("collections root not found in the working directory or any parent")

// FindRoot resolves the collections root relative to the current working directory.
func FindRoot(name string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd, name)
}

// FindRootFrom resolves the collections root. An absolute name must exist as
// a directory; a relative name is looked up in startDir and then in each
// parent directory.
func FindRootFrom(startDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		if isDir(name) {
			return filepath.Clean(name), nil
		}
		return "", ErrNoCollectionsRoot
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, name)
		if isDir(candidate) {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoCollectionsRoot
		}
		dir = parent
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
