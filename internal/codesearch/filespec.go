package codesearch

import (
	"codesearch/internal/domain/errors/domain"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetFileSpec converts a user-supplied path into a FileSpec.
//
// With a configured source root, relative paths are taken as relative to the
// root and absolute paths are made relative to it. Without one, the root is
// found by walking up from the working path until a directory containing the
// source marker is reached, and relative paths are resolved against the
// working path first.
func (c *Client) GetFileSpec(path string) (FileSpec, error) {
	root := c.sourceRoot
	abs := path

	if root == "" {
		discovered, err := c.discoverSourceRoot()
		if err != nil {
			return FileSpec{}, err
		}
		root = discovered
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(c.workingPath, abs)
		}
	} else if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, abs)
	}

	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(abs))
	if err != nil {
		return FileSpec{}, fmt.Errorf("%w: %s", domain.ErrOutsideSourceRoot, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return FileSpec{}, fmt.Errorf("%w: %s", domain.ErrOutsideSourceRoot, path)
	}
	if rel == "." {
		rel = ""
	}

	return FileSpec{Name: filepath.ToSlash(rel), PackageName: c.packageName}, nil
}

// discoverSourceRoot returns the closest ancestor of the working path that
// contains the source marker.
func (c *Client) discoverSourceRoot() (string, error) {
	dir := filepath.Clean(c.workingPath)
	for {
		if _, err := os.Stat(filepath.Join(dir, c.sourceMarker)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s found above %s", domain.ErrSourceRootNotFound, c.sourceMarker, c.workingPath)
		}
		dir = parent
	}
}
