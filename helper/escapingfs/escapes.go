// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package escapingfs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// PathEscapesRootViaRelative returns if the given path, interpreted relative
// to a jail root, escapes that root using relative path components.
//
// Only for use where the real filesystem is not consulted. Use
// PathEscapesRoot to also account for symlinks inside the root.
func PathEscapesRootViaRelative(path string) bool {
	// The "jail-root" here is just a placeholder; only the number of levels
	// it represents matters.
	root := filepath.Join("/", "jail-root")
	abs := filepath.Join(root, path)
	return PathEscapesSandbox(root, abs)
}

// resolveExisting evaluates symlinks of the deepest existing ancestor of full
// and re-attaches the components that do not exist yet. A component that is
// not a directory ends the walk the same way a missing one does.
func resolveExisting(full string) (string, error) {
	var rest []string
	cur := full
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			parts := append([]string{resolved}, rest...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", err
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// PathEscapesRoot returns true if full, a path under root, resolves outside
// of root. Escaping can be done with relative paths (e.g. ../../ etc.) or by
// symlinks inside root pointing elsewhere; both are checked. Components of
// full that do not exist yet are treated as plain directories.
//
// The root directory must be an absolute path.
func PathEscapesRoot(root, full string) (bool, error) {
	if !filepath.IsAbs(root) {
		return false, errors.New("jail root must be absolute")
	}

	if PathEscapesSandbox(root, filepath.Clean(full)) {
		return true, nil
	}

	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false, err
	}
	resolved, err := resolveExisting(full)
	if err != nil {
		return false, err
	}
	return PathEscapesSandbox(resolvedRoot, resolved), nil
}

// PathEscapesSandbox returns whether previously cleaned path inside the
// sandbox directory escapes.
func PathEscapesSandbox(sandboxDir, path string) bool {
	rel, err := filepath.Rel(sandboxDir, path)
	if err != nil {
		return true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return true
	}
	return false
}
