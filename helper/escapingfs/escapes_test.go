// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package escapingfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shoenig/test/must"
)

func Test_PathEscapesRootViaRelative(t *testing.T) {
	for _, test := range []struct {
		path string
		exp  bool
	}{
		{path: "", exp: false},
		{path: "/foo", exp: false},
		{path: "./", exp: false},
		{path: "foo/../bar", exp: false},
		{path: "../", exp: true},
		{path: "foo/../../", exp: true},
		{path: "..foo", exp: false},
	} {
		must.Eq(t, test.exp, PathEscapesRootViaRelative(test.path), must.Sprintf("path %q", test.path))
	}
}

func Test_PathEscapesRoot(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		root := t.TempDir()
		must.NoError(t, os.MkdirAll(filepath.Join(root, "dev"), 0755))

		escapes, err := PathEscapesRoot(root, filepath.Join(root, "dev"))
		must.NoError(t, err)
		must.False(t, escapes)
	})

	t.Run("missing components", func(t *testing.T) {
		root := t.TempDir()

		escapes, err := PathEscapesRoot(root, filepath.Join(root, "does", "not", "exist"))
		must.NoError(t, err)
		must.False(t, escapes)
	})

	t.Run("relative escape", func(t *testing.T) {
		root := t.TempDir()

		escapes, err := PathEscapesRoot(root, root+"/../other")
		must.NoError(t, err)
		must.True(t, escapes)
	})

	t.Run("symlink escape", func(t *testing.T) {
		root := t.TempDir()
		outside := t.TempDir()

		// root/etc -> <outside>, an absolute host path
		must.NoError(t, os.Symlink(outside, filepath.Join(root, "etc")))

		escapes, err := PathEscapesRoot(root, filepath.Join(root, "etc", "passwd"))
		must.NoError(t, err)
		must.True(t, escapes)
	})

	t.Run("symlink within root", func(t *testing.T) {
		root := t.TempDir()
		must.NoError(t, os.MkdirAll(filepath.Join(root, "usr", "lib"), 0755))
		must.NoError(t, os.Symlink("usr/lib", filepath.Join(root, "lib")))

		escapes, err := PathEscapesRoot(root, filepath.Join(root, "lib", "modules"))
		must.NoError(t, err)
		must.False(t, escapes)
	})

	t.Run("relative root", func(t *testing.T) {
		_, err := PathEscapesRoot("relative", "relative/dev")
		must.Error(t, err)
	})
}
