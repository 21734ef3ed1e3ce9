// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/jail/ci"
	"github.com/hashicorp/jail/structs"
	"github.com/mitchellh/go-homedir"
	"github.com/shoenig/test/must"
)

func TestParse(t *testing.T) {
	ci.Parallel(t)

	root := t.TempDir()
	src := fmt.Sprintf(`
rootfs         = %q
namespaces     = ["mount", "uts", "ipc"]
uid            = 1000
gid            = 100
lazy_unmount   = false
minimal_mounts = true
host_bind      = true

mount {
  source  = "/srv/data"
  target  = "/data"
  options = ["bind", "ro"]
  create  = true
  mode    = "0750"
}

mount {
  source = "tmpfs"
  target = "/tmp"
  type   = "tmpfs"
  data   = "size=16m"
}
`, root)

	c, err := Parse([]byte(src), "jail.hcl")
	must.NoError(t, err)

	must.Eq(t, root, c.Rootfs)
	must.Eq(t, "mnt,uts,ipc", c.Namespaces.String())
	must.Eq(t, &structs.Credential{UID: 1000, GID: 100}, c.Credential)
	must.False(t, c.LazyUnmount)

	// minimal mounts, then the host bind, then mount blocks in file order
	must.Len(t, 7, c.Mounts)
	must.Eq(t, "proc", c.Mounts[0].CleanTarget())
	must.Eq(t, "run/host", c.Mounts[4].CleanTarget())

	data := c.Mounts[5]
	must.Eq(t, "/srv/data", data.Source)
	must.Eq(t, structs.MountBind|structs.MountReadOnly, data.Flags)
	must.True(t, data.CreateTarget)
	must.Eq(t, os.FileMode(0o750), data.Mode())

	tmp := c.Mounts[6]
	must.Eq(t, "tmpfs", tmp.FSType)
	must.Eq(t, "size=16m", tmp.Data)
	must.Eq(t, structs.DefaultCreateMode, tmp.Mode())
}

func TestParse_defaults(t *testing.T) {
	ci.Parallel(t)

	root := t.TempDir()
	c, err := Parse([]byte(fmt.Sprintf("rootfs = %q\n", root)), "jail.hcl")
	must.NoError(t, err)

	must.Eq(t, structs.NamespaceMount, c.Namespaces)
	must.True(t, c.LazyUnmount)
	must.Nil(t, c.Credential)
	must.SliceEmpty(t, c.Mounts)
}

func TestParse_errors(t *testing.T) {
	ci.Parallel(t)

	root := t.TempDir()

	cases := []struct {
		name string
		body string
		err  string
	}{
		{
			name: "missing rootfs",
			body: `namespaces = ["uts"]`,
			err:  `Missing required argument`,
		},
		{
			name: "unknown attribute",
			body: fmt.Sprintf("rootfs = %q\nchroot = true", root),
			err:  `Unsupported argument`,
		},
		{
			name: "rootfs missing on disk",
			body: fmt.Sprintf("rootfs = %q", filepath.Join(root, "nope")),
			err:  `no such file or directory`,
		},
		{
			name: "unknown namespace",
			body: fmt.Sprintf("rootfs = %q\nnamespaces = [\"time\"]", root),
			err:  `unknown namespace "time"`,
		},
		{
			name: "user and uid",
			body: fmt.Sprintf("rootfs = %q\nuser = \"root\"\nuid = 0", root),
			err:  `user cannot be combined with uid or gid`,
		},
		{
			name: "uid without gid",
			body: fmt.Sprintf("rootfs = %q\nuid = 0", root),
			err:  `uid and gid must be set together`,
		},
		{
			name: "unknown mount option",
			body: fmt.Sprintf("rootfs = %q\nmount {\n source = \"/a\"\n target = \"/a\"\n options = [\"nosuid\"]\n}", root),
			err:  `unknown mount option "nosuid"`,
		},
		{
			name: "bad mode",
			body: fmt.Sprintf("rootfs = %q\nmount {\n source = \"/a\"\n target = \"/a\"\n options = [\"bind\"]\n mode = \"999\"\n}", root),
			err:  `Unsuitable file mode value`,
		},
		{
			name: "duplicate target",
			body: fmt.Sprintf("rootfs = %q\nminimal_mounts = true\nmount {\n source = \"/proc\"\n target = \"/proc\"\n options = [\"bind\"]\n}", root),
			err:  `duplicate mount target "/proc"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body), "jail.hcl")
			must.ErrorIs(t, err, structs.ErrConfigInvalid)
			must.ErrorContains(t, err, tc.err)
			must.Eq(t, 1, strings.Count(err.Error(), "invalid jail configuration"), must.Sprint(err))
		})
	}
}

func TestParseFile(t *testing.T) {
	ci.Parallel(t)

	dir := t.TempDir()
	must.NoError(t, os.Mkdir(filepath.Join(dir, "root"), 0o755))

	path := filepath.Join(dir, "jail.hcl")
	src := `
rootfs = "root"

mount {
  source  = "/proc"
  target  = "proc"
  options = ["bind"]
  create  = true
}
`
	must.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := ParseFile(path)
	must.NoError(t, err)
	must.Eq(t, filepath.Join(dir, "root"), c.Rootfs)
	must.Len(t, 1, c.Mounts)

	_, err = ParseFile(filepath.Join(dir, "missing.hcl"))
	must.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_homeDir(t *testing.T) {
	ci.Parallel(t)

	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if fi, err := os.Stat(home); err != nil || !fi.IsDir() {
		t.Skip("home directory does not exist")
	}

	src := `
rootfs = "~"

mount {
  source  = "~/data"
  target  = "/data"
  options = ["bind"]
}
`
	c, err := Parse([]byte(src), "jail.hcl")
	must.NoError(t, err)
	must.Eq(t, filepath.Clean(home), c.Rootfs)
	must.Eq(t, filepath.Join(home, "data"), c.Mounts[0].Source)
}
