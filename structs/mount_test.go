// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"testing"

	"github.com/hashicorp/jail/ci"
	"github.com/shoenig/test/must"
)

func TestParseMountFlags(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		name  string
		opts  []string
		exp   MountFlags
		error bool
	}{
		{name: "empty", opts: nil, exp: 0},
		{name: "bind", opts: []string{"bind"}, exp: MountBind},
		{name: "rbind", opts: []string{"rbind"}, exp: MountBind | MountRecursive},
		{name: "bind ro", opts: []string{"bind", "ro"}, exp: MountBind | MountReadOnly},
		{name: "readonly alias", opts: []string{"BIND", " readonly "}, exp: MountBind | MountReadOnly},
		{name: "rw ignored", opts: []string{"bind", "rw"}, exp: MountBind},
		{name: "unknown", opts: []string{"bind", "nosuid"}, error: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			flags, err := ParseMountFlags(tc.opts)
			if tc.error {
				must.Error(t, err)
				return
			}
			must.NoError(t, err)
			must.Eq(t, tc.exp, flags)
		})
	}
}

func TestMountFlags_String(t *testing.T) {
	ci.Parallel(t)

	must.Eq(t, "none", MountFlags(0).String())
	must.Eq(t, "bind", MountBind.String())
	must.Eq(t, "bind,ro,rec", (MountBind | MountReadOnly | MountRecursive).String())
}

func TestCleanTarget(t *testing.T) {
	ci.Parallel(t)

	must.Eq(t, "dev", CleanTarget("/dev"))
	must.Eq(t, "dev", CleanTarget("dev/"))
	must.Eq(t, "dev/pts", CleanTarget("//dev/./pts"))
	must.Eq(t, ".", CleanTarget("/"))
	// cleaning is rooted, so parent references cannot climb above the root
	must.Eq(t, "etc", CleanTarget("../etc"))
}

func TestMountSpec_Validate(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		name  string
		spec  MountSpec
		error string
	}{
		{
			name: "valid bind",
			spec: MountSpec{Source: "/proc", Target: "/proc", Flags: MountBind},
		},
		{
			name: "valid proc",
			spec: MountSpec{Source: "proc", Target: "proc", FSType: "proc"},
		},
		{
			name:  "missing source",
			spec:  MountSpec{Target: "/proc", Flags: MountBind},
			error: "missing mount source",
		},
		{
			name:  "missing target",
			spec:  MountSpec{Source: "/proc", Flags: MountBind},
			error: "missing mount target",
		},
		{
			name:  "escaping target",
			spec:  MountSpec{Source: "/etc", Target: "../../etc", Flags: MountBind},
			error: "escapes the jail root",
		},
		{
			name:  "root target",
			spec:  MountSpec{Source: "/etc", Target: "/", Flags: MountBind},
			error: "cannot be the jail root",
		},
		{
			name:  "relative bind source",
			spec:  MountSpec{Source: "etc", Target: "/etc", Flags: MountBind},
			error: "must be absolute",
		},
		{
			name:  "bind with fstype",
			spec:  MountSpec{Source: "/etc", Target: "/etc", Flags: MountBind, FSType: "ext4"},
			error: "cannot set filesystem type",
		},
		{
			name:  "non-bind without fstype",
			spec:  MountSpec{Source: "proc", Target: "/proc"},
			error: "requires a filesystem type",
		},
		{
			name:  "recursive non-bind",
			spec:  MountSpec{Source: "tmpfs", Target: "/tmp", FSType: "tmpfs", Flags: MountRecursive},
			error: "only applies to bind mounts",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.error == "" {
				must.NoError(t, err)
				return
			}
			must.ErrorContains(t, err, tc.error)
		})
	}
}

func TestMountSpec_Copy(t *testing.T) {
	ci.Parallel(t)

	var nilSpec *MountSpec
	must.Nil(t, nilSpec.Copy())

	orig := &MountSpec{Source: "/dev", Target: "/dev", Flags: MountBind | MountReadOnly}
	cp := orig.Copy()
	cp.Target = "/other"
	must.Eq(t, "/dev", orig.Target)
	must.True(t, cp.IsBind())
}
