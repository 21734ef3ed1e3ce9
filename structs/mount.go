// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/jail/helper/fileperms"
)

// MountFlags describes how a MountSpec is applied.
type MountFlags uint8

const (
	// MountBind makes Source visible at Target without copying data.
	MountBind MountFlags = 1 << iota

	// MountReadOnly applies the read-only flag. For bind mounts this is a
	// second remount step since Linux ignores MS_RDONLY on the initial bind.
	MountReadOnly

	// MountRecursive binds the whole subtree under Source, including any
	// mounts beneath it.
	MountRecursive
)

// mountFlagNames maps the option names accepted in configuration files to
// flags. Order matters for String.
var mountFlagNames = []struct {
	name string
	flag MountFlags
}{
	{"bind", MountBind},
	{"ro", MountReadOnly},
	{"rec", MountRecursive},
}

func (f MountFlags) Has(o MountFlags) bool {
	return f&o == o
}

func (f MountFlags) String() string {
	var parts []string
	for _, n := range mountFlagNames {
		if f.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseMountFlags converts option names to MountFlags. "rbind" is shorthand
// for bind plus rec, and "rw" is accepted and ignored since read-write is the
// default.
func ParseMountFlags(opts []string) (MountFlags, error) {
	var flags MountFlags
	for _, opt := range opts {
		switch strings.ToLower(strings.TrimSpace(opt)) {
		case "bind":
			flags |= MountBind
		case "rbind":
			flags |= MountBind | MountRecursive
		case "ro", "readonly":
			flags |= MountReadOnly
		case "rw":
		case "rec", "recursive":
			flags |= MountRecursive
		default:
			return 0, fmt.Errorf("unknown mount option %q", opt)
		}
	}
	return flags, nil
}

// MountSpec is a single entry of the jail mount table. Specs are applied in
// the order they were added; later entries may mount into directories that
// only exist because of an earlier entry.
type MountSpec struct {
	// Source is the host path for bind mounts, or the device name for other
	// filesystems (e.g. "proc").
	Source string

	// Target is the destination path relative to the jail rootfs. A leading
	// slash is accepted and ignored.
	Target string

	Flags MountFlags

	// FSType and Data are passed to mount(2) for non-bind mounts.
	FSType string
	Data   string

	// CreateTarget permits creating the target if it does not exist yet.
	CreateTarget bool

	// CreateMode is the permission used for created target directories.
	// Zero means DefaultCreateMode.
	CreateMode os.FileMode
}

// DefaultCreateMode is used for mount targets created without an explicit
// mode.
const DefaultCreateMode = fileperms.Oct755

// Mode returns the permission for a created target directory.
func (m *MountSpec) Mode() os.FileMode {
	if m.CreateMode == 0 {
		return DefaultCreateMode
	}
	return m.CreateMode.Perm()
}

// IsBind returns true when the spec describes a bind mount.
func (m *MountSpec) IsBind() bool {
	return m.Flags.Has(MountBind)
}

// CleanTarget returns the target in its canonical rootfs-relative form, which
// is used for duplicate detection and for joining with the rootfs path.
func (m *MountSpec) CleanTarget() string {
	return CleanTarget(m.Target)
}

// CleanTarget normalizes a rootfs-relative target so that "/dev", "dev" and
// "dev/" compare equal. The root of the jail is returned as ".".
func CleanTarget(target string) string {
	t := filepath.Clean("/" + target)
	t = strings.TrimPrefix(t, "/")
	if t == "" {
		return "."
	}
	return t
}

func (m *MountSpec) Copy() *MountSpec {
	if m == nil {
		return nil
	}
	nm := *m
	return &nm
}

func (m *MountSpec) String() string {
	if m.IsBind() {
		return fmt.Sprintf("%s -> /%s (%s)", m.Source, m.CleanTarget(), m.Flags)
	}
	return fmt.Sprintf("%s -> /%s (type=%s, %s)", m.Source, m.CleanTarget(), m.FSType, m.Flags)
}

// Validate checks the spec in isolation. It does not touch the filesystem.
func (m *MountSpec) Validate() error {
	var mErr multierror.Error

	if m.Source == "" {
		mErr.Errors = append(mErr.Errors, errors.New("missing mount source"))
	}
	if m.Target == "" {
		mErr.Errors = append(mErr.Errors, errors.New("missing mount target"))
	} else if strings.Contains(m.Target, "\x00") {
		mErr.Errors = append(mErr.Errors, errors.New("mount target cannot contain null bytes"))
	} else {
		rel := filepath.Clean(strings.TrimPrefix(m.Target, "/"))
		if rel == ".." || strings.HasPrefix(rel, "../") {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("mount target %q escapes the jail root", m.Target))
		} else if CleanTarget(m.Target) == "." {
			mErr.Errors = append(mErr.Errors, errors.New("mount target cannot be the jail root"))
		}
	}

	if m.IsBind() {
		if m.FSType != "" {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("bind mount cannot set filesystem type %q", m.FSType))
		}
		if m.Source != "" && !filepath.IsAbs(m.Source) {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("bind mount source %q must be absolute", m.Source))
		}
	} else {
		if m.FSType == "" {
			mErr.Errors = append(mErr.Errors, errors.New("non-bind mount requires a filesystem type"))
		}
		if m.Flags.Has(MountRecursive) {
			mErr.Errors = append(mErr.Errors, errors.New("recursive flag only applies to bind mounts"))
		}
	}

	return mErr.ErrorOrNil()
}

// ActiveMount records a MountSpec that was successfully mounted. It exists
// only between the mount syscall and its matching unmount.
type ActiveMount struct {
	// Index is the position of the originating spec in the mount table.
	Index int

	Source string

	// Target is the absolute host path of the mount point.
	Target string

	// KernelFlags are the mount(2) flags used for the initial mount.
	KernelFlags uintptr

	// ReadOnly is true once the mount is known to be read-only.
	ReadOnly bool
}

func (a *ActiveMount) Copy() *ActiveMount {
	if a == nil {
		return nil
	}
	na := *a
	return &na
}

func (a *ActiveMount) String() string {
	return fmt.Sprintf("#%d %s -> %s", a.Index, a.Source, a.Target)
}
