// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-set"
	"github.com/hashicorp/jail/helper/escapingfs"
	"github.com/hashicorp/jail/helper/users"
	"github.com/hashicorp/jail/structs"
	"golang.org/x/sys/unix"
)

const (
	// HostBindTarget is where AddHostBind exposes the host root inside the
	// jail.
	HostBindTarget = "run/host"
)

// Config describes a jail: the rootfs to switch into, the ordered mount
// table, the namespaces to unshare and an optional identity to drop to.
//
// A Config is mutable until it is handed to a session, which keeps its own
// deep copy.
type Config struct {
	// Rootfs is the absolute, cleaned path of the jail root on the host.
	Rootfs string

	// Mounts are applied in order and unmounted in reverse order.
	Mounts []*structs.MountSpec

	// Namespaces always includes structs.NamespaceMount.
	Namespaces structs.NamespaceFlags

	// Credential is the identity to drop to after the root switch. Nil
	// keeps the caller's identity.
	Credential *structs.Credential

	// LazyUnmount allows a detaching unmount when a mount point is still
	// busy during teardown.
	LazyUnmount bool
}

// New returns a Config for the given rootfs. The path must exist and be a
// directory; nothing else is checked until Validate.
func New(rootfs string) (*Config, error) {
	root, err := checkRootfs(rootfs)
	if err != nil {
		return nil, err
	}

	return &Config{
		Rootfs:      root,
		Namespaces:  structs.NamespaceMount,
		LazyUnmount: true,
	}, nil
}

func checkRootfs(rootfs string) (string, error) {
	if rootfs == "" {
		return "", fmt.Errorf("%w: missing rootfs", structs.ErrConfigInvalid)
	}

	root, err := filepath.Abs(rootfs)
	if err != nil {
		return "", fmt.Errorf("%w: rootfs %q: %v", structs.ErrConfigInvalid, rootfs, err)
	}

	fi, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("%w: rootfs %q: %w", structs.ErrConfigInvalid, rootfs, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: rootfs %q is not a directory", structs.ErrConfigInvalid, rootfs)
	}
	return root, nil
}

// AddMount appends a mount to the table. Target is relative to the rootfs.
// Duplicate targets are rejected.
func (c *Config) AddMount(source, target string, flags structs.MountFlags) error {
	return c.AddMountSpec(&structs.MountSpec{
		Source: source,
		Target: target,
		Flags:  flags,
	})
}

// AddMountSpec appends a copy of spec to the mount table.
func (c *Config) AddMountSpec(spec *structs.MountSpec) error {
	if err := c.addMountSpec(spec); err != nil {
		return fmt.Errorf("%w: %w", structs.ErrConfigInvalid, err)
	}
	return nil
}

func (c *Config) addMountSpec(spec *structs.MountSpec) error {
	if spec == nil {
		return errors.New("nil mount")
	}
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("mount %s: %w", spec, err)
	}
	if c.targets().Contains(spec.CleanTarget()) {
		return fmt.Errorf("duplicate mount target %q", "/"+spec.CleanTarget())
	}

	c.Mounts = append(c.Mounts, spec.Copy())
	return nil
}

// addMountSpecs adds every spec it can and returns the failures unwrapped.
func (c *Config) addMountSpecs(specs []*structs.MountSpec) error {
	var mErr multierror.Error
	for _, m := range specs {
		if err := c.addMountSpec(m); err != nil {
			mErr.Errors = append(mErr.Errors, err)
		}
	}
	return mErr.ErrorOrNil()
}

func (c *Config) targets() *set.Set[string] {
	return set.FromFunc(c.Mounts, func(m *structs.MountSpec) string {
		return m.CleanTarget()
	})
}

// SetNamespaces sets the namespaces to unshare. The mount namespace is
// always included.
func (c *Config) SetNamespaces(flags structs.NamespaceFlags) {
	c.Namespaces = flags | structs.NamespaceMount
}

// SetCredential requests a drop to uid/gid once the jail is active.
func (c *Config) SetCredential(uid, gid uint32) {
	c.Credential = &structs.Credential{UID: uid, GID: gid}
}

// SetUser resolves name against the host user database and requests a drop
// to it. See users.Lookup for the accepted forms.
func (c *Config) SetUser(name string) error {
	uid, gid, err := users.Lookup(name)
	if err != nil {
		return fmt.Errorf("%w: %w", structs.ErrConfigInvalid, err)
	}
	c.SetCredential(uid, gid)
	return nil
}

// MinimalMounts returns the mounts most programs expect to find: procfs,
// sysfs and the host /dev and /dev/pts.
func MinimalMounts() []*structs.MountSpec {
	return []*structs.MountSpec{
		{Source: "proc", Target: "proc", FSType: "proc", CreateTarget: true},
		{Source: "sysfs", Target: "sys", FSType: "sysfs", CreateTarget: true},
		{Source: "/dev", Target: "dev", Flags: structs.MountBind, CreateTarget: true},
		{Source: "/dev/pts", Target: "dev/pts", Flags: structs.MountBind, CreateTarget: true},
	}
}

// AddMinimalMounts appends MinimalMounts to the table.
func (c *Config) AddMinimalMounts() error {
	if err := c.addMountSpecs(MinimalMounts()); err != nil {
		return fmt.Errorf("%w: %w", structs.ErrConfigInvalid, err)
	}
	return nil
}

// hostBind is the mount added by AddHostBind. It is not recursive: the
// read-only remount only covers the top mount, so host submounts are left
// out instead of staying writable.
func hostBind() *structs.MountSpec {
	return &structs.MountSpec{
		Source:       "/",
		Target:       HostBindTarget,
		Flags:        structs.MountBind | structs.MountReadOnly,
		CreateTarget: true,
	}
}

// AddHostBind exposes the host root read-only at /run/host inside the jail.
func (c *Config) AddHostBind() error {
	return c.AddMountSpec(hostBind())
}

// Validate checks the whole configuration against the host filesystem. It
// reports every problem found, wrapped in structs.ErrConfigInvalid. It does
// not touch kernel state.
func (c *Config) Validate() error {
	var mErr multierror.Error

	if !filepath.IsAbs(c.Rootfs) {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("rootfs %q must be absolute", c.Rootfs))
	} else if fi, err := os.Stat(c.Rootfs); err != nil {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("rootfs %q: %w", c.Rootfs, err))
	} else if !fi.IsDir() {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("rootfs %q is not a directory", c.Rootfs))
	} else if err := unix.Access(c.Rootfs, unix.X_OK); err != nil {
		mErr.Errors = append(mErr.Errors, fmt.Errorf("rootfs %q is not searchable: %w", c.Rootfs, err))
	}

	if !c.Namespaces.Has(structs.NamespaceMount) {
		mErr.Errors = append(mErr.Errors, errors.New("mount namespace is required"))
	}

	seen := set.New[string](len(c.Mounts))
	for i, m := range c.Mounts {
		if m == nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("mount #%d: missing", i))
			continue
		}
		if err := m.Validate(); err != nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("mount #%d: %w", i, err))
			continue
		}
		if !seen.Insert(m.CleanTarget()) {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("mount #%d: duplicate target %q", i, "/"+m.CleanTarget()))
			continue
		}
		if filepath.IsAbs(c.Rootfs) {
			escapes, err := escapingfs.PathEscapesRoot(c.Rootfs, filepath.Join(c.Rootfs, m.CleanTarget()))
			if err != nil {
				mErr.Errors = append(mErr.Errors, fmt.Errorf("mount #%d: %w", i, err))
			} else if escapes {
				mErr.Errors = append(mErr.Errors, fmt.Errorf("mount #%d: target %q escapes the jail root", i, m.Target))
			}
		}
	}

	if err := mErr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", structs.ErrConfigInvalid, err)
	}
	return nil
}

func (c *Config) Copy() *Config {
	if c == nil {
		return nil
	}

	nc := *c
	if c.Mounts != nil {
		nc.Mounts = make([]*structs.MountSpec, len(c.Mounts))
		for i, m := range c.Mounts {
			nc.Mounts[i] = m.Copy()
		}
	}
	nc.Credential = c.Credential.Copy()
	return &nc
}
