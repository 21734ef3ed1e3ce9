// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	hclhelper "github.com/hashicorp/jail/helper/hcl"
	"github.com/hashicorp/jail/helper/users"
	"github.com/hashicorp/jail/structs"
	"github.com/mitchellh/go-homedir"
)

// fileConfig is the HCL representation of a Config.
type fileConfig struct {
	Rootfs        string       `hcl:"rootfs"`
	Namespaces    []string     `hcl:"namespaces,optional"`
	User          string       `hcl:"user,optional"`
	UID           *uint32      `hcl:"uid,optional"`
	GID           *uint32      `hcl:"gid,optional"`
	MinimalMounts bool         `hcl:"minimal_mounts,optional"`
	HostBind      bool         `hcl:"host_bind,optional"`
	LazyUnmount   *bool        `hcl:"lazy_unmount,optional"`
	Mounts        []*fileMount `hcl:"mount,block"`
}

type fileMount struct {
	Source  string         `hcl:"source"`
	Target  string         `hcl:"target"`
	Type    string         `hcl:"type,optional"`
	Data    string         `hcl:"data,optional"`
	Options []string       `hcl:"options,optional"`
	Create  bool           `hcl:"create,optional"`
	Mode    hcl.Expression `hcl:"mode,optional"`
}

// ParseFile loads a Config from an HCL file. A relative rootfs is resolved
// against the directory holding the file.
func ParseFile(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parse(src, path, filepath.Dir(path))
}

// Parse loads a Config from HCL source. A relative rootfs is resolved
// against the working directory.
func Parse(src []byte, filename string) (*Config, error) {
	return parse(src, filename, "")
}

func parse(src []byte, filename, baseDir string) (*Config, error) {
	var fc fileConfig
	if diags := hclhelper.NewParser().Parse(src, &fc, filename); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %w", structs.ErrConfigInvalid, diags)
	}

	rootfs, err := homedir.Expand(fc.Rootfs)
	if err != nil {
		return nil, fmt.Errorf("%w: rootfs: %w", structs.ErrConfigInvalid, err)
	}
	if rootfs != "" && !filepath.IsAbs(rootfs) && baseDir != "" {
		rootfs = filepath.Join(baseDir, rootfs)
	}
	c, err := New(rootfs)
	if err != nil {
		return nil, err
	}

	var mErr multierror.Error

	if len(fc.Namespaces) > 0 {
		flags, err := structs.ParseNamespaces(fc.Namespaces)
		if err != nil {
			mErr.Errors = append(mErr.Errors, err)
		}
		c.SetNamespaces(flags)
	}

	switch {
	case fc.User != "" && (fc.UID != nil || fc.GID != nil):
		mErr.Errors = append(mErr.Errors, errors.New("user cannot be combined with uid or gid"))
	case fc.User != "":
		uid, gid, err := users.Lookup(fc.User)
		if err != nil {
			mErr.Errors = append(mErr.Errors, err)
		} else {
			c.SetCredential(uid, gid)
		}
	case fc.UID != nil && fc.GID != nil:
		c.SetCredential(*fc.UID, *fc.GID)
	case fc.UID != nil || fc.GID != nil:
		mErr.Errors = append(mErr.Errors, errors.New("uid and gid must be set together"))
	}

	if fc.LazyUnmount != nil {
		c.LazyUnmount = *fc.LazyUnmount
	}

	// errors are collected unwrapped and marked invalid once below
	if fc.MinimalMounts {
		if err := c.addMountSpecs(MinimalMounts()); err != nil {
			mErr.Errors = append(mErr.Errors, err)
		}
	}
	if fc.HostBind {
		if err := c.addMountSpec(hostBind()); err != nil {
			mErr.Errors = append(mErr.Errors, err)
		}
	}

	for i, fm := range fc.Mounts {
		spec, err := fm.toSpec()
		if err != nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("mount block %d: %w", i, err))
			continue
		}
		if err := c.addMountSpec(spec); err != nil {
			mErr.Errors = append(mErr.Errors, fmt.Errorf("mount block %d: %w", i, err))
		}
	}

	if err := mErr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %w", structs.ErrConfigInvalid, err)
	}
	return c, nil
}

func (fm *fileMount) toSpec() (*structs.MountSpec, error) {
	flags, err := structs.ParseMountFlags(fm.Options)
	if err != nil {
		return nil, err
	}

	source := fm.Source
	if flags.Has(structs.MountBind) {
		if source, err = homedir.Expand(source); err != nil {
			return nil, err
		}
	}

	spec := &structs.MountSpec{
		Source:       source,
		Target:       fm.Target,
		Flags:        flags,
		FSType:       fm.Type,
		Data:         fm.Data,
		CreateTarget: fm.Create,
	}

	if diags := hclhelper.DecodeFileMode(fm.Mode, nil, &spec.CreateMode); diags.HasErrors() {
		return nil, diags
	}
	return spec, nil
}
