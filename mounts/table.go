// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package mounts applies a jail mount table below a rootfs and unwinds it
// again in reverse order.
package mounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/jail/helper/escapingfs"
	"github.com/hashicorp/jail/helper/fileperms"
	"github.com/hashicorp/jail/structs"
	"golang.org/x/sys/unix"
)

type Options struct {
	// Mounter defaults to NewMounter().
	Mounter Mounter

	// LazyUnmount retries a busy unmount once with MNT_DETACH.
	LazyUnmount bool
}

// Table applies and unwinds mount specs. It holds no per-jail state; the
// list of active mounts returned by Apply is owned by the caller.
type Table struct {
	logger  hclog.Logger
	mounter Mounter
	lazy    bool
}

func NewTable(logger hclog.Logger, opts *Options) *Table {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts == nil {
		opts = &Options{}
	}
	mounter := opts.Mounter
	if mounter == nil {
		mounter = NewMounter()
	}
	return &Table{
		logger:  logger.Named("mounts"),
		mounter: mounter,
		lazy:    opts.LazyUnmount,
	}
}

// KernelFlags returns the mount(2) flags used for the initial mount of spec.
// Read-only bind mounts need a second remount which is not reflected here.
func KernelFlags(spec *structs.MountSpec) uintptr {
	var flags uintptr
	if spec.IsBind() {
		flags |= msBind
		if spec.Flags.Has(structs.MountRecursive) {
			flags |= msRec
		}
		return flags
	}
	if spec.Flags.Has(structs.MountReadOnly) {
		flags |= msRdonly
	}
	return flags
}

// Apply mounts specs below rootfs in order. It stops at the first failure
// and returns the mounts that were applied along with a *structs.MountError.
// The returned list always reflects exactly what is mounted; callers unwind
// it with Unwind.
func (t *Table) Apply(rootfs string, specs []*structs.MountSpec) ([]*structs.ActiveMount, error) {
	active := make([]*structs.ActiveMount, 0, len(specs))
	for i, spec := range specs {
		am, err := t.apply(rootfs, i, spec)
		if am != nil {
			active = append(active, am)
		}
		if err != nil {
			t.logger.Debug("mount failed", "index", i, "target", spec.Target, "applied", len(active), "error", err)
			return active, err
		}
	}
	return active, nil
}

func (t *Table) apply(rootfs string, index int, spec *structs.MountSpec) (*structs.ActiveMount, error) {
	fail := func(cause structs.MountCause, err error) error {
		return &structs.MountError{Index: index, Spec: spec, Cause: cause, Err: err}
	}

	target := filepath.Join(rootfs, spec.CleanTarget())
	escapes, err := escapingfs.PathEscapesRoot(rootfs, target)
	if err != nil {
		return nil, fail(classify(err, structs.CauseSyscall), err)
	}
	if escapes {
		return nil, fail(structs.CauseTargetEscapesRoot, nil)
	}

	var srcInfo fs.FileInfo
	if spec.IsBind() {
		srcInfo, err = os.Stat(spec.Source)
		if err != nil {
			return nil, fail(classify(err, structs.CauseSourceMissing), err)
		}
	}

	if err := t.ensureTarget(target, spec, srcInfo); err != nil {
		var mErr *structs.MountError
		if errors.As(err, &mErr) {
			mErr.Index = index
			mErr.Spec = spec
			return nil, mErr
		}
		return nil, fail(classify(err, structs.CauseTargetMissing), err)
	}

	mounted, err := t.mounter.Mounted(target)
	if err != nil {
		return nil, fail(classify(err, structs.CauseSyscall), err)
	}
	if mounted {
		return nil, fail(structs.CauseAlreadyMounted, nil)
	}

	flags := KernelFlags(spec)
	t.logger.Trace("mounting", "source", spec.Source, "target", target, "fstype", spec.FSType, "flags", spec.Flags)
	if err := t.mounter.Mount(spec.Source, target, spec.FSType, flags, spec.Data); err != nil {
		return nil, fail(classify(err, structs.CauseSyscall), err)
	}

	am := &structs.ActiveMount{
		Index:       index,
		Source:      spec.Source,
		Target:      target,
		KernelFlags: flags,
		ReadOnly:    !spec.IsBind() && spec.Flags.Has(structs.MountReadOnly),
	}

	if spec.IsBind() && spec.Flags.Has(structs.MountReadOnly) {
		// mount yet again for read-only flag
		if err := t.mounter.Mount("", target, "", msBind|msRemount|msRdonly, ""); err != nil {
			// the bind itself is live and must be unwound with the rest
			return am, fail(structs.CauseRemountReadOnly, err)
		}
		am.ReadOnly = true
	}

	return am, nil
}

// ensureTarget makes sure the mount point exists. Bind mounts of files get an
// empty file as mount point, everything else a directory.
func (t *Table) ensureTarget(target string, spec *structs.MountSpec, srcInfo fs.FileInfo) error {
	_, err := os.Lstat(target)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if !spec.CreateTarget {
		return &structs.MountError{Cause: structs.CauseTargetMissing, Err: err}
	}

	t.logger.Trace("creating mount target", "target", target, "mode", spec.Mode())

	if srcInfo != nil && !srcInfo.IsDir() {
		if err := os.MkdirAll(filepath.Dir(target), spec.Mode()); err != nil {
			return err
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY, fileperms.Oct644)
		if err != nil {
			return err
		}
		return f.Close()
	}
	return os.MkdirAll(target, spec.Mode())
}

// Unwind unmounts active in strict reverse order. Mount points that are no
// longer mounted are skipped. Failures do not stop the unwind; they are
// collected into a *structs.TeardownError.
func (t *Table) Unwind(active []*structs.ActiveMount) error {
	var mErr multierror.Error
	for i := len(active) - 1; i >= 0; i-- {
		if err := t.unmount(active[i]); err != nil {
			t.logger.Warn("failed to unmount", "target", active[i].Target, "error", err)
			mErr.Errors = append(mErr.Errors, err)
		}
	}
	return structs.NewTeardownError(&mErr)
}

func (t *Table) unmount(am *structs.ActiveMount) error {
	t.logger.Trace("unmounting", "target", am.Target)

	err := t.mounter.Unmount(am.Target, 0)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EINVAL):
		t.logger.Debug("mount point already unmounted", "target", am.Target)
		return nil
	case errors.Is(err, unix.EBUSY) && t.lazy:
		t.logger.Debug("mount point busy, detaching", "target", am.Target)
		if err := t.mounter.Unmount(am.Target, mntDetach); err != nil {
			return fmt.Errorf("failed to detach %s: %w", am.Target, err)
		}
		return nil
	default:
		return fmt.Errorf("failed to unmount %s: %w", am.Target, err)
	}
}

// classify maps a syscall error onto a mount cause. Errors that carry no
// more specific meaning keep fallback.
func classify(err error, fallback structs.MountCause) structs.MountCause {
	switch {
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return structs.CausePermission
	case errors.Is(err, unix.EBUSY):
		return structs.CauseBusy
	default:
		return fallback
	}
}
