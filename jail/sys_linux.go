// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package jail

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/jail/namespace"
	"github.com/hashicorp/jail/structs"
	"golang.org/x/sys/unix"
)

type linuxSys struct{}

func defaultSys() (sysCalls, error) {
	return linuxSys{}, nil
}

func (linuxSys) Gettid() int {
	return unix.Gettid()
}

func (linuxSys) LockThread()   { runtime.LockOSThread() }
func (linuxSys) UnlockThread() { runtime.UnlockOSThread() }

func (linuxSys) Preflight(flags structs.NamespaceFlags, cred *structs.Credential) error {
	return namespace.Preflight(flags, cred)
}

func (linuxSys) Unshare(logger hclog.Logger, flags structs.NamespaceFlags) (nsGuard, error) {
	g, err := namespace.Unshare(logger, flags)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (linuxSys) SaveRoot() (*savedRoot, error) {
	root, err := os.Open("/")
	if err != nil {
		return nil, fmt.Errorf("failed to open root directory: %w", err)
	}
	cwd, err := os.Open(".")
	if err != nil {
		root.Close()
		return nil, fmt.Errorf("failed to open working directory: %w", err)
	}
	return &savedRoot{root: root, cwd: cwd}, nil
}

func (linuxSys) Chroot(path string) error {
	return permission(unix.Chroot(path))
}

func (linuxSys) Chdir(path string) error {
	return unix.Chdir(path)
}

// RestoreRoot leaves a chroot by changing into the saved root directory,
// which lies outside of it, and making it the root again.
func (linuxSys) RestoreRoot(saved *savedRoot) error {
	if err := unix.Fchdir(int(saved.root.Fd())); err != nil {
		return fmt.Errorf("failed to change to saved root: %w", err)
	}
	if err := unix.Chroot("."); err != nil {
		return fmt.Errorf("failed to restore root: %w", err)
	}
	return nil
}

func (linuxSys) RestoreCwd(saved *savedRoot) error {
	if err := unix.Fchdir(int(saved.cwd.Fd())); err != nil {
		return fmt.Errorf("failed to restore working directory: %w", err)
	}
	return nil
}

func (linuxSys) SaveCredentials() (*savedCredentials, error) {
	groups, err := unix.Getgroups()
	if err != nil {
		return nil, fmt.Errorf("failed to read supplementary groups: %w", err)
	}
	s := &savedCredentials{groups: groups}
	s.ruid, s.euid, s.suid = unix.Getresuid()
	s.rgid, s.egid, s.sgid = unix.Getresgid()
	return s, nil
}

// SetCredentials drops to cred. The saved set ids are left alone so that
// RestoreCredentials can regain the original identity.
//
// Every call applies to all threads of the process. unix.Setgroups only
// changes the calling thread, so syscall.Setgroups is used instead.
func (linuxSys) SetCredentials(cred *structs.Credential) error {
	uid, gid := int(cred.UID), int(cred.GID)
	if err := syscall.Setgroups([]int{gid}); err != nil {
		return fmt.Errorf("failed to set groups: %w", permission(err))
	}
	if err := unix.Setresgid(gid, gid, -1); err != nil {
		return fmt.Errorf("failed to set gid %d: %w", gid, permission(err))
	}
	if err := unix.Setresuid(uid, uid, -1); err != nil {
		return fmt.Errorf("failed to set uid %d: %w", uid, permission(err))
	}
	return nil
}

// RestoreCredentials undoes SetCredentials in reverse order. The uid comes
// first since changing groups needs the original privileges.
func (linuxSys) RestoreCredentials(saved *savedCredentials) error {
	if err := unix.Setresuid(saved.ruid, saved.euid, saved.suid); err != nil {
		return fmt.Errorf("failed to restore uid: %w", err)
	}
	if err := unix.Setresgid(saved.rgid, saved.egid, saved.sgid); err != nil {
		return fmt.Errorf("failed to restore gid: %w", err)
	}
	if err := syscall.Setgroups(saved.groups); err != nil {
		return fmt.Errorf("failed to restore groups: %w", err)
	}
	return nil
}

// permission marks EPERM and EACCES as structs.ErrPermissionDenied.
func permission(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
		return fmt.Errorf("%w: %w", structs.ErrPermissionDenied, err)
	}
	return err
}
