// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package mounts

import (
	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

const (
	msBind    = unix.MS_BIND
	msRec     = unix.MS_REC
	msRemount = unix.MS_REMOUNT
	msRdonly  = unix.MS_RDONLY
	mntDetach = unix.MNT_DETACH
)

type systemMounter struct{}

func (*systemMounter) Mount(source, target, fstype string, flags uintptr, data string) error {
	return unix.Mount(source, target, fstype, flags, data)
}

func (*systemMounter) Unmount(target string, flags int) error {
	return unix.Unmount(target, flags)
}

func (*systemMounter) Mounted(path string) (bool, error) {
	return mountinfo.Mounted(path)
}
