// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build !linux

package mounts

import (
	"github.com/hashicorp/jail/structs"
	"github.com/moby/sys/mountinfo"
)

// Linux values; elsewhere they only show up in plans.
const (
	msBind    = 0x1000
	msRec     = 0x4000
	msRemount = 0x20
	msRdonly  = 0x1
	mntDetach = 0x2
)

type systemMounter struct{}

func (*systemMounter) Mount(source, target, fstype string, flags uintptr, data string) error {
	return structs.ErrUnsupportedPlatform
}

func (*systemMounter) Unmount(target string, flags int) error {
	return structs.ErrUnsupportedPlatform
}

func (*systemMounter) Mounted(path string) (bool, error) {
	return mountinfo.Mounted(path)
}
