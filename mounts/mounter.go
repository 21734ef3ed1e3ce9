// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package mounts

// Mounter performs the kernel side of mount table changes. The default
// implementation calls mount(2) and umount2(2) directly; tests substitute a
// recording fake.
type Mounter interface {
	// Mount attaches source at target. fstype and data are empty for bind
	// mounts.
	Mount(source, target, fstype string, flags uintptr, data string) error

	// Unmount detaches the filesystem at target. flags are umount2(2)
	// flags.
	Unmount(target string, flags int) error

	// Mounted reports whether path is a mount point.
	Mounted(path string) (bool, error)
}

// NewMounter returns the Mounter for the running platform.
func NewMounter() Mounter {
	return &systemMounter{}
}
