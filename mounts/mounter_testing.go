// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package mounts

import (
	"sync"

	"github.com/hashicorp/jail/testutil"
	"golang.org/x/sys/unix"
)

// FakeMounter is a Mounter that only records calls. It tracks which targets
// are mounted so unmounting twice behaves like the kernel (EINVAL).
type FakeMounter struct {
	Calls *testutil.CallLog

	// MountFn, if set, can fail a mount before it is recorded as live.
	// Remounts have an empty source.
	MountFn func(source, target string, flags uintptr) error

	// UnmountFn, if set, can fail an unmount.
	UnmountFn func(target string, flags int) error

	lock    sync.Mutex
	mounted map[string]int
}

// NewFakeMounter returns a FakeMounter recording into calls. A nil calls
// gets a fresh log.
func NewFakeMounter(calls *testutil.CallLog) *FakeMounter {
	if calls == nil {
		calls = testutil.NewCallLog()
	}
	return &FakeMounter{
		Calls:   calls,
		mounted: make(map[string]int),
	}
}

func (f *FakeMounter) Mount(source, target, fstype string, flags uintptr, data string) error {
	if f.MountFn != nil {
		if err := f.MountFn(source, target, flags); err != nil {
			return err
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if flags&msRemount != 0 {
		f.Calls.Add("remount-ro %s", target)
		return nil
	}
	f.Calls.Add("mount %s %s", source, target)
	f.mounted[target]++
	return nil
}

func (f *FakeMounter) Unmount(target string, flags int) error {
	if f.UnmountFn != nil {
		if err := f.UnmountFn(target, flags); err != nil {
			return err
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	if f.mounted[target] == 0 {
		return unix.EINVAL
	}
	if flags&mntDetach != 0 {
		f.Calls.Add("detach %s", target)
	} else {
		f.Calls.Add("unmount %s", target)
	}
	f.mounted[target]--
	return nil
}

func (f *FakeMounter) Mounted(path string) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.mounted[path] > 0, nil
}

// MarkMounted pretends path is already a mount point.
func (f *FakeMounter) MarkMounted(path string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.mounted[path]++
}

// Live returns the number of mounts still in place.
func (f *FakeMounter) Live() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	n := 0
	for _, c := range f.mounted {
		n += c
	}
	return n
}
