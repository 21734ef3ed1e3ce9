// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package structs

import "golang.org/x/sys/unix"

var cloneFlags = map[NamespaceFlags]int{
	NamespaceMount:  unix.CLONE_NEWNS,
	NamespacePID:    unix.CLONE_NEWPID,
	NamespaceUTS:    unix.CLONE_NEWUTS,
	NamespaceIPC:    unix.CLONE_NEWIPC,
	NamespaceUser:   unix.CLONE_NEWUSER,
	NamespaceNet:    unix.CLONE_NEWNET,
	NamespaceCgroup: unix.CLONE_NEWCGROUP,
}

// CloneFlags returns the CLONE_NEW* flags for unshare(2).
func (f NamespaceFlags) CloneFlags() int {
	var flags int
	for _, k := range f.Kinds() {
		flags |= k.CloneFlag()
	}
	return flags
}

// CloneFlag returns the CLONE_NEW* flag used with setns(2) for this kind.
func (k NamespaceKind) CloneFlag() int {
	return cloneFlags[k.Flag]
}
