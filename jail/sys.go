// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package jail

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/jail/structs"
)

// sysCalls is the per-thread kernel state a session changes. The mount
// table is handled separately by mounts.Table.
type sysCalls interface {
	Gettid() int

	// LockThread and UnlockThread pin the calling goroutine to its OS
	// thread.
	LockThread()
	UnlockThread()

	Preflight(flags structs.NamespaceFlags, cred *structs.Credential) error
	Unshare(logger hclog.Logger, flags structs.NamespaceFlags) (nsGuard, error)

	// SaveRoot opens the current root and working directory so they can be
	// returned to after a chroot.
	SaveRoot() (*savedRoot, error)
	Chroot(path string) error
	Chdir(path string) error
	RestoreRoot(saved *savedRoot) error
	RestoreCwd(saved *savedRoot) error

	SaveCredentials() (*savedCredentials, error)
	SetCredentials(cred *structs.Credential) error
	RestoreCredentials(saved *savedCredentials) error
}

// nsGuard is satisfied by *namespace.Guard.
type nsGuard interface {
	Release() error
	Restored() bool
}

type savedRoot struct {
	root *os.File
	cwd  *os.File
}

func (s *savedRoot) Close() {
	if s.root != nil {
		s.root.Close()
	}
	if s.cwd != nil {
		s.cwd.Close()
	}
}

type savedCredentials struct {
	ruid, euid, suid int
	rgid, egid, sgid int
	groups           []int
}
