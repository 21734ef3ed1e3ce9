// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package testutil

import (
	"runtime"
	"syscall"
	"testing"
)

// RequireRoot skips tests unless running as root on linux.
func RequireRoot(t *testing.T) {
	if runtime.GOOS != "linux" || syscall.Geteuid() != 0 {
		t.Skip("Test only available running as root on linux")
	}
}

// RequireNonRoot skips tests unless running as an unprivileged user.
func RequireNonRoot(t *testing.T) {
	if syscall.Geteuid() == 0 {
		t.Skip("Test requires non-root")
	}
}

// MountCompatible skips tests that need to create real mounts.
func MountCompatible(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("Test only available on linux")
	}

	if syscall.Geteuid() != 0 {
		t.Skip("Must be root to run test")
	}
}
