// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package namespace moves the calling OS thread into new Linux namespaces
// and back. Namespaces and the root directory are per-thread state, so every
// function here must run on a goroutine locked with runtime.LockOSThread.
package namespace
