// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package namespace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/jail/structs"
	"github.com/moby/sys/mount"
	"golang.org/x/sys/unix"
)

type handle struct {
	kind structs.NamespaceKind
	file *os.File
}

// Guard holds the namespaces the calling thread was in before Unshare so
// that they can be re-joined.
type Guard struct {
	logger   hclog.Logger
	flags    structs.NamespaceFlags
	handles  []handle
	restored bool
	released bool
}

// Unshare moves the calling thread into fresh namespaces. The mount
// namespace is always included, and its mounts are made slaves of the
// original namespace so nothing mounted afterwards propagates back to the
// host.
//
// The caller must have locked its goroutine to the OS thread and keep it
// locked, also when Unshare fails: the thread may already have stopped
// sharing its root and working directory with the process.
func Unshare(logger hclog.Logger, flags structs.NamespaceFlags) (*Guard, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("namespace")
	flags |= structs.NamespaceMount

	for _, kind := range flags.Kinds() {
		if _, err := os.Stat(filepath.Join("/proc/self/ns", kind.Name)); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", structs.ErrUnsupportedNamespace, kind.Name, err)
		}
	}

	g := &Guard{
		logger: logger,
		flags:  flags,
	}
	for _, kind := range flags.Kinds() {
		f, err := os.Open(handlePath(kind.Name))
		if err != nil {
			g.closeHandles()
			return nil, fmt.Errorf("failed to save %s namespace: %w", kind.Name, err)
		}
		g.handles = append(g.handles, handle{kind: kind, file: f})
	}

	logger.Trace("unsharing namespaces", "namespaces", flags)
	if err := unix.Unshare(flags.CloneFlags()); err != nil {
		g.closeHandles()
		switch {
		case errors.Is(err, unix.EPERM):
			return nil, fmt.Errorf("%w: unshare %s: %v", structs.ErrPermissionDenied, flags, err)
		case errors.Is(err, unix.EINVAL):
			return nil, fmt.Errorf("%w: unshare %s: %v", structs.ErrUnsupportedNamespace, flags, err)
		default:
			return nil, fmt.Errorf("unshare %s: %w", flags, err)
		}
	}

	if err := mount.MakeRSlave("/"); err != nil {
		if rerr := g.Release(); rerr != nil {
			logger.Warn("failed to rejoin namespaces", "error", rerr)
		}
		return nil, fmt.Errorf("failed to make mounts private to the jail: %w", err)
	}

	logger.Debug("namespaces unshared", "namespaces", flags)
	return g, nil
}

// handlePath returns the namespace file of the calling thread. Older kernels
// lack /proc/thread-self.
func handlePath(name string) string {
	p := filepath.Join("/proc/thread-self/ns", name)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return fmt.Sprintf("/proc/self/task/%d/ns/%s", unix.Gettid(), name)
}

// Release re-joins the saved namespaces in reverse order. It is best
// effort: every kind is attempted and failures are returned together. The
// user namespace cannot be re-entered by a multi-threaded process and is
// skipped, which leaves Restored false.
//
// Re-joining the mount namespace resets the thread's root and working
// directory to those of the namespace.
func (g *Guard) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	defer g.closeHandles()

	var mErr multierror.Error
	complete := true
	for i := len(g.handles) - 1; i >= 0; i-- {
		h := g.handles[i]
		if h.kind.Flag == structs.NamespaceUser {
			g.logger.Warn("user namespace cannot be re-joined, thread stays in it")
			complete = false
			continue
		}
		if err := unix.Setns(int(h.file.Fd()), h.kind.CloneFlag()); err != nil {
			complete = false
			mErr.Errors = append(mErr.Errors, fmt.Errorf("failed to rejoin %s namespace: %w", h.kind.Name, err))
			continue
		}
		g.logger.Trace("rejoined namespace", "namespace", h.kind.Name)
	}

	g.restored = complete && mErr.ErrorOrNil() == nil
	return mErr.ErrorOrNil()
}

// Restored reports whether Release re-joined every saved namespace.
func (g *Guard) Restored() bool {
	return g.restored
}

func (g *Guard) Flags() structs.NamespaceFlags {
	return g.flags
}

func (g *Guard) closeHandles() {
	for _, h := range g.handles {
		h.file.Close()
	}
	g.handles = nil
}
