// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package jail

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/jail/ci"
	"github.com/hashicorp/jail/config"
	"github.com/hashicorp/jail/helper/testlog"
	"github.com/hashicorp/jail/mounts"
	"github.com/hashicorp/jail/structs"
	"github.com/hashicorp/jail/testutil"
	"github.com/moby/sys/mountinfo"
	"github.com/shoenig/test/must"
)

// threadMountpoints lists the mount points of the calling thread's mount
// namespace. The caller must be locked to its thread.
func threadMountpoints() ([]string, error) {
	infos, err := mountinfo.GetMounts(nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Mountpoint
	}
	return out, nil
}

// nsSnapshot is the jail's own view of its mount namespace at one point of
// the session's life.
type nsSnapshot struct {
	mountpoints []string
	under       []*mountinfo.Info
	err         error
}

func takeSnapshot(root string) nsSnapshot {
	var snap nsSnapshot
	if snap.mountpoints, snap.err = threadMountpoints(); snap.err != nil {
		return snap
	}
	snap.under, snap.err = mounts.Under(root)
	return snap
}

// snapshotSys wraps the real syscalls and reads the mount table on the jail
// thread itself: right after unshare, just before the root switch and just
// before the namespaces are released. Jail mounts are invisible from any
// other thread.
type snapshotSys struct {
	linuxSys
	root string

	unshared, applied, unwound nsSnapshot
}

func (s *snapshotSys) Unshare(logger hclog.Logger, flags structs.NamespaceFlags) (nsGuard, error) {
	g, err := s.linuxSys.Unshare(logger, flags)
	if err != nil {
		return nil, err
	}
	s.unshared = takeSnapshot(s.root)
	return &snapshotGuard{nsGuard: g, sys: s}, nil
}

func (s *snapshotSys) Chroot(path string) error {
	s.applied = takeSnapshot(s.root)
	return s.linuxSys.Chroot(path)
}

type snapshotGuard struct {
	nsGuard
	sys *snapshotSys
}

func (g *snapshotGuard) Release() error {
	g.sys.unwound = takeSnapshot(g.sys.root)
	return g.nsGuard.Release()
}

func TestRun_roundTrip(t *testing.T) {
	testutil.MountCompatible(t)
	ci.SkipSlow(t, "enters a real jail")

	root := t.TempDir()
	data := t.TempDir()
	must.NoError(t, os.WriteFile(filepath.Join(data, "hello"), []byte("hello from the host"), 0o644))

	cfg, err := config.New(root)
	must.NoError(t, err)
	cfg.SetNamespaces(structs.NamespaceUTS | structs.NamespaceIPC)
	must.NoError(t, cfg.AddMount(data, "/data", structs.MountBind|structs.MountReadOnly))
	cfg.Mounts[0].CreateTarget = true
	must.NoError(t, cfg.AddMountSpec(&structs.MountSpec{
		Source: "tmpfs", Target: "/tmp", FSType: "tmpfs", Data: "size=1m", CreateTarget: true,
	}))

	sys := &snapshotSys{root: cfg.Rootfs}
	s, err := newSession(testlog.HCLogger(t), cfg, sys, nil)
	must.NoError(t, err)

	beforeCwd, err := os.Getwd()
	must.NoError(t, err)

	var (
		contents string
		cwd      string
		writeErr error
		active   int
	)
	err = s.run(func(s *Session) error {
		b, err := os.ReadFile("/data/hello")
		if err != nil {
			return err
		}
		contents = string(b)
		cwd, _ = os.Getwd()
		writeErr = os.WriteFile("/data/nope", nil, 0o644)
		active = len(s.ActiveMounts())
		return os.WriteFile("/tmp/scratch", []byte("x"), 0o644)
	})
	if errors.Is(err, structs.ErrPermissionDenied) {
		t.Skipf("insufficient privileges: %v", err)
	}
	must.NoError(t, err)

	must.Eq(t, "hello from the host", contents)
	must.Eq(t, "/", cwd)
	must.Error(t, writeErr)
	must.Eq(t, 2, active)

	// the jail thread saw its mounts while they were applied
	must.NoError(t, sys.applied.err)
	must.Len(t, 2, sys.applied.under)

	// and the namespace was back to how unshare left it before release
	must.NoError(t, sys.unshared.err)
	must.NoError(t, sys.unwound.err)
	must.SliceEmpty(t, sys.unshared.under)
	must.SliceEmpty(t, sys.unwound.under)
	must.Eq(t, sys.unshared.mountpoints, sys.unwound.mountpoints)

	afterCwd, err := os.Getwd()
	must.NoError(t, err)
	must.Eq(t, beforeCwd, afterCwd)
	must.FileNotExists(t, filepath.Join(root, "tmp", "scratch"))
}

func TestSession_Enter_rollback(t *testing.T) {
	testutil.MountCompatible(t)

	root := t.TempDir()
	data := t.TempDir()

	cfg, err := config.New(root)
	must.NoError(t, err)
	must.NoError(t, cfg.AddMountSpec(&structs.MountSpec{
		Source: data, Target: "/proc", Flags: structs.MountBind, CreateTarget: true,
	}))
	// target missing and not created
	must.NoError(t, cfg.AddMount(data, "/dev", structs.MountBind))

	s, err := New(testlog.HCLogger(t), cfg)
	must.NoError(t, err)

	type result struct {
		enterErr error
		state    State
		left     []*mountinfo.Info
		leftErr  error
		exitErr  error
	}

	// the failed session stays on its thread, so the rollback is checked
	// from inside the jail's mount namespace
	done := make(chan result, 1)
	go func() {
		var res result
		res.enterErr = s.Enter()
		res.state = s.State()
		res.left, res.leftErr = mounts.Under(cfg.Rootfs)
		res.exitErr = s.Exit()
		done <- res
	}()
	res := <-done
	if errors.Is(res.enterErr, structs.ErrPermissionDenied) {
		t.Skipf("insufficient privileges: %v", res.enterErr)
	}

	var mErr *structs.MountError
	must.True(t, errors.As(res.enterErr, &mErr))
	must.Eq(t, 1, mErr.Index)
	must.Eq(t, StateNamespacesUnshared, res.state)

	must.NoError(t, res.leftErr)
	must.SliceEmpty(t, res.left)

	must.NoError(t, res.exitErr)
	must.False(t, activeSession.Load())
}

// threadCredentials returns the Uid and Groups lines of the calling
// thread's status. The caller must be locked to its thread.
func threadCredentials() (uid, groups string, err error) {
	b, err := os.ReadFile("/proc/thread-self/status")
	if err != nil {
		return "", "", err
	}
	for _, line := range strings.Split(string(b), "\n") {
		key, value, _ := strings.Cut(line, ":")
		switch key {
		case "Uid":
			uid = strings.Join(strings.Fields(value), " ")
		case "Groups":
			groups = strings.Join(strings.Fields(value), " ")
		}
	}
	return uid, groups, nil
}

func TestRun_credentialsAllThreads(t *testing.T) {
	testutil.MountCompatible(t)
	ci.SkipSlow(t, "enters a real jail")

	cfg, err := config.New(t.TempDir())
	must.NoError(t, err)
	cfg.SetCredential(65534, 65534)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	beforeUID, beforeGroups, err := threadCredentials()
	must.NoError(t, err)

	var (
		uid, groups string
		statusErr   error
	)
	err = Run(testlog.HCLogger(t), cfg, func(*Session) error {
		// a goroutine locked to another thread, outside the jail
		done := make(chan struct{})
		go func() {
			defer close(done)
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			uid, groups, statusErr = threadCredentials()
		}()
		<-done
		return nil
	})
	if errors.Is(err, structs.ErrPermissionDenied) {
		t.Skipf("insufficient privileges: %v", err)
	}
	must.NoError(t, err)

	must.NoError(t, statusErr)
	must.Eq(t, "65534 65534 0 65534", uid)
	must.Eq(t, "65534", groups)

	// restored on every thread too
	afterUID, afterGroups, err := threadCredentials()
	must.NoError(t, err)
	must.Eq(t, beforeUID, afterUID)
	must.Eq(t, beforeGroups, afterGroups)
}
