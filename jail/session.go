// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package jail confines the calling OS thread to a rootfs: it unshares
// namespaces, applies a mount table below the rootfs and switches root into
// it. Everything is undone in reverse order when the session exits.
//
// A Session pins its goroutine to an OS thread. Work inside the jail runs
// on that goroutine, or in processes started from it with Session.Command.
// Only one session may be live per process.
//
// Unsharing the mount namespace also gives the thread its own root and
// working directory, and it never shares them with the process again. Once
// namespaces were unshared the thread therefore stays locked, also after
// Exit, and is discarded by the runtime when its goroutine returns.
package jail

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"
	"github.com/hashicorp/jail/config"
	"github.com/hashicorp/jail/mounts"
	"github.com/hashicorp/jail/structs"
)

// activeSession is set while a session holds kernel state in this process.
var activeSession atomic.Bool

// Session is a single jail. It is created with New, entered with Enter and
// torn down with Exit. Sessions cannot be re-entered after Exit.
type Session struct {
	id     string
	logger hclog.Logger
	config *config.Config
	sys    sysCalls
	table  *mounts.Table

	// lock guards everything below
	lock  sync.Mutex
	state State

	// tid is the thread the session is pinned to once entered
	tid int

	holdsGuard bool
	ns         nsGuard
	root       *savedRoot
	active     []*structs.ActiveMount
	creds      *savedCredentials
}

// New validates cfg and returns a session for it. The session keeps its own
// copy of cfg. No kernel state is touched.
func New(logger hclog.Logger, cfg *config.Config) (*Session, error) {
	sys, err := defaultSys()
	if err != nil {
		return nil, err
	}
	return newSession(logger, cfg, sys, nil)
}

func newSession(logger hclog.Logger, cfg *config.Config, sys sysCalls, mounter mounts.Mounter) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: missing config", structs.ErrConfigInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("jail").With("session_id", id)

	cfg = cfg.Copy()
	return &Session{
		id:     id,
		logger: logger,
		config: cfg,
		sys:    sys,
		table: mounts.NewTable(logger, &mounts.Options{
			Mounter:     mounter,
			LazyUnmount: cfg.LazyUnmount,
		}),
		state: StateCreated,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Config returns a copy of the session configuration.
func (s *Session) Config() *config.Config {
	return s.config.Copy()
}

// ActiveMounts returns a copy of the mounts currently applied, in the order
// they were applied.
func (s *Session) ActiveMounts() []*structs.ActiveMount {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]*structs.ActiveMount, len(s.active))
	for i, am := range s.active {
		out[i] = am.Copy()
	}
	return out
}

// Command returns a command that runs inside the jail. It must be started
// from the goroutine that entered the session, while the session is active;
// the child inherits the root, working directory and namespaces of that
// thread.
func (s *Session) Command(name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	cmd.Dir = "/"
	return cmd
}

func (s *Session) setState(state State) {
	s.logger.Debug("state change", "from", s.state, "to", state)
	s.state = state
}

// Enter runs the remaining lifecycle steps until the session is active. A
// failed step undoes its own effects, leaves the session in the last good
// state and returns the error; nothing is retried. Calling Enter again
// resumes from that state.
//
// The calling goroutine is locked to its OS thread from the first step. The
// lock is only released again if Enter fails before any namespace was
// unshared; otherwise the goroutine should return once the session is
// exited.
func (s *Session) Enter() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch s.state {
	case StateTornDown:
		return structs.ErrSessionTornDown
	case StateActive:
		return structs.ErrAlreadyActive
	case StateCreated:
	default:
		if tid := s.sys.Gettid(); tid != s.tid {
			return fmt.Errorf("%w: entered on thread %d, called on %d", structs.ErrWrongThread, s.tid, tid)
		}
	}

	for s.state != StateActive {
		var err error
		switch s.state {
		case StateCreated:
			err = s.unshare()
		case StateNamespacesUnshared:
			err = s.applyMounts()
		case StateMountsApplied:
			err = s.switchRoot()
		case StateRootSwitched:
			err = s.dropCredentials()
		}
		if err != nil {
			return err
		}
	}

	s.logger.Info("jail active", "rootfs", s.config.Rootfs, "mounts", len(s.active))
	return nil
}

func (s *Session) unshare() error {
	if !activeSession.CompareAndSwap(false, true) {
		return structs.ErrAlreadyActive
	}

	s.sys.LockThread()
	fail := func(err error) error {
		s.sys.UnlockThread()
		activeSession.Store(false)
		return err
	}

	if err := s.sys.Preflight(s.config.Namespaces, s.config.Credential); err != nil {
		return fail(err)
	}

	root, err := s.sys.SaveRoot()
	if err != nil {
		return fail(err)
	}

	ns, err := s.sys.Unshare(s.logger, s.config.Namespaces)
	if err != nil {
		// unshare may have got as far as splitting the thread's root and
		// working directory from the process, so the thread stays locked
		root.Close()
		activeSession.Store(false)
		return err
	}

	s.tid = s.sys.Gettid()
	s.holdsGuard = true
	s.root = root
	s.ns = ns
	s.setState(StateNamespacesUnshared)
	return nil
}

func (s *Session) applyMounts() error {
	active, err := s.table.Apply(s.config.Rootfs, s.config.Mounts)
	if err != nil {
		if uerr := s.table.Unwind(active); uerr != nil {
			// keep what could not be unmounted so Exit tries again
			s.active = active
			return multierror.Append(err, uerr)
		}
		return err
	}

	s.active = active
	s.setState(StateMountsApplied)
	return nil
}

// rollbackMounts unwinds the applied mounts after a later step failed and
// moves the session back to StateNamespacesUnshared.
func (s *Session) rollbackMounts(err error) error {
	if uerr := s.table.Unwind(s.active); uerr != nil {
		err = multierror.Append(err, uerr)
	} else {
		s.active = nil
	}
	s.setState(StateNamespacesUnshared)
	return err
}

func (s *Session) switchRoot() error {
	s.logger.Trace("switching root", "rootfs", s.config.Rootfs)
	if err := s.sys.Chroot(s.config.Rootfs); err != nil {
		return s.rollbackMounts(fmt.Errorf("failed to chroot to %s: %w", s.config.Rootfs, err))
	}

	if err := s.sys.Chdir("/"); err != nil {
		err = fmt.Errorf("failed to change directory to jail root: %w", err)
		if rerr := s.sys.RestoreRoot(s.root); rerr != nil {
			err = multierror.Append(err, rerr)
		}
		return s.rollbackMounts(err)
	}

	s.setState(StateRootSwitched)
	return nil
}

func (s *Session) dropCredentials() error {
	cred := s.config.Credential
	if cred == nil {
		s.setState(StateActive)
		return nil
	}

	saved, err := s.sys.SaveCredentials()
	if err == nil {
		s.logger.Trace("dropping privileges", "credential", cred)
		if err = s.sys.SetCredentials(cred); err != nil {
			if rerr := s.sys.RestoreCredentials(saved); rerr != nil {
				err = multierror.Append(err, rerr)
			}
		}
	}
	if err != nil {
		if rerr := s.sys.RestoreRoot(s.root); rerr != nil {
			err = multierror.Append(err, rerr)
		}
		return s.rollbackMounts(err)
	}

	s.creds = saved
	s.setState(StateActive)
	return nil
}

// Exit tears the session down: credentials are restored, the root is
// switched back, mounts are unwound in reverse order, namespaces are
// re-joined and the working directory is restored. Every step is attempted
// even if an earlier one failed; failures are returned as a
// *structs.TeardownError. The session is torn down afterwards regardless.
//
// Exit must be called from the goroutine that entered the session. It is
// safe to call more than once. The thread stays locked afterwards.
func (s *Session) Exit() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state == StateTornDown {
		return nil
	}
	if !s.holdsGuard {
		s.setState(StateTornDown)
		return nil
	}
	if tid := s.sys.Gettid(); tid != s.tid {
		return fmt.Errorf("%w: entered on thread %d, called on %d", structs.ErrWrongThread, s.tid, tid)
	}

	var mErr multierror.Error

	if s.creds != nil {
		if err := s.sys.RestoreCredentials(s.creds); err != nil {
			mErr.Errors = append(mErr.Errors, err)
		}
		s.creds = nil
	}

	if s.state == StateRootSwitched || s.state == StateActive {
		if err := s.sys.RestoreRoot(s.root); err != nil {
			mErr.Errors = append(mErr.Errors, err)
		}
	}

	if err := s.table.Unwind(s.active); err != nil {
		mErr.Errors = append(mErr.Errors, teardownErrors(err)...)
	}
	s.active = nil

	restored := true
	if s.ns != nil {
		if err := s.ns.Release(); err != nil {
			s.logger.Warn("failed to restore namespaces", "error", err)
			mErr.Errors = append(mErr.Errors, err)
		}
		restored = s.ns.Restored()
	}

	if err := s.sys.RestoreCwd(s.root); err != nil {
		mErr.Errors = append(mErr.Errors, err)
	}
	s.root.Close()

	s.holdsGuard = false
	activeSession.Store(false)
	s.setState(StateTornDown)

	if !restored {
		s.logger.Warn("thread could not rejoin every namespace")
	}
	return structs.NewTeardownError(&mErr)
}

// teardownErrors returns the individual failures held by a
// *structs.TeardownError, or err itself.
func teardownErrors(err error) []error {
	var tErr *structs.TeardownError
	if errors.As(err, &tErr) && tErr.Errors != nil {
		return tErr.Errors.Errors
	}
	return []error{err}
}
