// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"errors"
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
)

const (
	errPermissionDenied     = "permission denied"
	errConfigInvalid        = "invalid jail configuration"
	errMountFailed          = "mount failed"
	errUnsupportedNamespace = "unsupported namespace"
	errAlreadyActive        = "a jail session is already active in this process"
	errTeardownIncomplete   = "jail teardown incomplete"
	errSessionTornDown      = "jail session has been torn down"
	errWrongThread          = "jail session used from a different OS thread"
	errUnsupportedPlatform  = "jails are only supported on linux"
)

var (
	// ErrPermissionDenied is returned when the process lacks a capability
	// needed for a namespace, mount or chroot operation. It is never retried.
	ErrPermissionDenied = errors.New(errPermissionDenied)

	// ErrConfigInvalid is returned before any kernel state is touched when
	// the rootfs path or mount table is unusable.
	ErrConfigInvalid = errors.New(errConfigInvalid)

	// ErrMountFailed is matched by every *MountError.
	ErrMountFailed = errors.New(errMountFailed)

	// ErrUnsupportedNamespace is returned when the kernel does not support a
	// requested namespace kind.
	ErrUnsupportedNamespace = errors.New(errUnsupportedNamespace)

	// ErrAlreadyActive is returned when entering a jail while another session
	// in the process is live.
	ErrAlreadyActive = errors.New(errAlreadyActive)

	// ErrTeardownIncomplete is matched by *TeardownError. Teardown still ran
	// every step; some of them failed.
	ErrTeardownIncomplete = errors.New(errTeardownIncomplete)

	ErrSessionTornDown     = errors.New(errSessionTornDown)
	ErrWrongThread         = errors.New(errWrongThread)
	ErrUnsupportedPlatform = errors.New(errUnsupportedPlatform)
)

// MountCause classifies why a single mount could not be applied.
type MountCause int

const (
	CauseSyscall MountCause = iota
	CauseTargetMissing
	CauseSourceMissing
	CauseTargetEscapesRoot
	CauseAlreadyMounted
	CauseBusy
	CausePermission
	CauseRemountReadOnly
)

func (c MountCause) String() string {
	switch c {
	case CauseTargetMissing:
		return "target missing and creation not permitted"
	case CauseSourceMissing:
		return "source missing"
	case CauseTargetEscapesRoot:
		return "target escapes the jail root"
	case CauseAlreadyMounted:
		return "target already mounted"
	case CauseBusy:
		return "target busy"
	case CausePermission:
		return "permission denied"
	case CauseRemountReadOnly:
		return "read-only remount failed"
	default:
		return "mount syscall failed"
	}
}

// MountError describes the mount table entry that failed to apply.
type MountError struct {
	// Index is the position of the failing spec in the mount table.
	Index int
	Spec  *MountSpec
	Cause MountCause
	Err   error
}

func (e *MountError) Error() string {
	target := ""
	if e.Spec != nil {
		target = " " + e.Spec.String()
	}
	if e.Err == nil {
		return fmt.Sprintf("mount #%d%s: %s", e.Index, target, e.Cause)
	}
	return fmt.Sprintf("mount #%d%s: %s: %v", e.Index, target, e.Cause, e.Err)
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// Is matches ErrMountFailed for every mount error and ErrPermissionDenied
// when the kernel refused the operation.
func (e *MountError) Is(target error) bool {
	switch target {
	case ErrMountFailed:
		return true
	case ErrPermissionDenied:
		return e.Cause == CausePermission
	}
	return false
}

// TeardownError collects every failure seen while tearing a jail down.
type TeardownError struct {
	Errors *multierror.Error
}

func (e *TeardownError) Error() string {
	if e.Errors == nil {
		return errTeardownIncomplete
	}
	return fmt.Sprintf("%s: %v", errTeardownIncomplete, e.Errors)
}

func (e *TeardownError) Unwrap() error {
	return e.Errors.ErrorOrNil()
}

func (e *TeardownError) Is(target error) bool {
	return target == ErrTeardownIncomplete
}

// NewTeardownError returns nil if merr holds no errors, otherwise a
// *TeardownError wrapping it.
func NewTeardownError(merr *multierror.Error) error {
	if merr.ErrorOrNil() == nil {
		return nil
	}
	return &TeardownError{Errors: merr}
}
