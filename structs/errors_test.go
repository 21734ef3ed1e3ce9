// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"errors"
	"io/fs"
	"testing"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/hashicorp/jail/ci"
	"github.com/shoenig/test/must"
)

func TestMountError_Is(t *testing.T) {
	ci.Parallel(t)

	spec := &MountSpec{Source: "/dev", Target: "/dev", Flags: MountBind}

	err := error(&MountError{Index: 1, Spec: spec, Cause: CauseSourceMissing, Err: fs.ErrNotExist})
	must.ErrorIs(t, err, ErrMountFailed)
	must.ErrorIs(t, err, fs.ErrNotExist)
	must.False(t, errors.Is(err, ErrPermissionDenied))
	must.StrContains(t, err.Error(), "mount #1")
	must.StrContains(t, err.Error(), "source missing")

	denied := error(&MountError{Index: 0, Spec: spec, Cause: CausePermission})
	must.ErrorIs(t, denied, ErrMountFailed)
	must.ErrorIs(t, denied, ErrPermissionDenied)

	var mErr *MountError
	must.True(t, errors.As(denied, &mErr))
	must.Eq(t, 0, mErr.Index)
}

func TestTeardownError(t *testing.T) {
	ci.Parallel(t)

	must.NoError(t, NewTeardownError(nil))
	must.NoError(t, NewTeardownError(new(multierror.Error)))

	inner := errors.New("device or resource busy")
	merr := multierror.Append(nil, inner)
	err := NewTeardownError(merr)
	must.ErrorIs(t, err, ErrTeardownIncomplete)
	must.ErrorIs(t, err, inner)
	must.StrContains(t, err.Error(), "busy")
}

func TestNamespaceFlags(t *testing.T) {
	ci.Parallel(t)

	flags, err := ParseNamespaces([]string{"mount", "PID", "uts", "user"})
	must.NoError(t, err)
	must.True(t, flags.Has(NamespaceMount|NamespacePID))
	must.False(t, flags.Has(NamespaceNet))

	// user namespace is always ordered first
	must.Eq(t, "user,mnt,pid,uts", flags.String())
	must.Eq(t, "none", NamespaceFlags(0).String())

	_, err = ParseNamespaces([]string{"time"})
	must.ErrorContains(t, err, `unknown namespace "time"`)
}
