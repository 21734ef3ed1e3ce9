// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"testing"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/jail/ci"
	"github.com/hashicorp/jail/mounts"
	"github.com/hashicorp/jail/testutil"
	"github.com/shoenig/test/must"
)

func TestMountsCommand_Implements(t *testing.T) {
	ci.Parallel(t)
	var _ cli.Command = &MountsCommand{}
}

func TestMountsCommand_Fails(t *testing.T) {
	ci.Parallel(t)
	ui := cli.NewMockUi()
	cmd := &MountsCommand{Meta: Meta{Ui: ui}}

	must.One(t, cmd.Run(nil))
	must.StrContains(t, ui.ErrorWriter.String(), "This command takes one argument: <dir>")
}

func TestMountsCommand_Empty(t *testing.T) {
	ci.Parallel(t)
	testutil.MountCompatible(t)

	ui := cli.NewMockUi()
	cmd := &MountsCommand{Meta: Meta{Ui: ui}}

	dir := t.TempDir()
	must.Zero(t, cmd.Run([]string{dir}))
	must.StrContains(t, ui.OutputWriter.String(), "No mounts found under "+dir)
}

func TestMountsCommand_Leftover(t *testing.T) {
	testutil.MountCompatible(t)

	dir := t.TempDir()

	m := mounts.NewMounter()
	must.NoError(t, m.Mount("tmpfs", dir, "tmpfs", 0, "size=1m"))
	t.Cleanup(func() { _ = m.Unmount(dir, 0) })

	ui := cli.NewMockUi()
	cmd := &MountsCommand{Meta: Meta{Ui: ui}}

	must.Eq(t, 2, cmd.Run([]string{dir}))
	out := ui.OutputWriter.String()
	must.StrContains(t, out, "Mount Point")
	must.StrContains(t, out, dir)
	must.StrContains(t, out, "tmpfs")
}
