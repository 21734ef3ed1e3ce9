// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"testing"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/jail/ci"
	"github.com/hashicorp/jail/version"
	"github.com/shoenig/test/must"
)

func TestVersionCommand_implements(t *testing.T) {
	ci.Parallel(t)
	var _ cli.Command = &VersionCommand{}
}

func TestVersionCommand_Run(t *testing.T) {
	ci.Parallel(t)
	ui := cli.NewMockUi()
	cmd := &VersionCommand{
		Ui:      ui,
		Version: &version.VersionInfo{Version: "0.1.0", VersionPrerelease: "dev", Revision: "deadbeef"},
	}

	must.Zero(t, cmd.Run(nil))
	must.Eq(t, "Jail v0.1.0-dev\nRevision deadbeef\n", ui.OutputWriter.String())
}

func TestCommands(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	all := Commands(&Meta{Ui: ui})
	for _, name := range []string{"mounts", "plan", "run", "validate", "version"} {
		factory, ok := all[name]
		must.True(t, ok, must.Sprintf("missing command %q", name))

		cmd, err := factory()
		must.NoError(t, err)
		must.NotEq(t, "", cmd.Synopsis())
	}
	must.MapLen(t, 5, all)
}
