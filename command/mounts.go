// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"fmt"
	"strings"

	"github.com/hashicorp/jail/mounts"
	"github.com/posener/complete"
)

type MountsCommand struct {
	Meta
}

func (c *MountsCommand) Help() string {
	helpText := `
Usage: jail mounts [options] <dir>

  Lists the mounts at or below a directory, usually a jail rootfs. A jail
  that was torn down cleanly leaves nothing behind, so any mount listed for
  an unused rootfs is a leftover. The command exits 2 when mounts are found.

General Options:

  ` + generalOptionsUsage(FlagSetNone)
	return strings.TrimSpace(helpText)
}

func (c *MountsCommand) Synopsis() string {
	return "Lists live mounts below a directory"
}

func (c *MountsCommand) AutocompleteFlags() complete.Flags {
	return c.Meta.AutocompleteFlags(FlagSetNone)
}

func (c *MountsCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictDirs("*")
}

func (c *MountsCommand) Name() string { return "mounts" }

func (c *MountsCommand) Run(args []string) int {
	flags := c.Meta.FlagSet(c.Name(), FlagSetNone)
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	if err := flags.Parse(args); err != nil {
		return 1
	}

	args = flags.Args()
	if len(args) != 1 {
		c.Ui.Error("This command takes one argument: <dir>")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	infos, err := mounts.Under(args[0])
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error listing mounts: %s", err))
		return 1
	}

	if len(infos) == 0 {
		c.Ui.Output(fmt.Sprintf("No mounts found under %s", args[0]))
		return 0
	}

	rows := make([]string, 0, len(infos)+1)
	rows = append(rows, "Mount Point|Source|Type|Options")
	for _, info := range infos {
		rows = append(rows, fmt.Sprintf("%s|%s|%s|%s",
			info.Mountpoint, info.Source, info.FSType, info.Options))
	}
	c.Ui.Output(formatList(rows))
	return 2
}
