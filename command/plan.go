// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/jail/config"
	"github.com/hashicorp/jail/mounts"
	"github.com/posener/complete"
)

type PlanCommand struct {
	Meta
}

func (c *PlanCommand) Help() string {
	helpText := `
Usage: jail plan [options] <path>

  Prints the mount table a jail configuration resolves to, in the order the
  mounts are applied. Nothing is mounted.

Plan Options:

  -json
    Print the mounts as OCI runtime spec mount entries in JSON.

General Options:

  ` + generalOptionsUsage(FlagSetNone)
	return strings.TrimSpace(helpText)
}

func (c *PlanCommand) Synopsis() string {
	return "Prints the resolved mount table of a configuration"
}

func (c *PlanCommand) AutocompleteFlags() complete.Flags {
	return complete.Merge(c.Meta.AutocompleteFlags(FlagSetNone),
		complete.Flags{
			"-json": complete.PredictNothing,
		})
}

func (c *PlanCommand) AutocompleteArgs() complete.Predictor {
	return predictConfigFiles
}

func (c *PlanCommand) Name() string { return "plan" }

func (c *PlanCommand) Run(args []string) int {
	var jsonOutput bool

	flags := c.Meta.FlagSet(c.Name(), FlagSetNone)
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.BoolVar(&jsonOutput, "json", false, "")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	args = flags.Args()
	if len(args) != 1 {
		c.Ui.Error("This command takes one argument: <path>")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	cfg, err := config.ParseFile(args[0])
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error loading configuration: %s", err))
		return 1
	}

	if jsonOutput {
		out, err := json.MarshalIndent(cfg.OCIMounts(), "", "  ")
		if err != nil {
			c.Ui.Error(fmt.Sprintf("Error formatting mounts: %s", err))
			return 1
		}
		c.Ui.Output(string(out))
		return 0
	}

	cred := ""
	if cfg.Credential != nil {
		cred = cfg.Credential.String()
	}
	c.Ui.Output(formatKV([]string{
		fmt.Sprintf("Rootfs|%s", cfg.Rootfs),
		fmt.Sprintf("Namespaces|%s", cfg.Namespaces),
		fmt.Sprintf("Credential|%s", cred),
		fmt.Sprintf("Lazy Unmount|%t", cfg.LazyUnmount),
	}))

	c.Ui.Output(c.Colorize().Color("\n[bold]Mounts[reset]"))
	if len(cfg.Mounts) == 0 {
		c.Ui.Output("No mounts")
		return 0
	}

	rows := make([]string, 0, len(cfg.Mounts)+1)
	rows = append(rows, "#|Source|Target|Type|Options|Create|Kernel Flags")
	for i, m := range cfg.Mounts {
		fstype := m.FSType
		if m.IsBind() {
			fstype = "bind"
		}
		create := "false"
		if m.CreateTarget {
			create = fmt.Sprintf("%#o", uint32(m.Mode()))
		}
		rows = append(rows, fmt.Sprintf("%d|%s|/%s|%s|%s|%s|%#x",
			i, m.Source, m.CleanTarget(), fstype, m.Flags, create, mounts.KernelFlags(m)))
	}
	c.Ui.Output(formatList(rows))
	return 0
}
