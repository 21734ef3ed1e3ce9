// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/jail/config"
	"github.com/hashicorp/jail/namespace"
	"github.com/hashicorp/jail/structs"
	"github.com/posener/complete"
)

type ValidateCommand struct {
	Meta
}

func (c *ValidateCommand) Help() string {
	helpText := `
Usage: jail validate [options] <path>

  Checks a jail configuration file for errors without touching any kernel
  state. The rootfs must exist and every mount target must stay inside it.

  The capabilities the configuration needs are compared with those of the
  current process and any that are missing are reported as a warning.

General Options:

  ` + generalOptionsUsage(FlagSetNone)
	return strings.TrimSpace(helpText)
}

func (c *ValidateCommand) Synopsis() string {
	return "Checks a jail configuration file for errors"
}

func (c *ValidateCommand) AutocompleteFlags() complete.Flags {
	return c.Meta.AutocompleteFlags(FlagSetNone)
}

func (c *ValidateCommand) AutocompleteArgs() complete.Predictor {
	return predictConfigFiles
}

func (c *ValidateCommand) Name() string { return "validate" }

func (c *ValidateCommand) Run(args []string) int {
	flags := c.Meta.FlagSet(c.Name(), FlagSetNone)
	flags.Usage = func() { c.Ui.Output(c.Help()) }
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
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		c.Ui.Error(c.Colorize().Color("[bold][red]Configuration validation errors:[reset]"))
		c.Ui.Error(err.Error())
		return 1
	}

	c.Ui.Output("Configuration validation successful")

	missing, err := namespace.MissingCapabilities(cfg.Namespaces, cfg.Credential)
	switch {
	case errors.Is(err, structs.ErrUnsupportedPlatform):
		c.Ui.Warn("Capabilities not checked: jails are only supported on Linux")
	case err != nil:
		c.Ui.Warn(fmt.Sprintf("Capabilities not checked: %s", err))
	case len(missing) > 0:
		c.Ui.Warn(wrapAtLength(fmt.Sprintf(
			"The current process is missing capabilities needed to enter this jail: %s",
			strings.Join(missing, ", "))))
	}

	return 0
}
