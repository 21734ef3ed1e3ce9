// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/jail/version"
	colorable "github.com/mattn/go-colorable"
)

const (
	// EnvJailCLINoColor is an env var that toggles colored UI output.
	EnvJailCLINoColor = `JAIL_CLI_NO_COLOR`

	// EnvJailCLIForceColor is an env var that forces colored UI output.
	EnvJailCLIForceColor = `JAIL_CLI_FORCE_COLOR`
)

// Commands returns the mapping of CLI commands for jail. The meta
// parameter lets you set meta options for all commands.
func Commands(metaPtr *Meta) map[string]cli.CommandFactory {
	if metaPtr == nil {
		metaPtr = new(Meta)
	}

	meta := *metaPtr
	if meta.Ui == nil {
		meta.Ui = &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      colorable.NewColorableStdout(),
			ErrorWriter: colorable.NewColorableStderr(),
		}
	}

	return map[string]cli.CommandFactory{
		"mounts": func() (cli.Command, error) {
			return &MountsCommand{
				Meta: meta,
			}, nil
		},
		"plan": func() (cli.Command, error) {
			return &PlanCommand{
				Meta: meta,
			}, nil
		},
		"run": func() (cli.Command, error) {
			return &RunCommand{
				Meta: meta,
			}, nil
		},
		"validate": func() (cli.Command, error) {
			return &ValidateCommand{
				Meta: meta,
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{
				Version: version.GetVersion(),
				Ui:      meta.Ui,
			}, nil
		},
	}
}
