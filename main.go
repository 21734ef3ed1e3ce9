// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/jail/command"
	"github.com/hashicorp/jail/version"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}

func Run(args []string) int {
	// Parse flags into env vars for global use
	metaPtr := new(command.Meta)
	metaPtr.SetupUi(args)

	commands := command.Commands(metaPtr)
	cli := &cli.CLI{
		Name:         "jail",
		Version:      version.GetVersion().FullVersionNumber(true),
		Args:         args,
		Commands:     commands,
		Autocomplete: true,
		HelpFunc:     cli.BasicHelpFunc("jail"),
		HelpWriter:   os.Stdout,
	}

	exitCode, err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}

	return exitCode
}
