// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hashicorp/jail/config"
	"github.com/hashicorp/jail/helper/logging"
	"github.com/hashicorp/jail/jail"
	"github.com/posener/complete"
)

type RunCommand struct {
	Meta
}

func (c *RunCommand) Help() string {
	helpText := `
Usage: jail run [options] <path> [--] <command> [args...]

  Enters the jail described by the configuration file at <path>, runs the
  command inside it and tears the jail down again. The command runs with the
  jail root as its root and working directory and inherits stdin, stdout
  and stderr. The exit code of the command is returned.

  Interrupt and terminate signals are forwarded to the command; the jail is
  torn down once it exits.

General Options:

  ` + generalOptionsUsage(FlagSetLog)
	return strings.TrimSpace(helpText)
}

func (c *RunCommand) Synopsis() string {
	return "Runs a command inside a jail"
}

func (c *RunCommand) AutocompleteFlags() complete.Flags {
	return c.Meta.AutocompleteFlags(FlagSetLog)
}

func (c *RunCommand) AutocompleteArgs() complete.Predictor {
	return predictConfigFiles
}

func (c *RunCommand) Name() string { return "run" }

func (c *RunCommand) Run(args []string) int {
	flags := c.Meta.FlagSet(c.Name(), FlagSetLog)
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	if err := flags.Parse(args); err != nil {
		return 1
	}

	args = flags.Args()
	if len(args) > 1 && args[1] == "--" {
		args = append(args[:1], args[2:]...)
	}
	if len(args) < 2 {
		c.Ui.Error("This command takes at least two arguments: <path> <command>")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	logger, err := c.Meta.Logger()
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if c.logJSON {
		// keep stderr parseable
		c.Ui = &logging.HcLogUI{Log: logger}
	}

	cfg, err := config.ParseFile(args[0])
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error loading configuration: %s", err))
		return 1
	}

	// handle signals ourselves so the jail is torn down before exiting
	signalCh := make(chan os.Signal, 4)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	exitCode := 0
	err = jail.Run(logger, cfg, func(s *jail.Session) error {
		cmd := s.Command(args[1], args[2:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to start %s: %w", args[1], err)
		}
		logger.Debug("started jailed command", "session_id", s.ID(), "pid", cmd.Process.Pid)

		doneCh := make(chan struct{})
		defer close(doneCh)
		go func() {
			for {
				select {
				case sig := <-signalCh:
					logger.Debug("forwarding signal", "signal", sig)
					_ = cmd.Process.Signal(sig)
				case <-doneCh:
					return
				}
			}
		}()

		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				exitCode = 128 + int(ws.Signal())
			}
			return nil
		}
		return err
	})
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error running jailed command: %s", err))
		if exitCode != 0 {
			return exitCode
		}
		return 1
	}

	return exitCode
}
