// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
	colorable "github.com/mattn/go-colorable"
	"github.com/mitchellh/colorstring"
	"github.com/posener/complete"
	"golang.org/x/term"
)

// FlagSetFlags is an enum to define what flags are present in the
// default FlagSet returned by Meta.FlagSet.
type FlagSetFlags uint

const (
	FlagSetNone    FlagSetFlags = 0
	FlagSetLog     FlagSetFlags = 1 << iota
	FlagSetDefault              = FlagSetLog
)

// Meta contains the meta-options and functionality that nearly every
// jail command inherits.
type Meta struct {
	Ui cli.Ui

	// LogOutput is where command loggers write. Defaults to os.Stderr.
	LogOutput io.Writer

	// Whether to not-colorize output
	noColor bool

	// Whether to force colorized output
	forceColor bool

	logLevel string
	logJSON  bool
}

// FlagSet returns a FlagSet with the common flags that every
// command implements.
func (m *Meta) FlagSet(n string, fs FlagSetFlags) *flag.FlagSet {
	f := flag.NewFlagSet(n, flag.ContinueOnError)

	f.BoolVar(&m.noColor, "no-color", false, "")
	f.BoolVar(&m.forceColor, "force-color", false, "")

	if fs&FlagSetLog != 0 {
		f.StringVar(&m.logLevel, "log-level", "info", "")
		f.BoolVar(&m.logJSON, "log-json", false, "")
	}

	f.SetOutput(&uiErrorWriter{ui: m.Ui})

	return f
}

// AutocompleteFlags returns a set of flag completions for the given flag set.
func (m *Meta) AutocompleteFlags(fs FlagSetFlags) complete.Flags {
	flags := complete.Flags{
		"-no-color":    complete.PredictNothing,
		"-force-color": complete.PredictNothing,
	}
	if fs&FlagSetLog != 0 {
		flags["-log-level"] = complete.PredictSet("trace", "debug", "info", "warn", "error")
		flags["-log-json"] = complete.PredictNothing
	}
	return flags
}

// Logger builds the logger for a command from the -log-level and -log-json
// flags.
func (m *Meta) Logger() (hclog.Logger, error) {
	levelName := m.logLevel
	if levelName == "" {
		levelName = "info"
	}
	level := hclog.LevelFromString(levelName)
	if level == hclog.NoLevel {
		return nil, fmt.Errorf("invalid log level %q", levelName)
	}

	out := m.LogOutput
	if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "jail",
		Level:      level,
		JSONFormat: m.logJSON,
		Output:     out,
	}), nil
}

func (m *Meta) Colorize() *colorstring.Colorize {
	_, coloredUi := m.Ui.(*cli.ColoredUi)

	return &colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !coloredUi || m.noColor,
		Reset:   true,
	}
}

func (m *Meta) SetupUi(args []string) {
	noColor := os.Getenv(EnvJailCLINoColor) != ""
	forceColor := os.Getenv(EnvJailCLIForceColor) != ""

	for _, arg := range args {
		// everything after the jailed command belongs to it
		if arg == "--" {
			break
		}
		if arg == "-no-color" || arg == "--no-color" {
			noColor = true
		} else if arg == "-force-color" || arg == "--force-color" {
			forceColor = true
		}
	}

	m.Ui = &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      colorable.NewColorableStdout(),
		ErrorWriter: colorable.NewColorableStderr(),
	}

	// Only use colored UI if not disabled and stdout is a tty or colors are
	// forced.
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	useColor := !noColor && (isTerminal || forceColor)
	if useColor {
		m.Ui = &cli.ColoredUi{
			ErrorColor: cli.UiColorRed,
			WarnColor:  cli.UiColorYellow,
			InfoColor:  cli.UiColorGreen,
			Ui:         m.Ui,
		}
	}
}

// generalOptionsUsage returns the help string for the global options.
func generalOptionsUsage(fs FlagSetFlags) string {
	helpText := `
  -no-color
    Disables colored command output. Alternatively, JAIL_CLI_NO_COLOR may be
    set. This option takes precedence over -force-color.

  -force-color
    Forces colored command output. This can be used in cases where the usual
    terminal detection fails. Alternatively, JAIL_CLI_FORCE_COLOR may be set.
    This option has no effect if -no-color is also used.
`

	if fs&FlagSetLog != 0 {
		helpText += `
  -log-level=<level>
    Level of the log lines written to stderr. One of trace, debug, info,
    warn or error. Defaults to info.

  -log-json
    Write log lines as JSON.
`
	}

	return strings.TrimSpace(helpText)
}
