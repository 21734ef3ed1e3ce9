// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package logging

import (
	"errors"

	"github.com/hashicorp/go-hclog"
)

// HcLogUI is a cli.Ui that writes every message as a log line. It is used
// when command output must stay machine readable, e.g. with -log-json.
// Prompting is not supported.
type HcLogUI struct {
	Log hclog.Logger
}

var errNoPrompt = errors.New("prompting is not supported when logging output")

func (l *HcLogUI) Ask(string) (string, error) {
	return "", errNoPrompt
}

func (l *HcLogUI) AskSecret(string) (string, error) {
	return "", errNoPrompt
}

func (l *HcLogUI) Output(message string) {
	l.Log.Info(message)
}

func (l *HcLogUI) Info(message string) {
	l.Log.Info(message)
}

func (l *HcLogUI) Error(message string) {
	l.Log.Error(message)
}

func (l *HcLogUI) Warn(message string) {
	l.Log.Warn(message)
}
