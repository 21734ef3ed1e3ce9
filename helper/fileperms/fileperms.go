// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package fileperms names the permission modes used for files and
// directories the jail creates, so they are never written as decimal
// literals by accident.
package fileperms

import "os"

type mode = os.FileMode

const (
	// Oct644 is used for empty files created as bind mount points.
	Oct644 mode = 0o644

	// Oct755 is the default for created mount point directories.
	Oct755 mode = 0o755
)
