// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build !linux

package jail

import "github.com/hashicorp/jail/structs"

func defaultSys() (sysCalls, error) {
	return nil, structs.ErrUnsupportedPlatform
}
