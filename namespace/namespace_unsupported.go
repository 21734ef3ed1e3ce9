// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build !linux

package namespace

import (
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/jail/structs"
)

type Guard struct{}

func Unshare(_ hclog.Logger, _ structs.NamespaceFlags) (*Guard, error) {
	return nil, structs.ErrUnsupportedPlatform
}

func (*Guard) Release() error { return nil }
func (*Guard) Restored() bool { return false }
func (*Guard) Flags() structs.NamespaceFlags { return 0 }

func MissingCapabilities(_ structs.NamespaceFlags, _ *structs.Credential) ([]string, error) {
	return nil, structs.ErrUnsupportedPlatform
}

func Preflight(_ structs.NamespaceFlags, _ *structs.Credential) error {
	return structs.ErrUnsupportedPlatform
}
