// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package namespace

import (
	"fmt"
	"strings"

	"github.com/hashicorp/jail/structs"
	"github.com/moby/sys/capability"
)

// requiredCaps returns the effective capabilities needed to mount, chroot
// and, with a credential, change identity.
func requiredCaps(cred *structs.Credential) []capability.Cap {
	caps := []capability.Cap{capability.CAP_SYS_ADMIN, capability.CAP_SYS_CHROOT}
	if cred != nil {
		caps = append(caps, capability.CAP_SETGID, capability.CAP_SETUID)
	}
	return caps
}

// MissingCapabilities lists the capabilities the current process lacks to
// create a jail with the given namespaces and credential. A user namespace
// grants the remaining capabilities inside it, so only its creation is
// checked then.
func MissingCapabilities(flags structs.NamespaceFlags, cred *structs.Credential) ([]string, error) {
	if flags.Has(structs.NamespaceUser) {
		return nil, nil
	}

	caps, err := capability.NewPid2(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read capabilities: %w", err)
	}
	if err := caps.Load(); err != nil {
		return nil, fmt.Errorf("failed to read capabilities: %w", err)
	}

	var missing []string
	for _, c := range requiredCaps(cred) {
		if !caps.Get(capability.EFFECTIVE, c) {
			missing = append(missing, "CAP_"+strings.ToUpper(c.String()))
		}
	}
	return missing, nil
}

// Preflight returns structs.ErrPermissionDenied naming every missing
// capability. It does not change any kernel state.
func Preflight(flags structs.NamespaceFlags, cred *structs.Credential) error {
	missing, err := MissingCapabilities(flags, cred)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing capabilities %s", structs.ErrPermissionDenied, strings.Join(missing, ", "))
	}
	return nil
}
