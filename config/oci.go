// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"strings"

	"github.com/hashicorp/jail/structs"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// OCIMounts exports the mount table in the form used by OCI runtime
// bundles, so that a jail plan can be handed to a container runtime.
// Destinations are absolute paths inside the jail.
func (c *Config) OCIMounts() []specs.Mount {
	out := make([]specs.Mount, 0, len(c.Mounts))
	for _, m := range c.Mounts {
		out = append(out, ociMount(m))
	}
	return out
}

func ociMount(m *structs.MountSpec) specs.Mount {
	om := specs.Mount{
		Destination: "/" + m.CleanTarget(),
		Source:      m.Source,
		Type:        m.FSType,
	}

	if m.IsBind() {
		om.Type = "bind"
		if m.Flags.Has(structs.MountRecursive) {
			om.Options = append(om.Options, "rbind")
		} else {
			om.Options = append(om.Options, "bind")
		}
	}

	if m.Flags.Has(structs.MountReadOnly) {
		om.Options = append(om.Options, "ro")
	} else {
		om.Options = append(om.Options, "rw")
	}

	if m.Data != "" {
		for _, opt := range strings.Split(m.Data, ",") {
			if opt = strings.TrimSpace(opt); opt != "" {
				om.Options = append(om.Options, opt)
			}
		}
	}

	return om
}
