// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package structs

import (
	"fmt"
	"strings"
)

// NamespaceFlags is the set of Linux namespace kinds a jail unshares.
type NamespaceFlags uint8

const (
	NamespaceMount NamespaceFlags = 1 << iota
	NamespacePID
	NamespaceUTS
	NamespaceIPC
	NamespaceUser
	NamespaceNet
	NamespaceCgroup
)

// NamespaceKind pairs a flag with the name the kernel uses for it under
// /proc/<pid>/ns.
type NamespaceKind struct {
	Flag NamespaceFlags
	Name string
}

// namespaceKinds is in canonical order. The user namespace comes first so
// that it is the owner of any namespace created alongside it.
var namespaceKinds = []NamespaceKind{
	{NamespaceUser, "user"},
	{NamespaceMount, "mnt"},
	{NamespacePID, "pid"},
	{NamespaceUTS, "uts"},
	{NamespaceIPC, "ipc"},
	{NamespaceNet, "net"},
	{NamespaceCgroup, "cgroup"},
}

func (f NamespaceFlags) Has(o NamespaceFlags) bool {
	return f&o == o
}

// Kinds returns the set kinds in canonical order.
func (f NamespaceFlags) Kinds() []NamespaceKind {
	kinds := make([]NamespaceKind, 0, len(namespaceKinds))
	for _, k := range namespaceKinds {
		if f.Has(k.Flag) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (f NamespaceFlags) String() string {
	kinds := f.Kinds()
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.Name
	}
	return strings.Join(names, ",")
}

// ParseNamespaces converts namespace names to flags. Both the kernel name
// ("mnt") and the long form ("mount") are accepted.
func ParseNamespaces(names []string) (NamespaceFlags, error) {
	var flags NamespaceFlags
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "mnt", "mount":
			flags |= NamespaceMount
		case "pid":
			flags |= NamespacePID
		case "uts":
			flags |= NamespaceUTS
		case "ipc":
			flags |= NamespaceIPC
		case "user":
			flags |= NamespaceUser
		case "net", "network":
			flags |= NamespaceNet
		case "cgroup":
			flags |= NamespaceCgroup
		default:
			return 0, fmt.Errorf("unknown namespace %q", name)
		}
	}
	return flags, nil
}

// Credential is the optional identity a jail drops to once the root switch
// has happened.
type Credential struct {
	UID uint32
	GID uint32
}

func (c *Credential) Copy() *Credential {
	if c == nil {
		return nil
	}
	nc := *c
	return &nc
}

func (c *Credential) String() string {
	return fmt.Sprintf("%d:%d", c.UID, c.GID)
}
