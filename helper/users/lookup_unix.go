// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build unix

package users

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"
)

// Lookup resolves a user specification into numeric ids. The specification
// is one of "name", "uid", "name:group" or "uid:gid". When no group is given
// the primary group of the user is used.
//
// Lookups read the host user database, so they must happen before the root
// switch.
func Lookup(spec string) (uint32, uint32, error) {
	if spec == "" {
		return 0, 0, fmt.Errorf("empty user")
	}

	name, group, hasGroup := strings.Cut(spec, ":")

	uid, primaryGID, err := lookupUser(name)
	if err != nil {
		return 0, 0, err
	}

	if !hasGroup {
		if primaryGID < 0 {
			return 0, 0, fmt.Errorf("user %q has no primary group; specify one as %q", name, name+":<group>")
		}
		return uid, uint32(primaryGID), nil
	}

	gid, err := lookupGroup(group)
	if err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}

// lookupUser returns the uid and primary gid of name. A numeric name that is
// not present in the user database is accepted as-is with no primary group.
func lookupUser(name string) (uint32, int64, error) {
	u, err := user.Lookup(name)
	if err != nil {
		id, perr := parseID(name)
		if perr != nil {
			return 0, 0, fmt.Errorf("failed to identify user %q: %w", name, err)
		}
		if u, err = user.LookupId(name); err != nil {
			return id, -1, nil
		}
	}

	uid, err := parseID(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to convert uid %q of user %q: %w", u.Uid, name, err)
	}
	gid, err := parseID(u.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to convert gid %q of user %q: %w", u.Gid, name, err)
	}
	return uid, int64(gid), nil
}

func lookupGroup(group string) (uint32, error) {
	if id, err := parseID(group); err == nil {
		return id, nil
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, fmt.Errorf("failed to identify group %q: %w", group, err)
	}
	gid, err := parseID(g.Gid)
	if err != nil {
		return 0, fmt.Errorf("unable to convert gid %q of group %q: %w", g.Gid, group, err)
	}
	return gid, nil
}

func parseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
