// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package mounts

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/moby/sys/mountinfo"
)

// Under lists the mounts of the calling thread's mount namespace whose
// mount point is root or below it, sorted by mount point. It is used to find
// mounts left behind by a jail.
func Under(root string) ([]*mountinfo.Info, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	infos, err := mountinfo.GetMounts(mountinfo.PrefixFilter(root))
	if err != nil {
		return nil, fmt.Errorf("failed to read mount table: %w", err)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Mountpoint < infos[j].Mountpoint
	})
	return infos, nil
}
