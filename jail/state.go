// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package jail

// State is the lifecycle position of a Session. States only move forward,
// except that a failed step rolls back to the last state whose effects are
// still in place.
type State int

const (
	StateCreated State = iota
	StateNamespacesUnshared
	StateMountsApplied
	StateRootSwitched
	StateActive
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateNamespacesUnshared:
		return "namespaces-unshared"
	case StateMountsApplied:
		return "mounts-applied"
	case StateRootSwitched:
		return "root-switched"
	case StateActive:
		return "active"
	case StateTornDown:
		return "torn-down"
	default:
		return "unknown"
	}
}
