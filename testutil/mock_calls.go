// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package testutil

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mitchellh/go-testing-interface"
)

// NewCallLog returns an empty CallLog.
func NewCallLog() *CallLog {
	return &CallLog{}
}

// CallLog records calls made against fakes in the order they happened. Fakes
// sharing one log make it possible to assert on the interleaving of mounts,
// chroots and namespace operations.
type CallLog struct {
	lock  sync.Mutex
	calls []string
}

func (c *CallLog) Add(format string, args ...any) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *CallLog) Get() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return slices.Clone(c.calls)
}

// WithPrefix returns the recorded calls starting with prefix, in order.
func (c *CallLog) WithPrefix(prefix string) []string {
	var out []string
	for _, call := range c.Get() {
		if strings.HasPrefix(call, prefix) {
			out = append(out, call)
		}
	}
	return out
}

func (c *CallLog) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.calls = nil
}

func (c *CallLog) AssertCalled(t testing.T, call string) {
	t.Helper()
	calls := c.Get()
	if !slices.Contains(calls, call) {
		t.Errorf("'%s' not called; all calls: %v", call, calls)
	}
}

func (c *CallLog) AssertNotCalled(t testing.T, call string) {
	t.Helper()
	calls := c.Get()
	if slices.Contains(calls, call) {
		t.Errorf("'%s' called; all calls: %v", call, calls)
	}
}
