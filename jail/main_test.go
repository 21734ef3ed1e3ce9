// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package jail

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the package if a session goroutine outlives its test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
