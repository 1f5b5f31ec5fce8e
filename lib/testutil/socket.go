// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
	"time"
)

// SocketPath returns a control socket path in a fresh directory under
// /tmp, removed when the test ends. t.TempDir() paths can overflow the
// 108-byte sun_path limit.
func SocketPath(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "obsmenu-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(directory) })
	return directory + "/obsmenu.sock"
}

// WaitForSocket polls until path exists, or fails the test after
// timeout. A server goroutine creates its socket some time after the
// test starts it.
func WaitForSocket(t TB, path string, timeout time.Duration) {
	t.Helper()
	Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, timeout, "socket %s did not appear", path)
}
