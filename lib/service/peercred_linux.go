// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package service

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// checkPeer refuses Unix connections from another user, read from
// SO_PEERCRED.
func checkPeer(conn net.Conn) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return fmt.Errorf("reading peer credentials: %w", err)
	}

	var credentials *unix.Ucred
	var credentialsErr error
	if err := raw.Control(func(fd uintptr) {
		credentials, credentialsErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return fmt.Errorf("reading peer credentials: %w", err)
	}
	if credentialsErr != nil {
		return fmt.Errorf("reading peer credentials: %w", credentialsErr)
	}

	if uid := uint32(os.Getuid()); credentials.Uid != uid {
		return fmt.Errorf("peer uid %d (pid %d) is not %d", credentials.Uid, credentials.Pid, uid)
	}
	return nil
}
