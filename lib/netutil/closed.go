// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies connection errors.
package netutil

import (
	"errors"
	"io"
	"net"
	"slices"
	"syscall"
)

// closeErrnos are the errno values of a peer that went away without a
// close handshake, such as OBS exiting or a CLI killed mid-request.
var closeErrnos = []syscall.Errno{syscall.EPIPE, syscall.ECONNRESET, syscall.ECONNABORTED}

// IsClosed reports whether err is the ordinary end of a connection
// rather than a fault. Callers drop the connection quietly on these
// and log other I/O errors.
func IsClosed(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno) && slices.Contains(closeErrnos, errno)
}
