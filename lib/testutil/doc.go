// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// safety valve so tests never hang on a channel that is not fed. They
// are the only place tests use real wall-clock timeouts; everything
// else runs on a fake clock.
//
// [SocketPath] returns a short socket path under /tmp, since Unix
// socket paths are limited to 108 bytes. [WaitForSocket] and
// [Eventually] poll for state another goroutine produces.
//
// [CollectUntil] drains values from a receive function until a
// predicate matches, which suits the non-blocking outbound event
// queues of service actors.
package testutil
