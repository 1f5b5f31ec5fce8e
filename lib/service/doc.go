// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service runs host-isolated service actors and serves the
// host's control socket.
//
// An [Actor] is one goroutine plus two non-blocking mailboxes: inbound
// [Command] values posted by the host, and outbound [Event] values the
// host drains on its own schedule. The mailboxes are the only state
// shared with the host. Everything else (the menu tree, whatever the
// concrete service keeps about its remote peer) is touched only from
// the actor goroutine, so none of it is locked.
//
// The loop is cooperative. Each iteration handles at most one inbound
// command, then calls [Service.Step] once, then waits for up to the
// tick interval unless either reported work. A Step that blocks (a
// socket read, say) must bound its own wait so Quit stays responsive.
//
// A concrete service is constructed around its Actor and uses the
// actor's menu primitives ([Actor.AddMenu], [Actor.SetMenuItems], ...),
// [Actor.Emit] and [Actor.Logger] for everything it publishes.
//
// The package also carries the control socket: [SocketServer] serves a
// CBOR request-response protocol on a Unix socket, one request per
// connection, and [ServiceClient] calls it. A failed response carries
// a code such as [CodeNotFound] next to its message.
package service
