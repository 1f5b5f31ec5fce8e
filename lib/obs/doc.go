// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package obs is the OBS Studio service: a [service.Service] that keeps
// one obs-websocket connection alive, mirrors the remote scenes,
// sources and output states in a snapshot, and republishes that
// snapshot as three menus (Scenes, Sources, Outputs) with spoken
// notifications for changes a user cares about.
//
// Everything in a [Client] runs on its actor's goroutine. One call to
// Step does at most one of: a connection attempt, a status poll plus
// one frame read. Reads are bounded by [Options.ReadTimeout] so the
// actor sees Quit within about half a second.
//
// # Epochs
//
// A connection epoch runs from a successful dial to the next
// disconnect. Pending requests, the snapshot and the menus all belong
// to the current epoch; [Client.disconnect] is the only place that
// resets them, and a response whose request id is not pending in the
// current epoch is dropped without touching the snapshot.
//
// # Ordering
//
// Poll responses and push events for the same field are applied in
// arrival order with no sequence check: whichever message is processed
// last wins.
package obs
