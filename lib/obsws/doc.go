// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package obsws speaks the obs-websocket v5 JSON protocol: frame
// envelopes and payload shapes, hello authentication, and a WebSocket
// transport whose reads are bounded by a timeout.
//
// Every message is a JSON object {"op": <opcode>, "d": <payload>}.
// The package only knows the opcodes the OBS client uses: Hello (0),
// Identify (1), Identified (2), Event (5), Request (6) and
// RequestResponse (7). Other opcodes decode into a [Frame] whose
// payload the caller can ignore.
//
// This package has no state machine. Connection lifecycle, request
// correlation and reconciliation live in the obs package.
package obsws
