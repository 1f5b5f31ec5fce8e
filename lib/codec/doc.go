// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration shared by the
// obsmenu control socket server and its clients.
//
// Two serialization formats meet in this repository:
//
//   - JSON for the remote peer: obs-websocket frames are JSON text
//     messages and are handled by lib/obsws with encoding/json.
//   - CBOR for the local control socket between obsmenud and its front
//     ends (lib/service SocketServer and ServiceClient).
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same menu snapshot always produces identical bytes and hashes to the
// same fingerprint. Times travel as RFC 3339 strings. The decoder
// rejects duplicate map keys.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Types with `json` tags serialize identically in both formats because
// fxamacker/cbor falls back to `json` tags when `cbor` tags are absent.
// Control socket result types use `json` tags so `obsmenu --json` can
// print them unchanged.
package codec
