// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package menu

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/obsmenu/lib/codec"
)

// Fingerprint is a BLAKE3 digest of an item list's content. Two lists
// with the same labels, actions and action data (in any map insertion
// order) have the same fingerprint.
type Fingerprint [32]byte

// String returns the first 8 bytes in hex, enough for log lines.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:8])
}

// FingerprintItems hashes the deterministic CBOR encoding of items.
// Core deterministic encoding sorts map keys, which makes the digest
// independent of ActionData iteration order.
func FingerprintItems(items []Item) Fingerprint {
	if items == nil {
		items = []Item{}
	}
	data, err := codec.Marshal(items)
	if err != nil {
		// Action data holding unencodable values (channels, funcs)
		// is a programming error in the service building the menu.
		panic("menu: encoding items for fingerprint: " + err.Error())
	}
	return Fingerprint(blake3.Sum256(data))
}
