// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind obsmenu. A [Command]
// tree dispatches on names, aliases and unambiguous prefixes, parses
// pflag flag sets, prints help, and suggests the nearest command or
// flag for a typo. [Output] prints tables on a terminal and JSON
// otherwise.
package cli
