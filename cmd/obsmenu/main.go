// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// obsmenu browses and drives the menus obsmenud publishes, through the
// daemon's control socket.
package main

import (
	"os"

	"github.com/bureau-foundation/obsmenu/lib/process"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	return root(nil).Execute(os.Args[1:])
}
