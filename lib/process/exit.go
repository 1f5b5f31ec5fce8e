// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ExitCoder is implemented by errors that choose the process exit
// code. Their message has already been shown to the user.
type ExitCoder interface {
	ExitCode() int
}

// ExitStatus is an error carrying only an exit code, for commands that
// have already printed their result.
type ExitStatus int

func (s ExitStatus) Error() string { return "exit status " + strconv.Itoa(int(s)) }

// ExitCode returns s as an int.
func (s ExitStatus) ExitCode() int { return int(s) }

// Fatal reports err on stderr and exits. An error implementing
// [ExitCoder] exits silently with its own code; anything else prints
// "error: err" and exits 1.
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

// report writes err to w as Fatal would and returns the exit code.
func report(w io.Writer, err error) int {
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
