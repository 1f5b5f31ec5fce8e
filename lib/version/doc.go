// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which build of obsmenu and obsmenud is
// running. Release builds set [Version], [GitCommit], [GitDirty] and
// [BuildTime] with -ldflags -X. A plain "go install" leaves them unset
// and the VCS stamp the go command embeds fills in the commit, dirty
// flag and time.
//
// obsmenud logs [Info] at startup and prints it for --version; the
// obsmenu version command prints [Full], which adds the Go toolchain
// and platform.
package version
