// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint error handling shared by the
// obsmenu and obsmenud binaries. main() is the one place that writes
// raw text to stderr, before or after the structured logger exists.
package process
