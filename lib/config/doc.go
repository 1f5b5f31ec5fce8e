// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the obsmenud configuration file.
//
// Configuration comes from a single file named by either the
// OBSMENU_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search; without a file the daemon runs on [Default].
//
// YAML (.yaml, .yml) and JSON with comments (.json, .jsonc) are both
// accepted. Durations are Go duration strings. After loading, ${VAR}
// and ${VAR:-default} patterns are expanded in obs.url, obs.password
// and control.socket_path. No other environment variables override
// config values.
//
// Key exports:
//
//   - [Config] -- OBS connection, control socket, notifications, logging
//   - [Default] -- the built-in values
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.Validate] -- reports every invalid field at once
//
// This package depends on no other obsmenu packages.
package config
