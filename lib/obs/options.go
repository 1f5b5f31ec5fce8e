// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"time"

	"github.com/bureau-foundation/obsmenu/lib/obsws"
	"github.com/bureau-foundation/obsmenu/lib/throttle"
)

const (
	// DefaultURL is obs-websocket's default listen address.
	DefaultURL = "ws://localhost:4455/"

	// DefaultConnectTimeout bounds one dial attempt.
	DefaultConnectTimeout = 2 * time.Second

	// DefaultRetryInterval is the wait between failed dials and after
	// a disconnect.
	DefaultRetryInterval = 3 * time.Second

	// DefaultReadTimeout bounds each frame read so Step returns to the
	// actor loop.
	DefaultReadTimeout = 500 * time.Millisecond

	// DefaultHandshakeTimeout is how long a dialed connection may take
	// to reach Identified.
	DefaultHandshakeTimeout = 5 * time.Second

	// DefaultStatusPollInterval is how often stream status is polled
	// while streaming.
	DefaultStatusPollInterval = 5 * time.Second
)

// Options configures a Client. Zero fields take the defaults above.
type Options struct {
	URL      string
	Password string

	ConnectTimeout     time.Duration
	RetryInterval      time.Duration
	ReadTimeout        time.Duration
	HandshakeTimeout   time.Duration
	StatusPollInterval time.Duration

	EventSubscriptions obsws.EventSubscription

	// Throttle configures issue announcements.
	Throttle throttle.Options

	// Dialer opens connections. Defaults to obsws.WebSocketDialer.
	Dialer obsws.Dialer
}

func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = DefaultRetryInterval
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if o.StatusPollInterval <= 0 {
		o.StatusPollInterval = DefaultStatusPollInterval
	}
	if o.EventSubscriptions == 0 {
		o.EventSubscriptions = obsws.DefaultSubscriptions
	}
	if o.Dialer == nil {
		o.Dialer = obsws.WebSocketDialer{}
	}
	return o
}
