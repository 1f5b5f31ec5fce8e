// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package obs

// Issue classes passed to the throttle. With the default shared
// throttle they only matter for logging.
const (
	issueConnectionLost     = "connection_lost"
	issueStreamReconnecting = "stream_reconnecting"
	issueSkippedFrames      = "skipped_frames"
)

// announceIssue notifies the user of a recurring problem unless an
// issue was announced within the throttle interval.
func (c *Client) announceIssue(class, message string) {
	if !c.throttle.Allow(class) {
		c.logger.Debug("issue announcement suppressed", "class", class, "message", message)
		return
	}
	c.actor.Notify(message)
}

// announce notifies the user of a state change.
func (c *Client) announce(message string) {
	c.actor.Notify(message)
}
